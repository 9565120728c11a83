// Package cnab builds Itaú CNAB240 Segment O payment files from GNRE guides.
//
// The format is unforgiving: every record is exactly 240 characters, numeric
// fields are zero-left-padded, text fields space-right-padded, and the batch
// and file trailers must declare record counts and cent totals that match the
// file's actual contents. Any width drift is a bug in the padding tables, so
// record assembly asserts its own length instead of tolerating mismatches.
package cnab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fasmdigital/gnre-cnab-converter/internal/gnre"
	"github.com/fasmdigital/gnre-cnab-converter/internal/models"
)

const (
	recordLen = 240

	// FileIDLen is the required length of the output file base name
	// (e.g. "CNAB0001").
	FileIDLen = 8

	paymentLineLen = 48

	// Single batch per file; layout versions per the Itaú Segment O spec.
	batchNumber    = 1
	fileLayout     = "080"
	batchLayout    = "040"
	serviceType    = "22" // tax payment
	paymentForm    = "91" // barcoded state tax guide
	currencyMarker = "REA"
)

// Input-contract violations. The caller is expected to have filtered to
// complete guides already, so hitting one of these is a programming error,
// not bad user input.
var (
	ErrNoGuides  = errors.New("cnab: no guides to encode")
	ErrBadFileID = errors.New("cnab: file id must be exactly 8 characters")
)

// Encode serializes guides into a CNAB240 Segment O byte stream: file header,
// batch header, one Segment O per guide, batch trailer, file trailer. The
// generation instant is injected so output is reproducible.
func Encode(guides []models.Guide, profile models.PayerProfile, fileID string, now time.Time) ([]byte, error) {
	if len(guides) == 0 {
		return nil, ErrNoGuides
	}
	if len(fileID) != FileIDLen {
		return nil, fmt.Errorf("%w: got %d (%q)", ErrBadFileID, len(fileID), fileID)
	}
	// Defensive re-check before any record is built; classification should
	// have guaranteed this already.
	for i, g := range guides {
		if line := gnre.OnlyDigits(g.PaymentLine); len(line) != paymentLineLen {
			return nil, fmt.Errorf("cnab: guide %d (page %d): payment line has %d digits, want %d",
				i+1, g.Page, len(line), paymentLineLen)
		}
	}

	genDate := now.Format("02012006")
	genTime := now.Format("150405")

	// The batch carries a single payment date; the first guide's due date
	// stands for the whole file. Known narrowing for mixed due dates.
	paymentDate, err := toDDMMYYYY(guides[0].DueDate)
	if err != nil {
		return nil, fmt.Errorf("cnab: guide 1: %w", err)
	}

	records := make([]string, 0, len(guides)+4)
	records = append(records, fileHeader(profile, genDate, genTime))
	records = append(records, batchHeader(profile))

	var totalCents int64
	for i, g := range guides {
		seg, cents, err := segmentO(g, profile, i+1, paymentDate)
		if err != nil {
			return nil, err
		}
		totalCents += cents
		records = append(records, seg)
	}

	records = append(records, batchTrailer(profile, len(guides), totalCents))
	records = append(records, fileTrailer(profile, len(records)+1))

	var b strings.Builder
	b.Grow(len(records) * (recordLen + 2))
	for _, r := range records {
		b.WriteString(r)
		b.WriteString("\r\n")
	}
	return toASCII(b.String()), nil
}

func fileHeader(p models.PayerProfile, genDate, genTime string) string {
	r := padLeft(p.BankCode, 3) +
		"0000" + // batch marker
		"0" + // record type: file header
		blanks(6) +
		fileLayout +
		"2" + // inscription type: CNPJ
		padLeft(p.TaxpayerID, 14) +
		blanks(20) +
		padLeft(p.Agency, 5) + " " + padLeft(p.Account, 12) + " " + padLeft(p.AccountDigit, 1) +
		padRight(p.LegalName, 30) +
		padRight(p.BankName, 30) +
		blanks(10) +
		"1" + // file sequence
		genDate +
		genTime +
		zeros(9) + zeros(5) +
		blanks(69)
	return checkWidth(r, "file header")
}

func batchHeader(p models.PayerProfile) string {
	r := padLeft(p.BankCode, 3) +
		padLeft(strconv.Itoa(batchNumber), 4) +
		"1" + // record type: batch header
		"C" + // operation: credit/payment
		serviceType +
		paymentForm +
		batchLayout +
		" " +
		"2" + // inscription type: CNPJ
		padLeft(p.TaxpayerID, 14) +
		blanks(4) + blanks(16) +
		padLeft(p.Agency, 5) + " " + padLeft(p.Account, 12) + " " + padLeft(p.AccountDigit, 1) +
		padRight(p.LegalName, 30) +
		blanks(30) + blanks(10) +
		blanks(30) + zeros(5) + blanks(15) +
		blanks(20) + zeros(8) + blanks(2) +
		blanks(8) + blanks(10)
	return checkWidth(r, "batch header")
}

func segmentO(g models.Guide, p models.PayerProfile, index int, paymentDate string) (string, int64, error) {
	line := gnre.OnlyDigits(g.PaymentLine)

	cents, err := ParseBRLToCents(g.Amount)
	if err != nil {
		return "", 0, fmt.Errorf("cnab: guide %d (page %d): %w", index, g.Page, err)
	}

	dueDate, err := toDDMMYYYY(g.DueDate)
	if err != nil {
		return "", 0, fmt.Errorf("cnab: guide %d (page %d): %w", index, g.Page, err)
	}

	r := padLeft(p.BankCode, 3) +
		padLeft(strconv.Itoa(batchNumber), 4) +
		"3" + // record type: detail
		padLeft(strconv.Itoa(index), 5) +
		"O" + // segment
		zeros(3) +
		padRight(line, 48) +
		padRight("GNRE "+g.State, 30) +
		dueDate +
		currencyMarker +
		zeros(15) +
		padLeft(strconv.FormatInt(cents, 10), 15) +
		paymentDate +
		zeros(15) +
		blanks(3) +
		zeros(9) +
		blanks(3) +
		padRight(fmt.Sprintf("GNRE-%s-%s-%05d", g.State, dueDate, index), 20) +
		blanks(21) + blanks(15) + blanks(10)
	return checkWidth(r, "segment O"), cents, nil
}

func batchTrailer(p models.PayerProfile, segments int, totalCents int64) string {
	// Declared count covers the batch's own header and trailer too.
	count := segments + 2
	r := padLeft(p.BankCode, 3) +
		padLeft(strconv.Itoa(batchNumber), 4) +
		"5" + // record type: batch trailer
		blanks(9) +
		padLeft(strconv.Itoa(count), 6) +
		padLeft(strconv.FormatInt(totalCents, 10), 18) +
		zeros(18) +
		blanks(171) +
		blanks(10)
	return checkWidth(r, "batch trailer")
}

func fileTrailer(p models.PayerProfile, totalRecords int) string {
	r := padLeft(p.BankCode, 3) +
		"9999" + // batch marker: file trailer
		"9" + // record type
		blanks(9) +
		padLeft("1", 6) + // batch count
		padLeft(strconv.Itoa(totalRecords), 6) +
		blanks(211)
	return checkWidth(r, "file trailer")
}

// checkWidth asserts the assembled record is exactly 240 characters. A
// mismatch means a padding-table bug, not bad input, so it is fatal.
func checkWidth(record, name string) string {
	if len(record) != recordLen {
		panic(fmt.Sprintf("cnab: %s record is %d chars, want %d", name, len(record), recordLen))
	}
	return record
}

// toDDMMYYYY converts "dd/mm/yyyy" to "ddmmyyyy".
func toDDMMYYYY(date string) (string, error) {
	parts := strings.Split(strings.TrimSpace(date), "/")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return "", fmt.Errorf("invalid due date %q, want dd/mm/yyyy", date)
	}
	return parts[0] + parts[1] + parts[2], nil
}

// toASCII drops any character outside single-byte ASCII. The bank processor
// only accepts ASCII, and a dropped accent beats a rejected file.
func toASCII(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
		}
	}
	return out
}
