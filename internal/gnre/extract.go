// Package gnre recovers GNRE guide fields from free-form page text.
//
// GNRE guides come out of PDF text extraction with inconsistent layout:
// labels reworded, lines wrapped mid-number, the barcode line rendered two or
// three times as overlapping fragments. Every field therefore uses a strict
// primary pattern plus a looser fallback, and the payment line is settled by
// majority vote across all candidate renderings.
package gnre

import (
	"regexp"
	"strings"

	"github.com/fasmdigital/gnre-cnab-converter/internal/models"
)

// Fields holds the per-page extraction result. An empty string means the
// field could not be recovered; extraction itself never fails.
type Fields struct {
	PaymentLine string
	State       string
	DueDate     string
	Amount      string
	Snippets    map[string]string
}

const (
	labelState   = "UF Favorecida"
	labelDueDate = "Data de Vencimento"
	labelAmount  = "Total a Recolher"

	// snippetWidth bounds the diagnostic context window per label.
	snippetWidth = 160

	paymentLineDigits = 48
)

var (
	// Payment line candidates. GNRE barcode lines start with 8 and carry 44
	// (printed) or 48 (digitable) digits, usually split into spaced groups
	// and often wrapped across lines.
	paymentLineRun    = regexp.MustCompile(`8(?:\s*\d){43,59}`)
	paymentLineGroups = regexp.MustCompile(`(?:\d{1,12}\s+){4,}\d{1,12}`)

	nonDigit = regexp.MustCompile(`\D`)

	// State: labeled form, then the looser "<UF> 100102" form that precedes
	// the GNRE revenue code on most state layouts.
	statePrimary  = regexp.MustCompile(`(?is)UF\s*Favorecida\s*:?\s*([A-Za-z]{2})\b`)
	stateFallback = regexp.MustCompile(`(?is)\b([A-Za-z]{2})\b\s+100102\b`)

	// Due date: non-greedy gap between label and date tolerates boxed
	// layouts that interleave other cells.
	dueDatePrimary  = regexp.MustCompile(`(?is)Data\s*de\s*Vencimento.*?(\d{2}/\d{2}/\d{4})`)
	dueDateFallback = regexp.MustCompile(`(?is)Vencimento.*?(\d{2}/\d{2}/\d{4})`)

	// Amount: BRL format with exactly two decimal digits, currency symbol
	// optional in the fallback.
	amountPrimary  = regexp.MustCompile(`(?is)Total\s*a\s*Recolher.*?R?\$?\s*([\d\.]+,\d{2})`)
	amountFallback = regexp.MustCompile(`(?is)Total\s*a\s*Recolher.*?([\d\.]+,\d{2})`)
)

// Extract recovers the four required guide fields from one page of text.
// Absence is reported as an empty field, never as an error.
func Extract(pageText string) Fields {
	return Fields{
		PaymentLine: extractPaymentLine(pageText),
		State:       extractState(pageText),
		DueDate:     firstGroup(pageText, dueDatePrimary, dueDateFallback),
		Amount:      firstGroup(pageText, amountPrimary, amountFallback),
		Snippets:    captureSnippets(pageText),
	}
}

// extractPaymentLine gathers every plausible rendering of the barcode line
// and settles on the one that recurs most often. Duplicate renderings of the
// true value outnumber spurious partial matches, so the vote is reliable
// where a first-match rule is not.
func extractPaymentLine(text string) string {
	var candidates []string
	for _, c := range paymentLineRun.FindAllString(text, -1) {
		candidates = appendCandidate(candidates, c)
	}
	for _, c := range paymentLineGroups.FindAllString(text, -1) {
		candidates = appendCandidate(candidates, c)
	}
	if len(candidates) == 0 {
		return ""
	}

	line := majority(candidates)

	// A 49-digit line carries a trailing check digit the bank layout does
	// not want; drop it. Any other length than 48 is a failed extraction.
	if len(line) == paymentLineDigits+1 {
		line = line[:paymentLineDigits]
	}
	if len(line) != paymentLineDigits {
		return ""
	}
	return line
}

func appendCandidate(candidates []string, raw string) []string {
	digits := OnlyDigits(raw)
	if strings.HasPrefix(digits, "8") && len(digits) >= 44 && len(digits) <= 60 {
		candidates = append(candidates, digits)
	}
	return candidates
}

// majority returns the most frequent string, ties broken by first occurrence.
func majority(candidates []string) string {
	counts := make(map[string]int, len(candidates))
	best := ""
	bestCount := 0
	for _, c := range candidates {
		counts[c]++
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return best
}

func extractState(text string) string {
	for _, re := range []*regexp.Regexp{statePrimary, stateFallback} {
		if m := re.FindStringSubmatch(text); m != nil {
			uf := strings.ToUpper(m[1])
			if models.IsValidState(uf) {
				return uf
			}
		}
	}
	return ""
}

func firstGroup(text string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// captureSnippets grabs a bounded context window after each known label so an
// operator can see why a pattern missed (reworded label, OCR corruption,
// missing section). Captured for every page; attached to failures only.
func captureSnippets(text string) map[string]string {
	snippets := make(map[string]string, 3)
	for _, label := range []string{labelState, labelDueDate, labelAmount} {
		if s, ok := snippet(text, label); ok {
			snippets[label] = s
		}
	}
	return snippets
}

func snippet(text, label string) (string, bool) {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(label))
	if idx < 0 {
		return "", false
	}
	end := idx + snippetWidth
	if end > len(text) {
		end = len(text)
	}
	return strings.ReplaceAll(text[idx:end], "\n", `\n`), true
}

// OnlyDigits strips every non-digit character from s.
func OnlyDigits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}
