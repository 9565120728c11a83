package models

// Guide represents one complete GNRE tax guide recovered from a document page.
// All four fields resolved; immutable once built.
type Guide struct {
	Page        int    `json:"page"`
	State       string `json:"state"`                 // 2-letter UF code
	DueDate     string `json:"dueDate"`               // dd/mm/yyyy as printed on the guide
	Amount      string `json:"amount"`                // BRL, e.g. "1.234,56"
	PaymentLine string `json:"paymentLine"`           // exactly 48 digits
}

// FieldName identifies one of the four required guide fields.
type FieldName string

const (
	FieldPaymentLine FieldName = "paymentLine"
	FieldState       FieldName = "state"
	FieldDueDate     FieldName = "dueDate"
	FieldAmount      FieldName = "amount"
)

// ExtractionFailure describes a page where at least one required field could
// not be recovered. Produced for operator inspection only; never encoded.
type ExtractionFailure struct {
	Page               int               `json:"page"`
	MissingFields      []FieldName       `json:"missingFields"`
	PartialValues      map[string]string `json:"partialValues,omitempty"`
	DiagnosticSnippets map[string]string `json:"diagnosticSnippets,omitempty"`
}

// PayerProfile holds the fixed payer identity stamped into every CNAB file.
// Supplied by configuration, constant for the life of a run.
type PayerProfile struct {
	BankCode     string // 3 digits
	TaxpayerID   string // CNPJ, 14 digits
	Agency       string
	Account      string
	AccountDigit string
	LegalName    string
	BankName     string
}

// validStates is the closed set of 26 Brazilian states plus the federal
// district. Extraction discards any 2-letter match outside this set.
var validStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// IsValidState reports whether uf is one of the 27 valid UF codes.
func IsValidState(uf string) bool {
	return validStates[uf]
}
