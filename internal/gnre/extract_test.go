package gnre

import (
	"strings"
	"testing"
)

// line48 is a well-formed digitable payment line: 48 digits starting with 8.
var line48 = "8" + strings.Repeat("1234567", 6) + "12345"

func TestLine48Fixture(t *testing.T) {
	if len(line48) != 48 {
		t.Fatalf("fixture is %d digits, want 48", len(line48))
	}
}

func guidePage(line string) string {
	return `Guia Nacional de Recolhimento de Tributos Estaduais - GNRE
UF Favorecida: SP
Codigo da Receita: 100102
Data de Vencimento: 12/05/2024
Documento de Origem: 123456
Total a Recolher R$ 1.234,56
Linha digitavel:
` + line + `
Pague ate o vencimento.`
}

func TestExtract_CompletePage(t *testing.T) {
	f := Extract(guidePage(line48))

	if f.State != "SP" {
		t.Errorf("state: got %q, want %q", f.State, "SP")
	}
	if f.DueDate != "12/05/2024" {
		t.Errorf("due date: got %q, want %q", f.DueDate, "12/05/2024")
	}
	if f.Amount != "1.234,56" {
		t.Errorf("amount: got %q, want %q", f.Amount, "1.234,56")
	}
	if f.PaymentLine != line48 {
		t.Errorf("payment line: got %q, want %q", f.PaymentLine, line48)
	}
}

func TestExtract_EmptyPage(t *testing.T) {
	f := Extract("nothing recognizable on this page at all")

	if f.PaymentLine != "" || f.State != "" || f.DueDate != "" || f.Amount != "" {
		t.Errorf("expected all fields missing, got %+v", f)
	}
}

func TestExtractPaymentLine(t *testing.T) {
	// Spaced digit groups, as the barcode line is actually rendered
	var grouped strings.Builder
	for i := 0; i < len(line48); i += 4 {
		if i > 0 {
			grouped.WriteString(" ")
		}
		grouped.WriteString(line48[i : i+4])
	}

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"contiguous 48 digits", line48, line48},
		{"spaced digit groups", grouped.String(), line48},
		{"wrapped across lines", grouped.String()[:29] + "\n" + grouped.String()[30:], line48},
		{"49 digits drops trailing check digit", line48 + "9", line48},
		{"47 digits rejected, not padded", line48[:47], ""},
		{"does not start with 8", "7" + line48[1:], ""},
		{"no digits at all", "Documento sem linha digitavel", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractPaymentLine(tt.text)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractPaymentLine_MajorityVote(t *testing.T) {
	corrupted := line48 + "77" // 50-digit OCR artifact

	// Three renderings of the true line against one corrupted variant,
	// separated by label text so the runs don't merge.
	text := "Linha digitavel: " + line48 + "\n" +
		"Autenticacao: " + corrupted + "\n" +
		"Linha digitavel: " + line48 + "\n" +
		"Linha digitavel: " + line48 + "\n"

	got := extractPaymentLine(text)
	if got != line48 {
		t.Errorf("majority vote: got %q, want %q", got, line48)
	}
}

func TestExtractPaymentLine_TieBreaksFirstSeen(t *testing.T) {
	other := "8" + strings.Repeat("7654321", 6) + "76543"
	text := "Linha digitavel: " + line48 + "\n" +
		"Linha digitavel: " + other + "\n"

	got := extractPaymentLine(text)
	if got != line48 {
		t.Errorf("tie break: got %q, want first-seen %q", got, line48)
	}
}

func TestExtractState(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"labeled", "UF Favorecida: SP", "SP"},
		{"labeled no colon", "UF Favorecida MG 100102", "MG"},
		{"labeled lowercase", "uf favorecida: rj", "RJ"},
		{"fallback revenue code", "Pagamento DF 100102 ICMS", "DF"},
		{"invalid code discarded", "UF Favorecida: XX", ""},
		{"no state", "Guia de recolhimento", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractState(tt.text)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractDueDateAndAmount(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantDate   string
		wantAmount string
	}{
		{
			"strict labels",
			"Data de Vencimento: 12/05/2024\nTotal a Recolher R$ 1.234,56",
			"12/05/2024", "1.234,56",
		},
		{
			"label and value separated by table noise",
			"Data de Vencimento | Periodo | 31/01/2025\nTotal a Recolher | juros | 10,00",
			"31/01/2025", "10,00",
		},
		{
			"fallback vencimento only",
			"Vencimento em 01/02/2025",
			"01/02/2025", "",
		},
		{
			"amount without currency symbol",
			"Total a Recolher: 987,65",
			"", "987,65",
		},
		{
			"nothing",
			"pagina em branco",
			"", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.text)
			if f.DueDate != tt.wantDate {
				t.Errorf("due date: got %q, want %q", f.DueDate, tt.wantDate)
			}
			if f.Amount != tt.wantAmount {
				t.Errorf("amount: got %q, want %q", f.Amount, tt.wantAmount)
			}
		})
	}
}

func TestSnippets(t *testing.T) {
	text := "cabecalho\nUF Favorecida: ??\nmais texto depois do rotulo"
	f := Extract(text)

	snip, ok := f.Snippets[labelState]
	if !ok {
		t.Fatal("expected a snippet for the state label")
	}
	if strings.Contains(snip, "\n") {
		t.Errorf("snippet must escape newlines: %q", snip)
	}
	if !strings.HasPrefix(snip, "UF Favorecida") {
		t.Errorf("snippet must start at the label: %q", snip)
	}

	if _, ok := f.Snippets[labelDueDate]; ok {
		t.Error("no due-date label in text, snippet should be absent")
	}
}

func TestSnippetBounded(t *testing.T) {
	text := "Total a Recolher " + strings.Repeat("x", 500)
	f := Extract(text)

	snip := f.Snippets[labelAmount]
	if len(snip) > snippetWidth {
		t.Errorf("snippet length %d exceeds bound %d", len(snip), snippetWidth)
	}
}
