package extractor

import (
	"strings"
	"testing"
)

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{
			"real guide text",
			[]string{"Guia Nacional de Recolhimento de Tributos Estaduais\nUF Favorecida: SP\nData de Vencimento: 12/05/2024\nTotal a Recolher R$ 1.234,56"},
			true,
		},
		{
			"too short",
			[]string{"GNRE"},
			false,
		},
		{
			"binary garbage",
			[]string{strings.Repeat("\x01\x02\xfe\xff", 100)},
			false,
		},
		{
			"readable but no guide words",
			[]string{strings.Repeat("lorem ipsum dolor sit amet consectetur ", 5)},
			false,
		},
		{
			"empty",
			nil,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isReadableText(tt.pages)
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTextQuality(t *testing.T) {
	if q := textQuality([]string{"Total a Recolher 1.234,56"}); q < 0.99 {
		t.Errorf("clean text quality: got %f, want ~1.0", q)
	}

	// Accented Portuguese counts as readable
	if q := textQuality([]string{"Situação: emissão válida"}); q < 0.99 {
		t.Errorf("accented text quality: got %f, want ~1.0", q)
	}

	if q := textQuality([]string{strings.Repeat("\x00\x01", 50)}); q > 0.1 {
		t.Errorf("garbage quality: got %f, want ~0", q)
	}

	if q := textQuality(nil); q != 0 {
		t.Errorf("empty quality: got %f, want 0", q)
	}
}

func TestContainsCommonWords(t *testing.T) {
	if !containsCommonWords([]string{"DATA DE VENCIMENTO 01/01/2025"}) {
		t.Error("uppercase guide words must match")
	}
	if containsCommonWords([]string{"completely unrelated english text"}) {
		t.Error("text without guide words must not match")
	}
}
