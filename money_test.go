package main

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain display total", "R$ 15,00", 1500},
		{"no currency prefix", "15,00", 1500},
		{"whole reais only", "20", 2000},
		{"single decimal digit", "R$ 15,5", 1550},
		{"thousands separator", "R$ 1.234,56", 123456},
		{"surrounding text", "Total: R$ 7,50 (3 apostas)", 750},
		{"two-digit bet count", "Total: R$ 7,50 (12 apostas)", 750},
		{"bet count after whole amount", "R$ 20 (4 apostas)", 2000},
		{"whitespace and newlines", "  R$\n42,00  ", 4200},
		{"zero", "R$ 0,00", 0},
		{"comma thousands noise", "1,234,56", 123456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if err != nil {
				t.Fatalf("ParseMoney(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMoneyInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no digits", "R$ --"},
		{"words only", "total indisponível"},
		{"three decimal digits", "R$ 15,005"},
		{"trailing comma", "15,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseMoney(tt.input); err == nil {
				t.Errorf("ParseMoney(%q) = %d, want error", tt.input, got)
			}
		})
	}
}

func TestNormalizeMoney(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"R$ 1.234,56", "1234,56"},
		{"15,00", "15,00"},
		{"abc", ""},
		{"R$ 20", "20"},
		{"Total: R$ 7,50 (3 apostas)", "7,50"},
		{"15,", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMoney(tt.input); got != tt.want {
			t.Errorf("NormalizeMoney(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		centavos int64
		want     string
	}{
		{1500, "R$ 15,00"},
		{1550, "R$ 15,50"},
		{5, "R$ 0,05"},
		{123456, "R$ 1234,56"},
		{0, "R$ 0,00"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.centavos); got != tt.want {
			t.Errorf("FormatMoney(%d) = %q, want %q", tt.centavos, got, tt.want)
		}
	}
}

func TestParseMoneyRoundTrip(t *testing.T) {
	for _, centavos := range []int64{0, 1, 99, 100, 1500, 123456} {
		parsed, err := ParseMoney(FormatMoney(centavos))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", centavos, err)
		}
		if parsed != centavos {
			t.Errorf("round trip of %d = %d", centavos, parsed)
		}
	}
}
