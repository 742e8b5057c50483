package cnpj_test

import (
	"testing"

	"github.com/notainsight/nota-insight-bff-go/internal/cnpj"
)

func TestFormat_Canonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12345678000195", "12.345.678/0001-95"},
		{"12.345.678/0001-95", "12.345.678/0001-95"},
		{"12 345 678 0001 95", "12.345.678/0001-95"},
		{"", ""},
		{"1", "1"},
		{"12", "12"},
		{"123", "12.3"},
		{"123456", "12.345.6"},
		{"123456789", "12.345.678/9"},
		{"1234567800019", "12.345.678/0001-9"},
		{"abc", ""},
		{"123456780001955555", "12.345.678/0001-95"}, // extra digits ignored
	}
	for _, c := range cases {
		if got := cnpj.Format(c.in); got != c.want {
			t.Errorf("Format(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Applying the formatter to its own output must yield the same string,
// for complete and partial inputs alike.
func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		"12345678000195",
		"112223330001",
		"11.222.333/0001-81",
		"1",
		"",
		"9999",
		"nota 123 fiscal 456",
	}
	for _, in := range inputs {
		once := cnpj.Format(in)
		twice := cnpj.Format(once)
		if once != twice {
			t.Errorf("Format not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestValid(t *testing.T) {
	valid := []string{
		"11.222.333/0001-81",
		"11222333000181",
		"12.345.678/0001-95",
	}
	for _, v := range valid {
		if !cnpj.Valid(v) {
			t.Errorf("Valid(%q) = false, want true", v)
		}
	}

	invalid := []string{
		"",
		"123",
		"12.345.678/0001-90", // wrong check digits
		"11222333000182",     // wrong second digit
		"11111111111111",     // repeated digits
		"00000000000000",
		"1122233300018", // 13 digits
	}
	for _, v := range invalid {
		if cnpj.Valid(v) {
			t.Errorf("Valid(%q) = true, want false", v)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := cnpj.Digits("11.222.333/0001-81"); got != "11222333000181" {
		t.Errorf("Digits = %q", got)
	}
	if got := cnpj.Digits("112223330001815555"); got != "11222333000181" {
		t.Errorf("Digits should cap at 14, got %q", got)
	}
}
