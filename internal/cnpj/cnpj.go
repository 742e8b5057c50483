// Package cnpj formats and validates Brazilian CNPJ numbers
// (the national registry for legal entities).
package cnpj

import "strings"

// Digits strips everything but decimal digits, capped at the 14
// digits a CNPJ can hold. Extra typed digits are ignored.
func Digits(s string) string {
	d := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(d) > 14 {
		d = d[:14]
	}
	return d
}

// Format re-punctuates a CNPJ to its canonical form NN.NNN.NNN/NNNN-NN.
// Partial input gets partial punctuation, so it can be applied on every
// keystroke. Format is idempotent: Format(Format(s)) == Format(s).
func Format(s string) string {
	d := Digits(s)
	var b strings.Builder
	b.Grow(18)
	for i := 0; i < len(d); i++ {
		switch i {
		case 2, 5:
			b.WriteByte('.')
		case 8:
			b.WriteByte('/')
		case 12:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// Valid reports whether s is a complete, check-digit-valid CNPJ.
// Punctuation is ignored; repeated-digit sequences are rejected.
func Valid(s string) bool {
	d := Digits(s)
	if len(d) != 14 {
		return false
	}
	allSame := true
	for i := 1; i < 14; i++ {
		if d[i] != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	if checkDigit(d[:12]) != int(d[12]-'0') {
		return false
	}
	return checkDigit(d[:13]) == int(d[13]-'0')
}

// checkDigit computes the modulus-11 verification digit over the
// given prefix (12 digits for the first, 13 for the second).
func checkDigit(prefix string) int {
	weight := len(prefix) - 7 // 5 for the first digit, 6 for the second
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}
