package orcamento

import (
	"math"
	"strconv"
	"strings"
)

// MaxCentavos is the largest amount accepted for a single price, discount or payment
// (R$ 1 trilhão). Sums of bounded values stay far from int64 overflow.
const MaxCentavos int64 = 100_000_000_000_000

// addCentavos sums two non-negative amounts, saturating instead of wrapping around.
func addCentavos(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// ParseCentavos converts pt-BR formatted input ("1.234,56", "R$ 10,5", "250") into integer cents.
// Empty input is zero. Negative values and amounts above MaxCentavos are rejected.
func ParseCentavos(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	var intPart, fracPart string
	if i := strings.LastIndex(s, ","); i >= 0 {
		intPart = strings.ReplaceAll(s[:i], ".", "")
		fracPart = s[i+1:]
	} else if i := strings.LastIndex(s, "."); i >= 0 && len(s)-i-1 <= 2 {
		// "10.5" typed with a dot: a trailing group of 1-2 digits can't be a thousands group.
		intPart = strings.ReplaceAll(s[:i], ".", "")
		fracPart = s[i+1:]
	} else {
		intPart = strings.ReplaceAll(s, ".", "")
	}
	if len(fracPart) > 2 || !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	reais, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || reais > MaxCentavos/100 {
		return 0, ErrInvalidAmount
	}
	cents, _ := strconv.ParseInt(fracPart, 10, 64)
	total := reais*100 + cents
	if total > MaxCentavos {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatBRL renders cents as "R$ 1.234,56".
func FormatBRL(centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	reais := strconv.FormatInt(centavos/100, 10)
	var b strings.Builder
	for i, r := range reais {
		if i > 0 && (len(reais)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	cents := centavos % 100
	frac := strconv.FormatInt(cents, 10)
	if cents < 10 {
		frac = "0" + frac
	}
	return sign + "R$ " + b.String() + "," + frac
}
