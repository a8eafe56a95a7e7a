package utils

import (
	"fmt"
	"strings"
	"time"
)

// GenerateEAN13 produces a time-derived EAN-13 barcode for products saved
// without one. The first 12 digits come from the current unix millisecond
// timestamp; the 13th is the EAN check digit.
func GenerateEAN13() string {
	return GenerateEAN13From(time.Now())
}

// GenerateEAN13From derives the barcode from an explicit instant. Batch
// generation advances the instant per product so codes stay unique within
// one run.
func GenerateEAN13From(t time.Time) string {
	base := fmt.Sprintf("%d", t.UnixMilli())
	if len(base) > 11 {
		base = base[len(base)-11:]
	}
	digits := strings.Repeat("0", 12-len(base)) + base
	return digits + fmt.Sprintf("%d", ean13CheckDigit(digits))
}

// ValidEAN13 reports whether code is a well-formed EAN-13 barcode.
func ValidEAN13(code string) bool {
	if len(code) != 13 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return int(code[12]-'0') == ean13CheckDigit(code[:12])
}

// ean13CheckDigit computes the check digit for the first 12 digits: odd
// positions weigh 1, even positions weigh 3.
func ean13CheckDigit(digits string) int {
	total := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 0 {
			total += d
		} else {
			total += d * 3
		}
	}
	return (10 - total%10) % 10
}
