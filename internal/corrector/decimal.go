package corrector

import (
	"strconv"
	"strings"
)

// ParseDecimal converts a CMAD numeric string to a float64. The documents
// use either a comma or a dot as the decimal mark, sometimes with spaces or
// dots as thousands separators ("1.234.567,89", "12,25000", "1 234,5").
//
// The contract is deliberately permissive: empty input yields 0, and
// irrecoverable garbage yields 0 with ok=false so the caller can log a
// diagnostic. A single bad field must never abort a whole document, so this
// function has no error return and never panics.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "") // non-breaking space

	// More than one dot left: everything before the last dot is thousands
	// grouping ("1.234.567.89" -> "1234567.89").
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + "." + s[last+1:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatDecimal renders a value with a fixed number of decimals and a comma
// as the decimal mark, the documents' native convention. TAUX_FACTURE is
// always written with 4 decimals.
func FormatDecimal(v float64, decimals int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",", 1)
}
