package statement

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mkfin/banking-backend/internal/errs"
)

// ParseAmount turns a bank export amount cell into a signed float.
// Both "1.234,56" (decimal-comma) and "1,234.56" (decimal-dot) are
// accepted: when both separators appear, the later one is the decimal
// point; a lone comma followed by at most two digits is a decimal
// comma, otherwise a thousands separator.
func ParseAmount(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "-" {
		return 0, errs.NewParseError("empty amount")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errs.NewParseError("unparseable amount " + raw)
	}
	return d.InexactFloat64(), nil
}
