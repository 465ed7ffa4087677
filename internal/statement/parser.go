package statement

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one normalized transaction row out of a statement file.
// Amount is signed: credit positive, debit negative.
type Record struct {
	Date                time.Time
	Amount              float64
	Currency            string
	Description         string
	Reference           string
	CounterpartyName    string
	CounterpartyAccount string
}

// Parser is one bank format strategy. CanParse probes raw content,
// Parse returns the rows in file order. Rows with a zero, blank, or
// unparseable amount are skipped, not reported as errors; ragged
// exports routinely carry blank trailer lines.
type Parser interface {
	CanParse(content string) bool
	BankCode() string
	BankName() string
	Delimiter() rune
	Parse(content string) ([]Record, error)
}

var lower = cases.Lower(language.Und)

// normalizeColumn strips everything that is not a letter or digit in
// any script and lower-cases the rest, so "Број на документ" and
// "бројнадокумент" compare equal.
func normalizeColumn(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return lower.String(b.String())
}
