package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	delimiter      = "|"
	descriptionMax = 100
)

var lower = cases.Lower(language.Und)

// Input is the slice of a transaction that participates in identity.
// All fields are optional; missing values are treated as empty strings.
type Input struct {
	CompanyID       string
	AccountID       string
	ExternalID      string
	Date            time.Time
	Amount          string
	Currency        string
	Description     string
	CreditorIBAN    string
	CreditorAccount string
	DebtorIBAN      string
	DebtorAccount   string
}

// Generate returns a 64-character lowercase hex digest identifying the
// transaction. When the source supplied an external id, only
// (company, external id) participate, so the same logical transaction
// imported through a different channel lands on the same digest. When
// it did not, a composite of the normalized fields is hashed instead.
func Generate(in Input) string {
	if in.ExternalID != "" {
		return digest(in.CompanyID + delimiter + in.ExternalID)
	}
	parts := []string{
		in.CompanyID,
		in.AccountID,
		normalizeDate(in.Date),
		NormalizeAmount(in.Amount),
		in.Currency,
		NormalizeDescription(in.Description),
		counterparty(in),
	}
	return digest(strings.Join(parts, delimiter))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func normalizeDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// NormalizeAmount collapses numeric representation differences into a
// fixed two-decimal string, sign preserved. Unparseable input is
// returned trimmed, so it still hashes deterministically.
func NormalizeAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}

// NormalizeDescription lower-cases the text preserving non-Latin
// scripts, strips everything that is not a letter or digit in any
// script, collapses whitespace, and truncates to 100 runes.
func NormalizeDescription(raw string) string {
	var b strings.Builder
	for _, r := range lower.String(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(collapsed)
	if len(runes) > descriptionMax {
		return string(runes[:descriptionMax])
	}
	return collapsed
}

func counterparty(in Input) string {
	for _, v := range []string{in.CreditorIBAN, in.CreditorAccount, in.DebtorIBAN, in.DebtorAccount} {
		if v != "" {
			return v
		}
	}
	return ""
}
