package statement

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkfin/banking-backend/internal/errs"
)

// Tag :61: payload: value date, optional entry date, debit/credit
// mark, optional funds code letter, amount, optional transaction type,
// rest (bank reference after //).
var (
	mt940TxLine  = regexp.MustCompile(`^(\d{6})(\d{4})?(R?[CD])([A-Z])?([0-9,]+)(N[A-Z0-9]{3})?(.*)$`)
	mt940Balance = regexp.MustCompile(`^([CD])(\d{6})([A-Z]{3})([0-9,]+)`)
	mt940RefPart = regexp.MustCompile(`//([A-Z0-9-]+)`)
)

// mt940Parser understands the SWIFT tagged-line statement format.
// Opening and closing balances (:60F:/:62F:) are used only to
// cross-validate the statement, never stored.
type mt940Parser struct{}

func NewMT940() Parser {
	return &mt940Parser{}
}

func (p *mt940Parser) BankCode() string { return "mt940" }
func (p *mt940Parser) BankName() string { return "SWIFT MT940" }
func (p *mt940Parser) Delimiter() rune  { return 0 }

func (p *mt940Parser) CanParse(content string) bool {
	return strings.Contains(content, ":20:") && strings.Contains(content, ":61:")
}

func (p *mt940Parser) Parse(content string) ([]Record, error) {
	if !strings.Contains(content, ":61:") {
		// Delimited-text variant some banks hand out instead of the
		// tagged SWIFT form, with Latin column headers.
		return p.delimitedVariant().Parse(content)
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var (
		records       []Record
		opening       *decimal.Decimal
		closing       *decimal.Decimal
		inDescription bool
	)

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			inDescription = false
			continue
		}

		switch {
		case strings.HasPrefix(line, ":61:"):
			inDescription = false
			rec, ok := parseMT940Transaction(strings.TrimPrefix(line, ":61:"))
			if !ok {
				continue
			}
			records = append(records, rec)

		case strings.HasPrefix(line, ":86:"):
			if len(records) > 0 {
				appendDescription(&records[len(records)-1], strings.TrimSpace(strings.TrimPrefix(line, ":86:")))
				inDescription = true
			}

		case strings.HasPrefix(line, ":60F:"):
			inDescription = false
			opening = parseMT940Balance(strings.TrimPrefix(line, ":60F:"))

		case strings.HasPrefix(line, ":62F:"):
			inDescription = false
			closing = parseMT940Balance(strings.TrimPrefix(line, ":62F:"))

		case strings.HasPrefix(line, ":"):
			// :20:, :25:, :28C: and friends carry statement metadata
			// that does not land on individual records.
			inDescription = false

		case inDescription:
			if len(records) > 0 {
				appendDescription(&records[len(records)-1], strings.TrimSpace(line))
			}
		}
	}

	if err := crossValidate(opening, closing, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (p *mt940Parser) delimitedVariant() Parser {
	return &delimitedParser{
		bankCode: p.BankCode(),
		bankName: p.BankName(),
		comma:    ',',
		columns: columnSpec{
			date:        "datum",
			amount:      "iznos",
			currency:    "valuta",
			description: "opis",
			reference:   "referenca",
			partner:     "partner",
			account:     "smetka",
		},
		required: []string{"datum", "iznos"},
	}
}

func appendDescription(rec *Record, text string) {
	if text == "" {
		return
	}
	if rec.Description == "" {
		rec.Description = text
		return
	}
	rec.Description += " " + text
}

func parseMT940Transaction(payload string) (Record, bool) {
	m := mt940TxLine.FindStringSubmatch(payload)
	if m == nil {
		return Record{}, false
	}

	amount, err := ParseAmount(m[5])
	if err != nil || amount == 0 {
		return Record{}, false
	}
	if strings.HasSuffix(m[3], "D") {
		amount = -amount
	}

	rec := Record{
		Amount:   amount,
		Currency: defaultCurrency,
		Date:     parseMT940Date(m[1]),
	}
	if ref := mt940RefPart.FindStringSubmatch(m[7]); ref != nil {
		rec.Reference = ref[1]
	}
	return rec, true
}

// parseMT940Date expands a YYMMDD value date; two-digit years above 70
// belong to the previous century.
func parseMT940Date(yymmdd string) time.Time {
	prefix := "20"
	if yymmdd[:2] > "70" {
		prefix = "19"
	}
	d, err := time.Parse("20060102", prefix+yymmdd)
	if err != nil {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return d
}

func parseMT940Balance(payload string) *decimal.Decimal {
	m := mt940Balance.FindStringSubmatch(payload)
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[4], ",", "."))
	if err != nil {
		return nil
	}
	if m[1] == "D" {
		d = d.Neg()
	}
	return &d
}

// crossValidate checks opening balance plus the statement's movements
// against the closing balance when both are present.
func crossValidate(opening, closing *decimal.Decimal, records []Record) error {
	if opening == nil || closing == nil {
		return nil
	}
	sum := *opening
	for _, rec := range records {
		sum = sum.Add(decimal.NewFromFloat(rec.Amount))
	}
	if !sum.Equal(*closing) {
		return errs.NewParseError("statement balance mismatch: opening plus movements " + sum.String() + " does not match closing " + closing.String())
	}
	return nil
}
