package statement

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/mkfin/banking-backend/internal/errs"
)

const defaultCurrency = "MKD"

// columnSpec names a bank export's columns by their normalized header
// labels. Amount is either one signed column or a credit/debit pair.
type columnSpec struct {
	date        string
	amount      string
	credit      string
	debit       string
	currency    string
	description string
	reference   string
	partner     string
	account     string
}

// delimitedParser is the shared strategy behind the per-bank text
// parsers. Each bank contributes its delimiter, header labels, and the
// columns it requires for a positive CanParse.
type delimitedParser struct {
	bankCode string
	bankName string
	comma    rune
	columns  columnSpec
	required []string
}

func (p *delimitedParser) BankCode() string { return p.bankCode }
func (p *delimitedParser) BankName() string { return p.bankName }
func (p *delimitedParser) Delimiter() rune  { return p.comma }

func (p *delimitedParser) CanParse(content string) bool {
	header, err := readHeader(content, p.comma)
	if err != nil {
		return false
	}
	if len(header) < 2 {
		return false
	}
	for _, want := range p.required {
		if _, ok := header[want]; !ok {
			return false
		}
	}
	return true
}

func (p *delimitedParser) Parse(content string) ([]Record, error) {
	rows, err := readRows(content, p.comma)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range rows {
		rec, ok := p.mapRow(row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// mapRow turns one header-keyed row into a Record. A zero, blank, or
// unparseable amount drops the row.
func (p *delimitedParser) mapRow(row map[string]string) (Record, bool) {
	amount, ok := p.resolveAmount(row)
	if !ok || amount == 0 {
		return Record{}, false
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := row[p.columns.date]; raw != "" {
		if d, err := ParseDate(raw); err == nil {
			date = d
		}
	}

	currency := row[p.columns.currency]
	if currency == "" {
		currency = defaultCurrency
	}

	return Record{
		Date:                date,
		Amount:              amount,
		Currency:            currency,
		Description:         strings.TrimSpace(row[p.columns.description]),
		Reference:           strings.TrimSpace(row[p.columns.reference]),
		CounterpartyName:    strings.TrimSpace(row[p.columns.partner]),
		CounterpartyAccount: strings.TrimSpace(row[p.columns.account]),
	}, true
}

// resolveAmount applies the signed-amount rule: a single amount column
// is taken literally; with a credit/debit pair, credit is positive and
// debit negative.
func (p *delimitedParser) resolveAmount(row map[string]string) (float64, bool) {
	if p.columns.amount != "" {
		if raw := strings.TrimSpace(row[p.columns.amount]); raw != "" {
			a, err := ParseAmount(raw)
			if err != nil {
				return 0, false
			}
			return a, true
		}
	}
	if credit := strings.TrimSpace(row[p.columns.credit]); credit != "" {
		a, err := ParseAmount(credit)
		if err != nil {
			return 0, false
		}
		return a, true
	}
	if debit := strings.TrimSpace(row[p.columns.debit]); debit != "" {
		a, err := ParseAmount(debit)
		if err != nil {
			return 0, false
		}
		return -a, true
	}
	return 0, false
}

// readHeader returns the first row as a normalized-label → position map.
func readHeader(content string, comma rune) (map[string]int, error) {
	r := newReader(content, comma)
	row, err := r.Read()
	if err != nil {
		return nil, errs.NewParseError("missing header row")
	}
	header := make(map[string]int, len(row))
	for i, cell := range row {
		header[normalizeColumn(cell)] = i
	}
	return header, nil
}

// readRows returns every data row keyed by its normalized header label.
func readRows(content string, comma rune) ([]map[string]string, error) {
	r := newReader(content, comma)
	raw, err := r.Read()
	if err != nil {
		return nil, errs.NewParseError("missing header row")
	}
	header := make([]string, len(raw))
	for i, cell := range raw {
		header[i] = normalizeColumn(cell)
	}

	var rows []map[string]string
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged line, skip it and keep going.
			continue
		}
		row := make(map[string]string, len(header))
		for i, label := range header {
			if i < len(cells) {
				row[label] = strings.TrimSpace(cells[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func newReader(content string, comma rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(content, "\ufeff")))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}
