package statement

import (
	"strings"
	"time"
)

// Column label patterns matched by the fallback parser, normalized.
// Macedonian banks mix Latin, Cyrillic, and English labels freely.
var genericColumns = map[string][]string{
	"date":        {"date", "datum", "датум", "data", "transactiondate"},
	"amount":      {"amount", "iznos", "износ", "suma", "сума", "value", "total"},
	"credit":      {"credit", "kredit", "кредит", "прилив", "одобрување", "inflow", "deposit"},
	"debit":       {"debit", "дебит", "одлив", "задолжување", "outflow", "withdrawal"},
	"description": {"description", "opis", "опис", "purpose", "цел", "details", "note"},
	"reference":   {"reference", "referenca", "референца", "ref", "broj", "број", "number", "id"},
	"partner":     {"counterparty", "partner", "партнер", "name", "naziv", "назив", "sender", "receiver", "примач", "испраќач"},
	"account":     {"account", "smetka", "сметка", "iban", "partneraccount"},
	"currency":    {"currency", "valuta", "валута", "curr", "ccy"},
}

// genericParser is the fallback for unknown delimited exports. It
// auto-detects the delimiter from the header line and maps columns by
// fuzzy label match.
type genericParser struct {
	detected rune
}

func NewGeneric() Parser {
	return &genericParser{detected: ','}
}

func (p *genericParser) BankCode() string { return "generic" }
func (p *genericParser) BankName() string { return "Generic Bank" }
func (p *genericParser) Delimiter() rune  { return p.detected }

func (p *genericParser) CanParse(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	p.detected = detectDelimiter(content)
	header, err := readHeader(content, p.detected)
	if err != nil {
		return false
	}
	return len(header) >= 2
}

func (p *genericParser) Parse(content string) ([]Record, error) {
	p.detected = detectDelimiter(content)
	rows, err := readRows(content, p.detected)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range rows {
		mapped := autoMap(row)
		rec, ok := mapGeneric(mapped)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// detectDelimiter picks the candidate producing the most columns on
// the header line.
func detectDelimiter(content string) rune {
	firstLine := content
	if i := strings.IndexAny(content, "\r\n"); i >= 0 {
		firstLine = content[:i]
	}

	best, bestCount := ',', 0
	for _, candidate := range []rune{';', ',', '\t', '|'} {
		if n := strings.Count(firstLine, string(candidate)); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

// Field matching order; specific fields first so a label like
// "partner account" does not land on the looser patterns.
var genericFieldOrder = []string{
	"date", "amount", "credit", "debit", "currency",
	"reference", "account", "partner", "description",
}

// autoMap relabels a row's cells onto the canonical field names by
// matching each header label against the known patterns. First match
// wins; an already-filled field is not overwritten.
func autoMap(row map[string]string) map[string]string {
	mapped := map[string]string{}
	for label, value := range row {
		for _, field := range genericFieldOrder {
			if mapped[field] != "" {
				continue
			}
			matched := false
			for _, pattern := range genericColumns[field] {
				if label == pattern || strings.Contains(label, pattern) {
					mapped[field] = value
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return mapped
}

func mapGeneric(mapped map[string]string) (Record, bool) {
	var amount float64
	switch {
	case mapped["amount"] != "":
		a, err := ParseAmount(mapped["amount"])
		if err != nil {
			return Record{}, false
		}
		amount = a
	case mapped["credit"] != "":
		a, err := ParseAmount(mapped["credit"])
		if err != nil {
			return Record{}, false
		}
		amount = a
	case mapped["debit"] != "":
		a, err := ParseAmount(mapped["debit"])
		if err != nil {
			return Record{}, false
		}
		amount = -a
	}
	if amount == 0 {
		return Record{}, false
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := mapped["date"]; raw != "" {
		if d, err := ParseDate(raw); err == nil {
			date = d
		}
	}

	currency := mapped["currency"]
	if currency == "" {
		currency = defaultCurrency
	}

	return Record{
		Date:                date,
		Amount:              amount,
		Currency:            currency,
		Description:         mapped["description"],
		Reference:           mapped["reference"],
		CounterpartyName:    mapped["partner"],
		CounterpartyAccount: mapped["account"],
	}, true
}
