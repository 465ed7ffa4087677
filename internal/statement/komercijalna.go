package statement

// NewKomercijalna parses Komercijalna Banka exports: tab-delimited,
// split debit (Задолжување) and credit (Одобрување) columns, document
// number as the reference.
func NewKomercijalna() Parser {
	return &delimitedParser{
		bankCode: "komercijalna",
		bankName: "Komercijalna Banka",
		comma:    '\t',
		columns: columnSpec{
			date:        "датум",
			credit:      "одобрување",
			debit:       "задолжување",
			currency:    "валута",
			description: "опис",
			reference:   "бројнадокумент",
			partner:     "назив",
			account:     "сметка",
		},
		required: []string{"датум", "задолжување"},
	}
}
