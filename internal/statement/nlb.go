package statement

// NewNLB parses NLB Banka exports: semicolon-delimited, Cyrillic
// headers, decimal-comma amounts. Some exports carry one signed
// Износ column, others split Кредит/Дебит.
func NewNLB() Parser {
	return &delimitedParser{
		bankCode: "nlb",
		bankName: "NLB Banka",
		comma:    ';',
		columns: columnSpec{
			date:        "датум",
			amount:      "износ",
			credit:      "кредит",
			debit:       "дебит",
			currency:    "валута",
			description: "опис",
			reference:   "референца",
			partner:     "партнер",
			account:     "сметка",
		},
		required: []string{"датум"},
	}
}
