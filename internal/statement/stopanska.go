package statement

// NewStopanska parses Stopanska Banka exports: comma-delimited,
// Cyrillic headers, decimal-dot amounts.
func NewStopanska() Parser {
	return &delimitedParser{
		bankCode: "stopanska",
		bankName: "Stopanska Banka",
		comma:    ',',
		columns: columnSpec{
			date:        "датум",
			amount:      "износ",
			currency:    "валута",
			description: "опис",
			reference:   "референца",
			partner:     "партнер",
			account:     "сметка",
		},
		required: []string{"датум", "износ"},
	}
}
