package dto

// PSD2Account is one account as the provider reports it.
type PSD2Account struct {
	ResourceID string
	IBAN       string
	BBAN       string
	BIC        string
	Name       string
	Currency   string
	Balance    float64
	Status     string
}

// PSD2Transaction is one booked entry as the provider reports it.
// Amount keeps the provider's sign convention: credits positive.
type PSD2Transaction struct {
	TransactionID string
	BookingDate   string // YYYY-MM-DD
	ValueDate     string
	Amount        float64
	Currency      string
	Description   string
	CreditorName  string
	CreditorIBAN  string
	DebtorName    string
	DebtorIBAN    string
}

// PSD2TransactionPage is one page from the provider's transaction
// listing.
type PSD2TransactionPage struct {
	Transactions []PSD2Transaction
	HasMore      bool
}
