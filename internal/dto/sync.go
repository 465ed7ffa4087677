package dto

// SyncAccountResult is the outcome of syncing one account.
type SyncAccountResult struct {
	AccountID  string `json:"accountId"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Pages      int    `json:"pages"`
	Err        string `json:"error,omitempty"`
}

// SyncResult is the outcome of one sync run for one connection.
type SyncResult struct {
	ConnectionID   string              `json:"connectionId"`
	AccountsSynced int                 `json:"accountsSynced"`
	AccountsFailed int                 `json:"accountsFailed"`
	Imported       int                 `json:"imported"`
	Duplicates     int                 `json:"duplicates"`
	Accounts       []SyncAccountResult `json:"accounts,omitempty"`
}

// AccountListing is one row of the account list surface.
type AccountListing struct {
	ConnectionID string  `json:"connectionId,omitempty"`
	BankCode     string  `json:"bankCode"`
	BankName     string  `json:"bankName,omitempty"`
	AccountID    string  `json:"accountId"`
	IBAN         string  `json:"iban,omitempty"`
	Balance      float64 `json:"balance"`
	Currency     string  `json:"currency"`
	Active       bool    `json:"active"`
}

// ImportResult is the outcome of one statement file import.
type ImportResult struct {
	AccountID  string `json:"accountId"`
	BankCode   string `json:"bankCode"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
}
