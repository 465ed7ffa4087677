package models

import (
	"strings"
	"time"
)

// BankAccount is a real-world account discovered at a bank, scoped to a
// company. Created on first discovery (sync) or first manual import.
type BankAccount struct {
	AccountID     string    `firestore:"accountId" json:"accountId"` // doc ID
	ConnectionID  string    `firestore:"connectionId" json:"connectionId,omitempty"`
	BankCode      string    `firestore:"bankCode" json:"bankCode"`
	BankName      string    `firestore:"bankName" json:"bankName,omitempty"`
	ExternalID    string    `firestore:"externalId" json:"externalId,omitempty"` // provider resource id, correlates repeated syncs
	AccountNumber string    `firestore:"accountNumber" json:"accountNumber"`
	IBAN          string    `firestore:"iban" json:"iban,omitempty"`
	BIC           string    `firestore:"bic" json:"bic,omitempty"`
	Name          string    `firestore:"name" json:"name,omitempty"`
	Currency      string    `firestore:"currency" json:"currency"`
	Balance       float64   `firestore:"balance" json:"balance"`
	Active        bool      `firestore:"active" json:"active"`
	LastSyncedAt  time.Time `firestore:"lastSyncedAt" json:"lastSyncedAt,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// MaskedIBAN returns the IBAN with all but the first four and last four
// characters replaced, for listings and logs.
func (a *BankAccount) MaskedIBAN() string {
	if len(a.IBAN) <= 8 {
		return a.IBAN
	}
	return a.IBAN[:4] + strings.Repeat("*", len(a.IBAN)-8) + a.IBAN[len(a.IBAN)-4:]
}
