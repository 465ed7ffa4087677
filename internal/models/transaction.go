package models

import (
	"time"
)

// Transaction sources.
const (
	SourcePSD2       = "psd2"
	SourceFileImport = "file_import"
)

// BankTransaction is one ledger line, scoped to (company, account).
// Created once and never mutated; corrections are modeled as offsetting
// transactions. The fingerprint doubles as the document ID, which makes
// duplicate inserts fail closed at the storage layer.
type BankTransaction struct {
	Fingerprint         string    `firestore:"fingerprint" json:"fingerprint"` // doc ID
	AccountID           string    `firestore:"accountId" json:"accountId"`
	ExternalReference   string    `firestore:"externalReference" json:"externalReference,omitempty"`
	Amount              float64   `firestore:"amount" json:"amount"` // signed: credit positive, debit negative
	Currency            string    `firestore:"currency" json:"currency"`
	TransactionDate     string    `firestore:"transactionDate" json:"transactionDate"` // YYYY-MM-DD
	Description         string    `firestore:"description" json:"description,omitempty"`
	CounterpartyName    string    `firestore:"counterpartyName" json:"counterpartyName,omitempty"`
	CounterpartyAccount string    `firestore:"counterpartyAccount" json:"counterpartyAccount,omitempty"`
	Source              string    `firestore:"source" json:"source"`
	CreatedAt           time.Time `firestore:"createdAt" json:"createdAt"`
}

// Credit reports whether the transaction is an inflow.
func (t *BankTransaction) Credit() bool {
	return t.Amount > 0
}
