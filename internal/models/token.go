package models

import (
	"time"
)

// RefreshWindow is how close to expiry a token may get before
// GetValidToken refreshes it synchronously.
const RefreshWindow = 5 * time.Minute

// BankToken is the access/refresh credential pair for one
// (company, bank code) pair. Owned by the token service; the sync
// orchestrator never reads it directly. Token material is stored
// KMS-encrypted and decrypted on read.
type BankToken struct {
	BankCode     string    `firestore:"bankCode" json:"bankCode"` // doc ID
	AccessToken  string    `firestore:"accessToken" json:"-"`
	RefreshToken string    `firestore:"refreshToken" json:"-"`
	TokenType    string    `firestore:"tokenType" json:"tokenType"`
	Scope        string    `firestore:"scope" json:"scope"`
	ExpiresAt    time.Time `firestore:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the access token is already past expiry.
func (t *BankToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// ExpiringSoon reports whether the token is inside the refresh window.
func (t *BankToken) ExpiringSoon(now time.Time) bool {
	return t.Expired(now.Add(RefreshWindow))
}
