package models

import (
	"time"
)

// BankConnection statuses.
const (
	ConnectionPending = "pending"
	ConnectionActive  = "active"
	ConnectionExpired = "expired"
	ConnectionRevoked = "revoked"
)

// BankConnection is one company's authorization relationship with one
// BankProvider. It is the unit of rate limiting and of company isolation.
type BankConnection struct {
	ConnectionID string         `firestore:"connectionId" json:"connectionId"` // doc ID
	ProviderKey  string         `firestore:"providerKey" json:"providerKey"`
	Status       string         `firestore:"status" json:"status"`
	State        string         `firestore:"state" json:"-"` // opaque OAuth state binding the callback
	CreatedBy    string         `firestore:"createdBy" json:"createdBy"` // uid of the user who started the flow
	Metadata     map[string]any `firestore:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `firestore:"createdAt" json:"createdAt"`
	ConnectedAt  time.Time      `firestore:"connectedAt" json:"connectedAt,omitempty"`
	UpdatedAt    time.Time      `firestore:"updatedAt" json:"updatedAt"`
}

func (c *BankConnection) IsActive() bool {
	return c.Status == ConnectionActive
}
