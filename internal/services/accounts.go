package services

import (
	"context"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/models"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type accountListStore interface {
	List(ctx context.Context, companyID string) ([]*models.BankAccount, error)
	Get(ctx context.Context, companyID, accountID string) (*models.BankAccount, error)
}

type connectionListStore interface {
	List(ctx context.Context, companyID string) ([]*models.BankConnection, error)
}

type transactionListStore interface {
	ListByAccount(ctx context.Context, companyID, accountID string, limit int) ([]*models.BankTransaction, error)
}

type accountService struct {
	accounts    accountListStore
	connections connectionListStore
	txs         transactionListStore
}

func NewAccountService(accounts accountListStore, connections connectionListStore, txs transactionListStore) *accountService {
	return &accountService{accounts: accounts, connections: connections, txs: txs}
}

// ListAccounts returns the company's accounts with their connection,
// IBAN masked for display.
func (s *accountService) ListAccounts(ctx context.Context, companyID string) ([]dto.AccountListing, error) {
	accounts, err := s.accounts.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	connections, err := s.connections.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	// Active connection per bank, for display alongside the account.
	connByBank := map[string]string{}
	for _, conn := range connections {
		if conn.Status == models.ConnectionActive {
			connByBank[conn.ProviderKey] = conn.ConnectionID
		}
	}

	listings := make([]dto.AccountListing, 0, len(accounts))
	for _, a := range accounts {
		connectionID := a.ConnectionID
		if connectionID == "" {
			connectionID = connByBank[a.BankCode]
		}
		listings = append(listings, dto.AccountListing{
			ConnectionID: connectionID,
			BankCode:     a.BankCode,
			BankName:     a.BankName,
			AccountID:    a.AccountID,
			IBAN:         a.MaskedIBAN(),
			Balance:      a.Balance,
			Currency:     a.Currency,
			Active:       a.Active,
		})
	}
	return listings, nil
}

// ListTransactions returns an account's most recent transactions,
// failing closed when the account belongs to another company.
func (s *accountService) ListTransactions(ctx context.Context, companyID, accountID string, limit int) ([]*models.BankTransaction, error) {
	if _, err := s.accounts.Get(ctx, companyID, accountID); err != nil {
		return nil, err
	}
	return s.txs.ListByAccount(ctx, companyID, accountID, limit)
}
