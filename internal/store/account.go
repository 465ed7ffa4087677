package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
)

type accountStore struct {
	client *firestore.Client
}

func NewAccountStore(client *firestore.Client) *accountStore {
	return &accountStore{client: client}
}

func (s *accountStore) collection(companyID string) *firestore.CollectionRef {
	return s.client.Collection("companies").Doc(companyID).Collection("bank_accounts")
}

func (s *accountStore) Set(ctx context.Context, companyID string, account *models.BankAccount) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	_, err := s.collection(companyID).Doc(account.AccountID).Set(ctx, account)
	return err
}

func (s *accountStore) Get(ctx context.Context, companyID, accountID string) (*models.BankAccount, error) {
	doc, err := s.collection(companyID).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("bank account not found")
	}
	if err != nil {
		return nil, err
	}
	var a models.BankAccount
	if err := doc.DataTo(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByNumber finds an account by its bank-side account number; repeat
// syncs key on (company, account number).
func (s *accountStore) GetByNumber(ctx context.Context, companyID, accountNumber string) (*models.BankAccount, error) {
	docs, err := s.collection(companyID).
		Where("accountNumber", "==", accountNumber).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errs.NewNotFoundError("bank account not found")
	}
	var a models.BankAccount
	if err := docs[0].DataTo(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *accountStore) List(ctx context.Context, companyID string) ([]*models.BankAccount, error) {
	docs, err := s.collection(companyID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	accounts := make([]*models.BankAccount, 0, len(docs))
	for _, d := range docs {
		var a models.BankAccount
		if err := d.DataTo(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

func (s *accountStore) ListByConnection(ctx context.Context, companyID, connectionID string) ([]*models.BankAccount, error) {
	docs, err := s.collection(companyID).
		Where("connectionId", "==", connectionID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	accounts := make([]*models.BankAccount, 0, len(docs))
	for _, d := range docs {
		var a models.BankAccount
		if err := d.DataTo(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}
