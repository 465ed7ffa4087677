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

type cipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// Token material never touches Firestore in the clear; access and
// refresh tokens are run through KMS on every write and read.
type tokenStore struct {
	client *firestore.Client
	cipher cipher
}

func NewTokenStore(client *firestore.Client, cipher cipher) *tokenStore {
	return &tokenStore{client: client, cipher: cipher}
}

func (s *tokenStore) collection(companyID string) *firestore.CollectionRef {
	return s.client.Collection("companies").Doc(companyID).Collection("bank_tokens")
}

// Set replaces the token wholesale; refresh never patches fields.
func (s *tokenStore) Set(ctx context.Context, companyID string, token *models.BankToken) error {
	encrypted := *token
	var err error
	if encrypted.AccessToken, err = s.cipher.Encrypt(ctx, token.AccessToken); err != nil {
		return err
	}
	if token.RefreshToken != "" {
		if encrypted.RefreshToken, err = s.cipher.Encrypt(ctx, token.RefreshToken); err != nil {
			return err
		}
	}

	now := time.Now()
	if encrypted.CreatedAt.IsZero() {
		encrypted.CreatedAt = now
	}
	encrypted.UpdatedAt = now

	_, err = s.collection(companyID).Doc(token.BankCode).Set(ctx, &encrypted)
	return err
}

func (s *tokenStore) Get(ctx context.Context, companyID, bankCode string) (*models.BankToken, error) {
	doc, err := s.collection(companyID).Doc(bankCode).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("bank token not found")
	}
	if err != nil {
		return nil, err
	}

	var t models.BankToken
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	if t.AccessToken, err = s.cipher.Decrypt(ctx, t.AccessToken); err != nil {
		return nil, err
	}
	if t.RefreshToken != "" {
		if t.RefreshToken, err = s.cipher.Decrypt(ctx, t.RefreshToken); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (s *tokenStore) Delete(ctx context.Context, companyID, bankCode string) error {
	_, err := s.collection(companyID).Doc(bankCode).Delete(ctx)
	return err
}
