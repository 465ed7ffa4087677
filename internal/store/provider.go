package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
)

// Bank providers are reference data shared by all companies, so they
// live in a top-level collection.
type providerStore struct {
	client *firestore.Client
}

func NewProviderStore(client *firestore.Client) *providerStore {
	return &providerStore{client: client}
}

func (s *providerStore) collection() *firestore.CollectionRef {
	return s.client.Collection("bank_providers")
}

func (s *providerStore) Get(ctx context.Context, key string) (*models.BankProvider, error) {
	doc, err := s.collection().Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("bank provider not found")
	}
	if err != nil {
		return nil, err
	}
	var p models.BankProvider
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *providerStore) ListActive(ctx context.Context) ([]*models.BankProvider, error) {
	docs, err := s.collection().Where("active", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	providers := make([]*models.BankProvider, 0, len(docs))
	for _, d := range docs {
		var p models.BankProvider
		if err := d.DataTo(&p); err != nil {
			return nil, err
		}
		providers = append(providers, &p)
	}
	return providers, nil
}
