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

type connectionStore struct {
	client *firestore.Client
}

func NewConnectionStore(client *firestore.Client) *connectionStore {
	return &connectionStore{client: client}
}

func (s *connectionStore) collection(companyID string) *firestore.CollectionRef {
	return s.client.Collection("companies").Doc(companyID).Collection("bank_connections")
}

func (s *connectionStore) Create(ctx context.Context, companyID string, conn *models.BankConnection) error {
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	_, err := s.collection(companyID).Doc(conn.ConnectionID).Create(ctx, conn)
	return err
}

func (s *connectionStore) Get(ctx context.Context, companyID, connectionID string) (*models.BankConnection, error) {
	doc, err := s.collection(companyID).Doc(connectionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("bank connection not found")
	}
	if err != nil {
		return nil, err
	}
	var c models.BankConnection
	if err := doc.DataTo(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByState resolves the OAuth callback's state parameter back to the
// pending connection it was minted for.
func (s *connectionStore) GetByState(ctx context.Context, companyID, state string) (*models.BankConnection, error) {
	docs, err := s.collection(companyID).
		Where("state", "==", state).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errs.NewNotFoundError("no connection matches the callback state")
	}
	var c models.BankConnection
	if err := docs[0].DataTo(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *connectionStore) List(ctx context.Context, companyID string) ([]*models.BankConnection, error) {
	docs, err := s.collection(companyID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	conns := make([]*models.BankConnection, 0, len(docs))
	for _, d := range docs {
		var c models.BankConnection
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		conns = append(conns, &c)
	}
	return conns, nil
}

// CompanyConnection pairs a connection with the company that owns it,
// for callers working across the whole tenant tree.
type CompanyConnection struct {
	CompanyID  string
	Connection *models.BankConnection
}

// ListActiveAcrossCompanies returns every active connection in every
// company, via a collection group query. The owning company is read
// back off the document path.
func (s *connectionStore) ListActiveAcrossCompanies(ctx context.Context) ([]CompanyConnection, error) {
	docs, err := s.client.CollectionGroup("bank_connections").
		Where("status", "==", models.ConnectionActive).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	conns := make([]CompanyConnection, 0, len(docs))
	for _, d := range docs {
		var c models.BankConnection
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		conns = append(conns, CompanyConnection{
			CompanyID:  d.Ref.Parent.Parent.ID,
			Connection: &c,
		})
	}
	return conns, nil
}

func (s *connectionStore) Update(ctx context.Context, companyID string, conn *models.BankConnection) error {
	conn.UpdatedAt = time.Now()
	_, err := s.collection(companyID).Doc(conn.ConnectionID).Set(ctx, conn)
	return err
}
