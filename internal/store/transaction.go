package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
)

// Transactions are keyed by their fingerprint, so inserting the same
// logical transaction twice fails with AlreadyExists at the storage
// layer. That makes concurrent syncs of the same connection safe
// without a distributed lock.
type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection(companyID string) *firestore.CollectionRef {
	return s.client.Collection("companies").Doc(companyID).Collection("bank_transactions")
}

// Create inserts a transaction. A duplicate fingerprint returns
// AlreadyExistsError, which ingestion counts rather than reports.
func (s *transactionStore) Create(ctx context.Context, companyID string, tx *models.BankTransaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := s.collection(companyID).Doc(tx.Fingerprint).Create(ctx, tx)
	if status.Code(err) == codes.AlreadyExists {
		return errs.NewAlreadyExistsError("transaction already recorded")
	}
	return err
}

// ExistsByExternalReference checks whether an account already holds a
// transaction with the given source-supplied reference.
func (s *transactionStore) ExistsByExternalReference(ctx context.Context, companyID, accountID, externalReference string) (bool, error) {
	docs, err := s.collection(companyID).
		Where("accountId", "==", accountID).
		Where("externalReference", "==", externalReference).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

func (s *transactionStore) ListByAccount(ctx context.Context, companyID, accountID string, limit int) ([]*models.BankTransaction, error) {
	q := s.collection(companyID).
		Where("accountId", "==", accountID).
		OrderBy("transactionDate", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var txs []*models.BankTransaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var t models.BankTransaction
		if err := doc.DataTo(&t); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, nil
}
