package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/fingerprint"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/pkg/logger"
)

// RawTransaction is a source-agnostic transaction row on its way into
// storage; both the statement parsers and the PSD2 sync feed these.
type RawTransaction struct {
	ExternalID       string
	Date             time.Time
	Amount           float64
	Currency         string
	Description      string
	CounterpartyName string
	CreditorIBAN     string
	CreditorAccount  string
	DebtorIBAN       string
	DebtorAccount    string
}

// --- Dependencies (minimal interfaces scoped to this service) ---

type transactionIngestStore interface {
	Create(ctx context.Context, companyID string, tx *models.BankTransaction) error
	ExistsByExternalReference(ctx context.Context, companyID, accountID, externalReference string) (bool, error)
}

type ingestService struct {
	txs      transactionIngestStore
	events   EventSink
	clockNow func() time.Time
}

func NewIngestService(txs transactionIngestStore, events EventSink) *ingestService {
	return &ingestService{
		txs:      txs,
		events:   events,
		clockNow: time.Now,
	}
}

// IngestCounts is what one batch produced: rows persisted and rows
// dropped as already-known.
type IngestCounts struct {
	Imported   int
	Duplicates int
}

// Ingest fingerprints, dedups, and persists a batch against one
// account. Duplicates are a deliberate no-op outcome, never an error.
func (s *ingestService) Ingest(ctx context.Context, companyID string, account *models.BankAccount, raws []RawTransaction, source string) (IngestCounts, error) {
	log := logger.FromContext(ctx)
	counts := IngestCounts{}

	for _, raw := range raws {
		if raw.ExternalID != "" {
			exists, err := s.txs.ExistsByExternalReference(ctx, companyID, account.AccountID, raw.ExternalID)
			if err != nil {
				return counts, err
			}
			if exists {
				counts.Duplicates++
				continue
			}
		}

		tx := s.buildTransaction(companyID, account, raw, source)
		err := s.txs.Create(ctx, companyID, tx)
		var dup *errs.AlreadyExistsError
		if errors.As(err, &dup) {
			counts.Duplicates++
			continue
		}
		if err != nil {
			return counts, err
		}
		counts.Imported++
	}

	if counts.Imported > 0 {
		s.events.Publish(ctx, Event{
			Type:      EventTransactionIngested,
			CompanyID: companyID,
			At:        s.clockNow(),
			Payload: map[string]any{
				"account_id": account.AccountID,
				"source":     source,
				"imported":   counts.Imported,
				"duplicates": counts.Duplicates,
			},
		})
	}
	log.Info("batch ingested",
		"account_id", account.AccountID,
		"source", source,
		"imported", counts.Imported,
		"duplicates", counts.Duplicates,
	)
	return counts, nil
}

func (s *ingestService) buildTransaction(companyID string, account *models.BankAccount, raw RawTransaction, source string) *models.BankTransaction {
	currency := raw.Currency
	if currency == "" {
		currency = account.Currency
	}

	fp := fingerprint.Generate(fingerprint.Input{
		CompanyID:       companyID,
		AccountID:       account.AccountID,
		ExternalID:      raw.ExternalID,
		Date:            raw.Date,
		Amount:          strconv.FormatFloat(raw.Amount, 'f', -1, 64),
		Currency:        currency,
		Description:     raw.Description,
		CreditorIBAN:    raw.CreditorIBAN,
		CreditorAccount: raw.CreditorAccount,
		DebtorIBAN:      raw.DebtorIBAN,
		DebtorAccount:   raw.DebtorAccount,
	})

	counterpartyAccount := raw.CreditorIBAN
	for _, candidate := range []string{raw.CreditorAccount, raw.DebtorIBAN, raw.DebtorAccount} {
		if counterpartyAccount != "" {
			break
		}
		counterpartyAccount = candidate
	}

	return &models.BankTransaction{
		Fingerprint:         fp,
		AccountID:           account.AccountID,
		ExternalReference:   raw.ExternalID,
		Amount:              raw.Amount,
		Currency:            currency,
		TransactionDate:     raw.Date.Format("2006-01-02"),
		Description:         raw.Description,
		CounterpartyName:    raw.CounterpartyName,
		CounterpartyAccount: counterpartyAccount,
		Source:              source,
		CreatedAt:           s.clockNow(),
	}
}
