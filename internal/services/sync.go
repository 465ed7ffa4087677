package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	psd2client "github.com/mkfin/banking-backend/internal/client/psd2"
	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/pkg/logger"
)

const (
	DefaultLookbackDays = 30

	// Hard ceiling on pages fetched per account; a provider that keeps
	// reporting more is misbehaving.
	maxPagesPerAccount = 100

	// Inter-account pacing refill matching the 15 req/min ceiling.
	interAccountInterval = 4 * time.Second
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type providerSyncStore interface {
	Get(ctx context.Context, key string) (*models.BankProvider, error)
}

type connectionSyncStore interface {
	List(ctx context.Context, companyID string) ([]*models.BankConnection, error)
	Update(ctx context.Context, companyID string, conn *models.BankConnection) error
}

type accountSyncStore interface {
	Set(ctx context.Context, companyID string, account *models.BankAccount) error
	Get(ctx context.Context, companyID, accountID string) (*models.BankAccount, error)
	GetByNumber(ctx context.Context, companyID, accountNumber string) (*models.BankAccount, error)
	List(ctx context.Context, companyID string) ([]*models.BankAccount, error)
}

type tokenSyncProvider interface {
	GetValidToken(ctx context.Context, companyID, bankCode string) (*models.BankToken, error)
}

type syncIngestor interface {
	Ingest(ctx context.Context, companyID string, account *models.BankAccount, raws []RawTransaction, source string) (IngestCounts, error)
}

// PSD2Gateway is the provider data surface, constructed per provider.
type PSD2Gateway interface {
	ListAccounts(ctx context.Context, accessToken string) ([]dto.PSD2Account, error)
	ListTransactions(ctx context.Context, accessToken, resourceID string, q psd2client.TransactionQuery) (dto.PSD2TransactionPage, error)
}

type syncService struct {
	providers   providerSyncStore
	connections connectionSyncStore
	accounts    accountSyncStore
	tokens      tokenSyncProvider
	ingest      syncIngestor
	newGateway  func(provider *models.BankProvider) PSD2Gateway
	clockNow    func() time.Time

	// pause spaces account-level provider call groups; a token bucket
	// sized to the provider ceiling rather than a fixed sleep.
	pause func(ctx context.Context) error
}

func NewSyncService(
	providers providerSyncStore,
	connections connectionSyncStore,
	accounts accountSyncStore,
	tokens tokenSyncProvider,
	ingest syncIngestor,
	newGateway func(provider *models.BankProvider) PSD2Gateway,
) *syncService {
	limiter := rate.NewLimiter(rate.Every(interAccountInterval), 1)
	return &syncService{
		providers:   providers,
		connections: connections,
		accounts:    accounts,
		tokens:      tokens,
		ingest:      ingest,
		newGateway:  newGateway,
		clockNow:    time.Now,
		pause:       limiter.Wait,
	}
}

// SyncConnection runs one API sync for (company, bank), optionally
// narrowed to one local account. Account failures are isolated;
// authorization failures abort the whole job.
func (s *syncService) SyncConnection(ctx context.Context, companyID, bankCode, accountID string, lookbackDays, maxTransactions int) (dto.SyncResult, error) {
	log := logger.FromContext(ctx).With("company_id", companyID, "bank_code", bankCode)
	ctx = logger.ToContext(ctx, log)
	result := dto.SyncResult{}

	provider, err := s.providers.Get(ctx, bankCode)
	if err != nil {
		return result, err
	}
	if !provider.Active {
		return result, errs.NewProviderConfigError(bankCode, "bank provider is not active")
	}

	token, err := s.tokens.GetValidToken(ctx, companyID, bankCode)
	if err != nil {
		log.Warn("sync aborted, no valid token")
		return result, err
	}

	var wanted *models.BankAccount
	if accountID != "" {
		wanted, err = s.accounts.Get(ctx, companyID, accountID)
		if err != nil {
			return result, err
		}
	}

	gateway := s.newGateway(provider)
	remote, err := gateway.ListAccounts(ctx, token.AccessToken)
	if err != nil {
		return result, err
	}
	log.Info("sync started", "remote_accounts", len(remote))

	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	cutoff := s.clockNow().AddDate(0, 0, -lookbackDays)

	seen := map[string]bool{}
	paused := false
	for i, remoteAccount := range remote {
		number := accountNumber(remoteAccount)
		if wanted != nil && number != wanted.AccountNumber {
			continue
		}
		seen[number] = true

		// Space account-level call groups to honor the provider's
		// request-rate ceiling. The first account goes immediately.
		if i > 0 && paused {
			if err := s.pause(ctx); err != nil {
				return result, err
			}
		}

		accResult := s.syncAccount(ctx, companyID, provider, gateway, token.AccessToken, remoteAccount, cutoff, maxTransactions)
		result.Accounts = append(result.Accounts, accResult.SyncAccountResult)
		result.Imported += accResult.Imported
		result.Duplicates += accResult.Duplicates
		if accResult.Err != "" {
			result.AccountsFailed++
		} else {
			result.AccountsSynced++
		}
		paused = accResult.Imported > 0

		if accResult.authFailed {
			log.Warn("sync aborted, provider rejected the token mid-job")
			return result, errs.NewAuthExpiredError(bankCode, "authorization failed during sync")
		}
	}

	if wanted == nil {
		s.deactivateMissing(ctx, companyID, bankCode, seen)
		s.stampConnection(ctx, companyID, bankCode, len(remote), &result)
	}

	log.Info("sync finished",
		"accounts_synced", result.AccountsSynced,
		"accounts_failed", result.AccountsFailed,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
	)
	return result, nil
}

// accountSyncOutcome separates an auth failure, which aborts the whole
// job, from ordinary per-account failures, which are isolated.
type accountSyncOutcome struct {
	dto.SyncAccountResult
	authFailed bool
}

func (s *syncService) syncAccount(
	ctx context.Context,
	companyID string,
	provider *models.BankProvider,
	gateway PSD2Gateway,
	accessToken string,
	remote dto.PSD2Account,
	cutoff time.Time,
	maxTransactions int,
) (out accountSyncOutcome) {
	log := logger.FromContext(ctx)

	account, err := s.findOrCreateAccount(ctx, companyID, provider, remote)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.AccountID = account.AccountID

	raws, pages, err := s.fetchTransactions(ctx, gateway, accessToken, remote, cutoff, maxTransactions)
	out.Pages = pages
	if err != nil {
		var authErr *errs.AuthExpiredError
		out.authFailed = errors.As(err, &authErr)
		out.Err = err.Error()
		log.Warn("account sync failed", "account_id", account.AccountID, "error", err.Error())
		return out
	}

	counts, err := s.ingest.Ingest(ctx, companyID, account, raws, models.SourcePSD2)
	out.Imported = counts.Imported
	out.Duplicates = counts.Duplicates
	if err != nil {
		out.Err = err.Error()
		return out
	}

	account.Balance = remote.Balance
	account.Active = true
	account.LastSyncedAt = s.clockNow()
	if err := s.accounts.Set(ctx, companyID, account); err != nil {
		out.Err = err.Error()
	}
	return out
}

func (s *syncService) fetchTransactions(
	ctx context.Context,
	gateway PSD2Gateway,
	accessToken string,
	remote dto.PSD2Account,
	cutoff time.Time,
	maxTransactions int,
) ([]RawTransaction, int, error) {
	var raws []RawTransaction
	pages := 0

	q := psd2client.TransactionQuery{
		DateFrom: cutoff,
		DateTo:   s.clockNow(),
		Limit:    psd2client.MaxPageSize,
	}
	for pages < maxPagesPerAccount {
		page, err := gateway.ListTransactions(ctx, accessToken, remote.ResourceID, q)
		if err != nil {
			return raws, pages, err
		}
		pages++

		for _, tx := range page.Transactions {
			raw, ok := toRawTransaction(tx, cutoff)
			if !ok {
				continue
			}
			raws = append(raws, raw)
			if maxTransactions > 0 && len(raws) >= maxTransactions {
				return raws, pages, nil
			}
		}
		if !page.HasMore {
			break
		}
		q.Offset += q.Limit
	}
	return raws, pages, nil
}

// toRawTransaction converts a provider row, discarding anything before
// the lookback cutoff.
func toRawTransaction(tx dto.PSD2Transaction, cutoff time.Time) (RawTransaction, bool) {
	dateStr := tx.BookingDate
	if dateStr == "" {
		dateStr = tx.ValueDate
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil || date.Before(cutoff.Truncate(24*time.Hour)) {
		return RawTransaction{}, false
	}

	counterparty := tx.CreditorName
	if counterparty == "" {
		counterparty = tx.DebtorName
	}
	return RawTransaction{
		ExternalID:       tx.TransactionID,
		Date:             date,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		Description:      tx.Description,
		CounterpartyName: counterparty,
		CreditorIBAN:     tx.CreditorIBAN,
		DebtorIBAN:       tx.DebtorIBAN,
	}, true
}

// findOrCreateAccount keys local accounts on (company, account number).
func (s *syncService) findOrCreateAccount(ctx context.Context, companyID string, provider *models.BankProvider, remote dto.PSD2Account) (*models.BankAccount, error) {
	number := accountNumber(remote)
	account, err := s.accounts.GetByNumber(ctx, companyID, number)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		account = &models.BankAccount{
			AccountID:     uuid.NewString(),
			BankCode:      provider.Key,
			BankName:      provider.Name,
			ExternalID:    remote.ResourceID,
			AccountNumber: number,
			IBAN:          remote.IBAN,
			BIC:           remote.BIC,
			Name:          remote.Name,
			Currency:      remote.Currency,
			Active:        true,
			CreatedAt:     s.clockNow(),
		}
		if err := s.accounts.Set(ctx, companyID, account); err != nil {
			return nil, err
		}
		return account, nil
	}
	if err != nil {
		return nil, err
	}
	if account.ExternalID == "" {
		account.ExternalID = remote.ResourceID
	}
	return account, nil
}

// deactivateMissing marks accounts the bank no longer lists as
// inactive; history is kept, nothing is deleted.
func (s *syncService) deactivateMissing(ctx context.Context, companyID, bankCode string, seen map[string]bool) {
	accounts, err := s.accounts.List(ctx, companyID)
	if err != nil {
		return
	}
	for _, account := range accounts {
		if account.BankCode != bankCode || !account.Active || seen[account.AccountNumber] {
			continue
		}
		account.Active = false
		if err := s.accounts.Set(ctx, companyID, account); err != nil {
			logger.FromContext(ctx).Warn("failed to deactivate missing account",
				"account_id", account.AccountID, "error", err.Error())
		}
	}
}

// stampConnection records the discovered account count on the active
// connection and surfaces its id in the result.
func (s *syncService) stampConnection(ctx context.Context, companyID, bankCode string, accountCount int, result *dto.SyncResult) {
	conns, err := s.connections.List(ctx, companyID)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if conn.ProviderKey != bankCode || !conn.IsActive() {
			continue
		}
		result.ConnectionID = conn.ConnectionID
		if conn.Metadata == nil {
			conn.Metadata = map[string]any{}
		}
		conn.Metadata["accountCount"] = accountCount
		if err := s.connections.Update(ctx, companyID, conn); err != nil {
			logger.FromContext(ctx).Warn("failed to update connection metadata",
				"connection_id", conn.ConnectionID, "error", err.Error())
		}
		return
	}
}

func accountNumber(remote dto.PSD2Account) string {
	if remote.BBAN != "" {
		return remote.BBAN
	}
	return remote.IBAN
}
