package queue

import (
	"context"
	"fmt"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/pkg/logger"
)

type connectionSyncer interface {
	SyncConnection(ctx context.Context, companyID, bankCode, accountID string, lookbackDays, maxTransactions int) (dto.SyncResult, error)
}

// ConnectionSyncJob pulls one company's connection through a full API
// sync.
type ConnectionSyncJob struct {
	companyID    string
	bankCode     string
	lookbackDays int
	syncSvc      connectionSyncer
}

func NewConnectionSyncJob(companyID, bankCode string, lookbackDays int, syncSvc connectionSyncer) *ConnectionSyncJob {
	return &ConnectionSyncJob{
		companyID:    companyID,
		bankCode:     bankCode,
		lookbackDays: lookbackDays,
		syncSvc:      syncSvc,
	}
}

func (j *ConnectionSyncJob) Execute(ctx context.Context) error {
	result, err := j.syncSvc.SyncConnection(ctx, j.companyID, j.bankCode, "", j.lookbackDays, 0)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	if result.AccountsFailed > 0 {
		log.Warn("sync completed with failed accounts",
			"accounts_synced", result.AccountsSynced,
			"accounts_failed", result.AccountsFailed)
		return fmt.Errorf("sync completed with %d failed accounts", result.AccountsFailed)
	}
	return nil
}

func (j *ConnectionSyncJob) CompanyID() string { return j.companyID }

func (j *ConnectionSyncJob) Description() string {
	return fmt.Sprintf("connection sync for bank %s", j.bankCode)
}
