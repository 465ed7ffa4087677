package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkfin/banking-backend/internal/bootstrap"
	psd2client "github.com/mkfin/banking-backend/internal/client/psd2"
	"github.com/mkfin/banking-backend/internal/config"
	"github.com/mkfin/banking-backend/internal/crypto"
	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/queue"
	"github.com/mkfin/banking-backend/internal/services"
	"github.com/mkfin/banking-backend/internal/store"
)

const (
	syncInterval    = 24 * time.Hour
	queueSize       = 256
	shutdownGrace   = 30 * time.Second
	scheduleTimeout = time.Minute
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)

	// stores
	pstore := store.NewProviderStore(bs.Firestore)
	cstore := store.NewConnectionStore(bs.Firestore)
	tkstore := store.NewTokenStore(bs.Firestore, kmsHelper)
	astore := store.NewAccountStore(bs.Firestore)
	txstore := store.NewTransactionStore(bs.Firestore)
	secrets := store.NewProviderSecretsStore(bs.SecretManager, cfg.ProjectID)

	// services
	ingest := services.NewIngestService(txstore, services.NewLogSink())
	tokserv := services.NewTokenService(pstore, cstore, tkstore, secrets,
		func(p *models.BankProvider) services.TokenRevoker { return psd2client.NewClient(p, nil) },
		cfg.OAuthRedirectURL, cfg.ProviderEnv)
	syncserv := services.NewSyncService(pstore, cstore, astore, tokserv, ingest,
		func(p *models.BankProvider) services.PSD2Gateway { return psd2client.NewClient(p, nil) })

	// worker pool
	pool := queue.NewPool(cfg.SyncWorkers, queueSize, bs.Log)
	pool.Start()

	// schedule one round immediately, then on every tick
	scheduleSyncs(cstore, syncserv, pool, cfg.SyncLookbackDays, bs.Log)

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			scheduleSyncs(cstore, syncserv, pool, cfg.SyncLookbackDays, bs.Log)
		case sig := <-stop:
			bs.Log.Info("shutting down", "signal", sig.String())
			pool.Shutdown(shutdownGrace)
			return
		}
	}
}

type connectionLister interface {
	ListActiveAcrossCompanies(ctx context.Context) ([]store.CompanyConnection, error)
}

type connectionSyncer interface {
	SyncConnection(ctx context.Context, companyID, bankCode, accountID string, lookbackDays, maxTransactions int) (dto.SyncResult, error)
}

// scheduleSyncs enqueues one sync job per active connection.
func scheduleSyncs(conns connectionLister, syncSvc connectionSyncer, pool *queue.Pool, lookbackDays int, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduleTimeout)
	defer cancel()

	active, err := conns.ListActiveAcrossCompanies(ctx)
	if err != nil {
		log.Error("failed to list active connections", "error", err)
		return
	}

	jobs := make([]queue.Job, 0, len(active))
	for _, cc := range active {
		jobs = append(jobs, queue.NewConnectionSyncJob(cc.CompanyID, cc.Connection.ProviderKey, lookbackDays, syncSvc))
	}
	pool.SubmitBatch(jobs)
}
