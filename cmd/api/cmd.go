package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/mkfin/banking-backend/internal/bootstrap"
	psd2client "github.com/mkfin/banking-backend/internal/client/psd2"
	"github.com/mkfin/banking-backend/internal/config"
	"github.com/mkfin/banking-backend/internal/crypto"
	"github.com/mkfin/banking-backend/internal/handlers"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/response"
	"github.com/mkfin/banking-backend/internal/router"
	"github.com/mkfin/banking-backend/internal/services"
	"github.com/mkfin/banking-backend/internal/store"
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
	accserv := services.NewAccountService(astore, cstore, txstore)
	impserv := services.NewImportService(astore, ingest)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.TokenSvc = tokserv
	deps.SyncSvc = syncserv
	deps.ProviderSvc = pstore
	deps.AccountSvc = accserv
	deps.ImportSvc = impserv

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":8080", r)
	exitOnError("server start failed", err, bs.Log)
}
