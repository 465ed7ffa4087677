package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/mkfin/banking-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	TokenSvc        tokenLifecycle
	SyncSvc         syncRunner
	ProviderSvc     providerCatalog
	AccountSvc      accountReader
	ImportSvc       statementImporter
	Firebase        *auth.Client
}
