package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/middleware"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/response"
	"github.com/mkfin/banking-backend/internal/statement"
)

type tokenLifecycle interface {
	StartAuthorization(ctx context.Context, companyID, providerKey, uid string) (string, *models.BankConnection, error)
	CompleteAuthorization(ctx context.Context, companyID, code, state string) (*models.BankConnection, error)
	Revoke(ctx context.Context, companyID, connectionID string) error
}

type syncRunner interface {
	SyncConnection(ctx context.Context, companyID, bankCode, accountID string, lookbackDays, maxTransactions int) (dto.SyncResult, error)
}

type providerCatalog interface {
	ListActive(ctx context.Context) ([]*models.BankProvider, error)
}

type bankingHandlers struct {
	ResponseHandler response.ResponseHandler
	TokenSvc        tokenLifecycle
	SyncSvc         syncRunner
	ProviderSvc     providerCatalog
}

func NewBankingHandlers(deps *Deps) *bankingHandlers {
	return &bankingHandlers{
		ResponseHandler: deps.ResponseHandler,
		TokenSvc:        deps.TokenSvc,
		SyncSvc:         deps.SyncSvc,
		ProviderSvc:     deps.ProviderSvc,
	}
}

func (h *bankingHandlers) BankingRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/providers", h.ListProviders)
	r.Route("/connections", func(r chi.Router) {
		r.Post("/", h.StartConnection)
		r.Get("/callback", h.CompleteConnection)
		r.Delete("/{connectionId}", h.RevokeConnection)
	})
	r.Post("/sync", h.Sync)
	return r
}

// providerListing is the public shape of a provider; credentials and
// internal configuration stay server-side.
type providerListing struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	Environment      string `json:"environment"`
	SupportsAccounts bool   `json:"supportsAccounts"`
	SupportsPayments bool   `json:"supportsPayments"`
}

func (h *bankingHandlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.ProviderSvc.ListActive(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	listings := make([]providerListing, 0, len(providers))
	for _, p := range providers {
		listings = append(listings, providerListing{
			Key:              p.Key,
			Name:             p.Name,
			Environment:      p.Environment,
			SupportsAccounts: p.SupportsAccounts,
			SupportsPayments: p.SupportsPayments,
		})
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"providers":        listings,
		"statementFormats": statement.SupportedBanks(),
	})
}

func (h *bankingHandlers) StartConnection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProviderKey string `json:"providerKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	if body.ProviderKey == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("providerKey is required"))
		return
	}

	companyID := middleware.CompanyID(r.Context())
	uid := middleware.UID(r.Context())
	authURL, conn, err := h.TokenSvc.StartAuthorization(r.Context(), companyID, body.ProviderKey, uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"authorizationUrl": authURL,
		"connectionId":     conn.ConnectionID,
	})
}

func (h *bankingHandlers) CompleteConnection(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("code and state are required"))
		return
	}

	companyID := middleware.CompanyID(r.Context())
	conn, err := h.TokenSvc.CompleteAuthorization(r.Context(), companyID, code, state)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, conn)
}

func (h *bankingHandlers) RevokeConnection(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyID(r.Context())
	connectionID := chi.URLParam(r, "connectionId")

	if err := h.TokenSvc.Revoke(r.Context(), companyID, connectionID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *bankingHandlers) Sync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BankCode        string `json:"bankCode"`
		AccountID       string `json:"accountId,omitempty"`
		LookbackDays    int    `json:"lookbackDays,omitempty"`
		MaxTransactions int    `json:"maxTransactions,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	if body.BankCode == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("bankCode is required"))
		return
	}

	companyID := middleware.CompanyID(r.Context())
	result, err := h.SyncSvc.SyncConnection(r.Context(), companyID, body.BankCode, body.AccountID, body.LookbackDays, body.MaxTransactions)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}
