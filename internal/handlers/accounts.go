package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/middleware"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/response"
)

// Statement uploads above this size are rejected outright.
const maxStatementSize = 10 << 20

type accountReader interface {
	ListAccounts(ctx context.Context, companyID string) ([]dto.AccountListing, error)
	ListTransactions(ctx context.Context, companyID, accountID string, limit int) ([]*models.BankTransaction, error)
}

type statementImporter interface {
	ImportStatement(ctx context.Context, companyID, accountID string, contents []byte, format string) (dto.ImportResult, error)
}

type accountHandlers struct {
	ResponseHandler response.ResponseHandler
	AccountSvc      accountReader
	ImportSvc       statementImporter
}

func NewAccountHandlers(deps *Deps) *accountHandlers {
	return &accountHandlers{
		ResponseHandler: deps.ResponseHandler,
		AccountSvc:      deps.AccountSvc,
		ImportSvc:       deps.ImportSvc,
	}
}

func (h *accountHandlers) AccountRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAccounts)
	r.Route("/{accountId}", func(r chi.Router) {
		r.Get("/transactions", h.ListTransactions)
		r.Post("/statements", h.ImportStatement)
	})
	return r
}

func (h *accountHandlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyID(r.Context())

	accounts, err := h.AccountSvc.ListAccounts(r.Context(), companyID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, accounts)
}

func (h *accountHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyID(r.Context())
	accountID := chi.URLParam(r, "accountId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	txs, err := h.AccountSvc.ListTransactions(r.Context(), companyID, accountID, limit)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, txs)
}

// ImportStatement accepts a multipart upload under the "file" field,
// with an optional "format" field naming the bank parser. Without a
// format the content is probed.
func (h *accountHandlers) ImportStatement(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyID(r.Context())
	accountID := chi.URLParam(r, "accountId")

	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("expected a multipart statement upload"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("file field is required"))
		return
	}
	defer file.Close()

	contents, err := io.ReadAll(io.LimitReader(file, maxStatementSize))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if len(contents) == 0 {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("uploaded statement is empty"))
		return
	}

	result, err := h.ImportSvc.ImportStatement(r.Context(), companyID, accountID, contents, r.FormValue("format"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}
