package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/response"
)

type fakeAccountSvc struct {
	listings []dto.AccountListing
	txs      []*models.BankTransaction
	err      error

	gotList struct {
		companyID string
		accountID string
		limit     int
	}
}

func (f *fakeAccountSvc) ListAccounts(ctx context.Context, companyID string) ([]dto.AccountListing, error) {
	f.gotList.companyID = companyID
	return f.listings, f.err
}

func (f *fakeAccountSvc) ListTransactions(ctx context.Context, companyID, accountID string, limit int) ([]*models.BankTransaction, error) {
	f.gotList.companyID = companyID
	f.gotList.accountID = accountID
	f.gotList.limit = limit
	return f.txs, f.err
}

type fakeImportSvc struct {
	result dto.ImportResult
	err    error

	gotImport struct {
		companyID string
		accountID string
		contents  []byte
		format    string
	}
}

func (f *fakeImportSvc) ImportStatement(ctx context.Context, companyID, accountID string, contents []byte, format string) (dto.ImportResult, error) {
	f.gotImport.companyID = companyID
	f.gotImport.accountID = accountID
	f.gotImport.contents = contents
	f.gotImport.format = format
	return f.result, f.err
}

func newTestAccountHandler(acc *fakeAccountSvc, imp *fakeImportSvc) *accountHandlers {
	log := slog.New(slog.NewTextHandler(testDiscard{}, nil))
	deps := &Deps{
		ResponseHandler: response.New(log),
		AccountSvc:      acc,
		ImportSvc:       imp,
	}
	return NewAccountHandlers(deps)
}

func TestListAccountsHandler(t *testing.T) {
	acc := &fakeAccountSvc{listings: []dto.AccountListing{
		{AccountID: "acct-1", BankCode: "nlb", IBAN: "MK07***********1234", Currency: "MKD"},
	}}
	h := newTestAccountHandler(acc, &fakeImportSvc{})

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(scopedCtx(context.Background()))
	rr := httptest.NewRecorder()

	h.ListAccounts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	if acc.gotList.companyID != "company-a" {
		t.Fatalf("list called with %+v", acc.gotList)
	}
	var resp struct {
		Data []dto.AccountListing
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Data) != 1 || resp.Data[0].AccountID != "acct-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListTransactionsHandler(t *testing.T) {
	acc := &fakeAccountSvc{txs: []*models.BankTransaction{{Fingerprint: "f1", AccountID: "acct-1"}}}
	h := newTestAccountHandler(acc, &fakeImportSvc{})

	req := httptest.NewRequest(http.MethodGet, "/acct-1/transactions?limit=25", nil).WithContext(scopedCtx(context.Background()))
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	if acc.gotList.accountID != "acct-1" || acc.gotList.limit != 25 {
		t.Fatalf("list called with %+v", acc.gotList)
	}
}

func TestListTransactionsRejectsBadLimit(t *testing.T) {
	h := newTestAccountHandler(&fakeAccountSvc{}, &fakeImportSvc{})

	req := httptest.NewRequest(http.MethodGet, "/acct-1/transactions?limit=abc", nil).WithContext(scopedCtx(context.Background()))
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestListTransactionsForeignAccount(t *testing.T) {
	acc := &fakeAccountSvc{err: errs.NewNotFoundError("bank account not found")}
	h := newTestAccountHandler(acc, &fakeImportSvc{})

	req := httptest.NewRequest(http.MethodGet, "/acct-other/transactions", nil).WithContext(scopedCtx(context.Background()))
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func statementUpload(t *testing.T, contents, format string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "izvod.csv")
	if err != nil {
		t.Fatalf("multipart: %v", err)
	}
	fw.Write([]byte(contents))
	if format != "" {
		mw.WriteField("format", format)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestImportStatementHandler(t *testing.T) {
	imp := &fakeImportSvc{result: dto.ImportResult{AccountID: "acct-1", BankCode: "nlb", Imported: 2}}
	h := newTestAccountHandler(&fakeAccountSvc{}, imp)

	body, contentType := statementUpload(t, "Датум;Износ\n05.02.2026;100", "nlb")
	req := httptest.NewRequest(http.MethodPost, "/acct-1/statements", body).WithContext(scopedCtx(context.Background()))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	if imp.gotImport.accountID != "acct-1" || imp.gotImport.format != "nlb" {
		t.Fatalf("import called with %+v", imp.gotImport)
	}
	if !bytes.Contains(imp.gotImport.contents, []byte("05.02.2026")) {
		t.Fatal("file contents not passed through")
	}
}

func TestImportStatementRequiresFile(t *testing.T) {
	h := newTestAccountHandler(&fakeAccountSvc{}, &fakeImportSvc{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("format", "nlb")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/acct-1/statements", &buf).WithContext(scopedCtx(context.Background()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestImportStatementUnparseable(t *testing.T) {
	imp := &fakeImportSvc{err: errs.NewParseError("no transactions found in statement")}
	h := newTestAccountHandler(&fakeAccountSvc{}, imp)

	body, contentType := statementUpload(t, "not a statement", "")
	req := httptest.NewRequest(http.MethodPost, "/acct-1/statements", body).WithContext(scopedCtx(context.Background()))
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	h.AccountRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp response.ErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Code != "unparseable_statement" {
		t.Fatalf("error code = %q, want unparseable_statement", resp.Code)
	}
}
