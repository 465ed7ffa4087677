package psd2client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/pkg/logger"
)

const (
	// Macedonian PSD2 gateways publish a 15 requests/minute ceiling.
	defaultRequestsPerMinute = 15

	// Provider-imposed page size ceiling on transaction listings.
	MaxPageSize = 100

	userAgent = "banking-backend/1.0"
)

// Client talks to one provider's Berlin Group style XS2A gateway.
// Every request passes through a token bucket sized to the provider's
// published rate ceiling, so callers can loop over accounts without
// their own pacing.
type Client struct {
	apiBaseURL  string
	authBaseURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(provider *models.BankProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	rpm := provider.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	return &Client{
		apiBaseURL:  strings.TrimRight(provider.APIBaseURL, "/"),
		authBaseURL: strings.TrimRight(provider.AuthURL(), "/"),
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Berlin Group wire shapes. Amounts arrive as strings.

type wireAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type wireAccountRef struct {
	IBAN string `json:"iban"`
}

type wireBalance struct {
	BalanceAmount wireAmount `json:"balanceAmount"`
	BalanceType   string     `json:"balanceType"`
}

type wireAccount struct {
	ResourceID string        `json:"resourceId"`
	IBAN       string        `json:"iban"`
	BBAN       string        `json:"bban"`
	BIC        string        `json:"bic"`
	Name       string        `json:"name"`
	Currency   string        `json:"currency"`
	Status     string        `json:"status"`
	Balances   []wireBalance `json:"balances"`
}

type wireTransaction struct {
	TransactionID     string          `json:"transactionId"`
	EntryReference    string          `json:"entryReference"`
	BookingDate       string          `json:"bookingDate"`
	ValueDate         string          `json:"valueDate"`
	TransactionAmount wireAmount      `json:"transactionAmount"`
	CreditorName      string          `json:"creditorName"`
	CreditorAccount   *wireAccountRef `json:"creditorAccount"`
	DebtorName        string          `json:"debtorName"`
	DebtorAccount     *wireAccountRef `json:"debtorAccount"`
	Remittance        string          `json:"remittanceInformationUnstructured"`
	AdditionalInfo    string          `json:"additionalInformation"`
}

// ListAccounts calls the provider's account-information endpoint.
func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]dto.PSD2Account, error) {
	var body struct {
		Accounts []wireAccount `json:"accounts"`
	}
	if err := c.get(ctx, c.apiBaseURL+"/accounts?withBalance=true", accessToken, &body); err != nil {
		return nil, err
	}

	accounts := make([]dto.PSD2Account, 0, len(body.Accounts))
	for _, a := range body.Accounts {
		accounts = append(accounts, dto.PSD2Account{
			ResourceID: a.ResourceID,
			IBAN:       a.IBAN,
			BBAN:       a.BBAN,
			BIC:        a.BIC,
			Name:       a.Name,
			Currency:   a.Currency,
			Status:     a.Status,
			Balance:    pickBalance(a.Balances),
		})
	}
	return accounts, nil
}

// TransactionQuery bounds one page of the transaction listing.
type TransactionQuery struct {
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}

// ListTransactions fetches one page of booked transactions for an
// account resource.
func (c *Client) ListTransactions(ctx context.Context, accessToken, resourceID string, q TransactionQuery) (dto.PSD2TransactionPage, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("bookingStatus", "booked")
	params.Set("dateFrom", q.DateFrom.Format("2006-01-02"))
	params.Set("dateTo", q.DateTo.Format("2006-01-02"))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	var body struct {
		Transactions struct {
			Booked []wireTransaction `json:"booked"`
		} `json:"transactions"`
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions?%s", c.apiBaseURL, url.PathEscape(resourceID), params.Encode())
	if err := c.get(ctx, endpoint, accessToken, &body); err != nil {
		return dto.PSD2TransactionPage{}, err
	}

	page := dto.PSD2TransactionPage{
		Transactions: make([]dto.PSD2Transaction, 0, len(body.Transactions.Booked)),
		HasMore:      len(body.Transactions.Booked) == limit,
	}
	for _, t := range body.Transactions.Booked {
		amount, err := strconv.ParseFloat(t.TransactionAmount.Amount, 64)
		if err != nil {
			continue
		}
		externalID := t.TransactionID
		if externalID == "" {
			externalID = t.EntryReference
		}
		description := t.Remittance
		if description == "" {
			description = t.AdditionalInfo
		}
		tx := dto.PSD2Transaction{
			TransactionID: externalID,
			BookingDate:   t.BookingDate,
			ValueDate:     t.ValueDate,
			Amount:        amount,
			Currency:      t.TransactionAmount.Currency,
			Description:   description,
			CreditorName:  t.CreditorName,
			DebtorName:    t.DebtorName,
		}
		if t.CreditorAccount != nil {
			tx.CreditorIBAN = t.CreditorAccount.IBAN
		}
		if t.DebtorAccount != nil {
			tx.DebtorIBAN = t.DebtorAccount.IBAN
		}
		page.Transactions = append(page.Transactions, tx)
	}
	return page, nil
}

// RevokeToken tells the provider to invalidate the token. Callers
// treat failures as best-effort.
func (c *Client) RevokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewExternalServiceError("psd2", "malformed provider response", false)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Debug("provider request", "method", req.Method, "url", req.URL.Redacted())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewExternalServiceError("psd2", err.Error(), true)
	}
	return resp, nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.NewAuthExpiredError("", "provider rejected the access token")
	case code >= 500:
		return errs.NewExternalServiceError("psd2", "provider returned "+strconv.Itoa(code), true)
	default:
		return errs.NewExternalServiceError("psd2", "provider returned "+strconv.Itoa(code), false)
	}
}

func pickBalance(balances []wireBalance) float64 {
	for _, b := range balances {
		if b.BalanceType == "closingBooked" || len(balances) == 1 {
			if v, err := strconv.ParseFloat(b.BalanceAmount.Amount, 64); err == nil {
				return v
			}
		}
	}
	for _, b := range balances {
		if v, err := strconv.ParseFloat(b.BalanceAmount.Amount, 64); err == nil {
			return v
		}
	}
	return 0
}
