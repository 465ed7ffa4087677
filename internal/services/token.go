package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/internal/models"
	"github.com/mkfin/banking-backend/internal/store"
	"github.com/mkfin/banking-backend/pkg/logger"
)

const oauthScope = "psd2:account:read psd2:transaction:read"

// --- Dependencies (minimal interfaces scoped to this service) ---

type providerTKStore interface {
	Get(ctx context.Context, key string) (*models.BankProvider, error)
}

type connectionTKStore interface {
	Create(ctx context.Context, companyID string, conn *models.BankConnection) error
	Get(ctx context.Context, companyID, connectionID string) (*models.BankConnection, error)
	GetByState(ctx context.Context, companyID, state string) (*models.BankConnection, error)
	List(ctx context.Context, companyID string) ([]*models.BankConnection, error)
	Update(ctx context.Context, companyID string, conn *models.BankConnection) error
}

type tokenTKStore interface {
	Set(ctx context.Context, companyID string, token *models.BankToken) error
	Get(ctx context.Context, companyID, bankCode string) (*models.BankToken, error)
	Delete(ctx context.Context, companyID, bankCode string) error
}

type secretsTKStore interface {
	GetClientCredentials(ctx context.Context, secretName string) (*store.ClientCredentials, error)
}

// TokenRevoker is the provider-side revocation surface, constructed
// per provider.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, accessToken string) error
}

type tokenService struct {
	providers   providerTKStore
	connections connectionTKStore
	tokens      tokenTKStore
	secrets     secretsTKStore
	newRevoker  func(provider *models.BankProvider) TokenRevoker
	redirectURL string
	providerEnv string
	clockNow    func() time.Time

	// exchange and refresh are seams over the oauth2 round trips.
	exchange func(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error)
	refresh  func(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error)
}

func NewTokenService(
	providers providerTKStore,
	connections connectionTKStore,
	tokens tokenTKStore,
	secrets secretsTKStore,
	newRevoker func(provider *models.BankProvider) TokenRevoker,
	redirectURL string,
	providerEnv string,
) *tokenService {
	return &tokenService{
		providers:   providers,
		connections: connections,
		tokens:      tokens,
		secrets:     secrets,
		newRevoker:  newRevoker,
		redirectURL: redirectURL,
		providerEnv: providerEnv,
		clockNow:    time.Now,
		exchange: func(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
			return cfg.Exchange(ctx, code)
		},
		refresh: func(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error) {
			return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		},
	}
}

func (s *tokenService) oauthConfig(ctx context.Context, provider *models.BankProvider) (*oauth2.Config, error) {
	creds, err := s.secrets.GetClientCredentials(ctx, provider.ClientSecretName)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  s.redirectURL,
		Scopes:       []string{oauthScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   provider.AuthURL() + "/authorize",
			TokenURL:  provider.AuthURL() + "/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}, nil
}

// StartAuthorization creates a pending connection and returns the
// provider's authorization URL with an opaque state bound to it.
func (s *tokenService) StartAuthorization(ctx context.Context, companyID, providerKey, uid string) (string, *models.BankConnection, error) {
	provider, err := s.providers.Get(ctx, providerKey)
	if err != nil {
		return "", nil, err
	}
	if !provider.Active {
		return "", nil, errs.NewProviderConfigError(providerKey, "bank provider is not active")
	}
	if !provider.SupportsAccounts {
		return "", nil, errs.NewProviderConfigError(providerKey, "bank provider does not support account information")
	}
	if provider.Environment != s.providerEnv {
		return "", nil, errs.NewProviderConfigError(providerKey, "bank provider is registered for the "+provider.Environment+" environment")
	}

	cfg, err := s.oauthConfig(ctx, provider)
	if err != nil {
		return "", nil, err
	}

	conn := &models.BankConnection{
		ConnectionID: uuid.NewString(),
		ProviderKey:  providerKey,
		Status:       models.ConnectionPending,
		State:        uuid.NewString(),
		CreatedBy:    uid,
		CreatedAt:    s.clockNow(),
	}
	if err := s.connections.Create(ctx, companyID, conn); err != nil {
		return "", nil, err
	}

	logger.FromContext(ctx).Info("authorization started",
		"company_id", companyID,
		"provider", providerKey,
		"connection_id", conn.ConnectionID,
	)
	return cfg.AuthCodeURL(conn.State), conn, nil
}

// CompleteAuthorization exchanges the callback code, persists the
// token pair, and flips the connection to active.
func (s *tokenService) CompleteAuthorization(ctx context.Context, companyID, code, state string) (*models.BankConnection, error) {
	conn, err := s.connections.GetByState(ctx, companyID, state)
	if err != nil {
		return nil, err
	}
	provider, err := s.providers.Get(ctx, conn.ProviderKey)
	if err != nil {
		return nil, err
	}
	cfg, err := s.oauthConfig(ctx, provider)
	if err != nil {
		return nil, err
	}

	grant, err := s.exchange(ctx, cfg, code)
	if err != nil {
		return nil, errs.NewExternalServiceError(provider.Key, "code exchange failed: "+err.Error(), false)
	}

	token := s.tokenFromGrant(provider.Key, grant)
	if err := s.tokens.Set(ctx, companyID, token); err != nil {
		return nil, err
	}

	now := s.clockNow()
	conn.Status = models.ConnectionActive
	conn.ConnectedAt = now
	if conn.Metadata == nil {
		conn.Metadata = map[string]any{}
	}
	conn.Metadata["scope"] = token.Scope
	if err := s.connections.Update(ctx, companyID, conn); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("authorization completed",
		"company_id", companyID,
		"provider", provider.Key,
		"connection_id", conn.ConnectionID,
	)
	return conn, nil
}

// GetValidToken returns a token whose expiry is comfortably in the
// future, refreshing synchronously when the stored one is inside the
// refresh window. The refresh is not mutex-guarded: two concurrent
// callers may both refresh, and the provider honors either token until
// the next refresh.
func (s *tokenService) GetValidToken(ctx context.Context, companyID, bankCode string) (*models.BankToken, error) {
	token, err := s.tokens.Get(ctx, companyID, bankCode)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		return nil, errs.NewAuthExpiredError(bankCode, "no token stored, reconnect required")
	}
	if err != nil {
		// A storage failure says nothing about the authorization;
		// surface it as-is so retry policies can apply.
		return nil, err
	}

	now := s.clockNow()
	if !token.ExpiringSoon(now) {
		return token, nil
	}

	if token.RefreshToken == "" {
		s.markExpired(ctx, companyID, bankCode)
		return nil, errs.NewAuthExpiredError(bankCode, "token expired and no refresh token held")
	}

	provider, err := s.providers.Get(ctx, bankCode)
	if err != nil {
		return nil, err
	}
	cfg, err := s.oauthConfig(ctx, provider)
	if err != nil {
		return nil, err
	}

	grant, err := s.refresh(ctx, cfg, token.RefreshToken)
	if err != nil {
		s.markExpired(ctx, companyID, bankCode)
		return nil, errs.NewAuthExpiredError(bankCode, "token refresh failed, reconnect required")
	}

	refreshed := s.tokenFromGrant(bankCode, grant)
	if refreshed.RefreshToken == "" {
		// Providers that rotate refresh tokens only sometimes return
		// a new one; keep the old one otherwise.
		refreshed.RefreshToken = token.RefreshToken
	}
	refreshed.CreatedAt = token.CreatedAt
	if err := s.tokens.Set(ctx, companyID, refreshed); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("token refreshed", "company_id", companyID, "bank_code", bankCode)
	return refreshed, nil
}

// Revoke tells the provider to drop the token best-effort, then
// deletes it locally and marks the connection revoked regardless.
func (s *tokenService) Revoke(ctx context.Context, companyID, connectionID string) error {
	conn, err := s.connections.Get(ctx, companyID, connectionID)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	token, err := s.tokens.Get(ctx, companyID, conn.ProviderKey)
	if err == nil {
		provider, perr := s.providers.Get(ctx, conn.ProviderKey)
		if perr == nil {
			if rerr := s.newRevoker(provider).RevokeToken(ctx, token.AccessToken); rerr != nil {
				log.Warn("provider revocation failed, deleting local token anyway",
					"connection_id", connectionID, "error", rerr.Error())
			}
		}
		if derr := s.tokens.Delete(ctx, companyID, conn.ProviderKey); derr != nil {
			return derr
		}
	}

	conn.Status = models.ConnectionRevoked
	if err := s.connections.Update(ctx, companyID, conn); err != nil {
		return err
	}
	log.Info("connection revoked", "company_id", companyID, "connection_id", connectionID)
	return nil
}

func (s *tokenService) tokenFromGrant(bankCode string, grant *oauth2.Token) *models.BankToken {
	scope, _ := grant.Extra("scope").(string)
	tokenType := grant.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &models.BankToken{
		BankCode:     bankCode,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    tokenType,
		Scope:        scope,
		ExpiresAt:    grant.Expiry,
	}
}

// markExpired flips the active connection for this bank to expired.
func (s *tokenService) markExpired(ctx context.Context, companyID, bankCode string) {
	conns, err := s.connections.List(ctx, companyID)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if conn.ProviderKey == bankCode && conn.Status == models.ConnectionActive {
			conn.Status = models.ConnectionExpired
			if err := s.connections.Update(ctx, companyID, conn); err != nil {
				logger.FromContext(ctx).Warn("failed to mark connection expired",
					"connection_id", conn.ConnectionID, "error", err.Error())
			}
		}
	}
}
