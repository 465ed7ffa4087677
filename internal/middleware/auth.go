package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type Middleware struct {
	AuthClient *auth.Client
}

func NewMiddleware(client *auth.Client) *Middleware {
	return &Middleware{AuthClient: client}
}

// context keys
type contextKey string

const (
	UIDKey       contextKey = "uid"
	CompanyIDKey contextKey = "companyId"
)

// FirebaseAuth verifies the bearer ID token and puts the caller's UID
// on the request context.
func (m *Middleware) FirebaseAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		tokenStr := parts[1]

		token, err := m.AuthClient.VerifyIDToken(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UIDKey, token.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompanyScope requires the X-Company-Id header and puts it on the
// context. Every banking route is scoped to exactly one company.
func (m *Middleware) CompanyScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID := strings.TrimSpace(r.Header.Get("X-Company-Id"))
		if companyID == "" {
			http.Error(w, "missing X-Company-Id header", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), CompanyIDKey, companyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

// Helper to extract the company scope
func CompanyID(ctx context.Context) string {
	companyID, _ := ctx.Value(CompanyIDKey).(string)
	return companyID
}
