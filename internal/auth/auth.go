package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Daphne210/amr-inference-server/internal/store"
)

// Authenticator guards the prediction API with stored API keys and the admin
// surface with a bcrypt-hashed basic-auth credential.
type Authenticator struct {
	Store *store.Store

	// RequireKey gates the bearer-key check on /v1 prediction routes.
	// When false the routes are open (the single-tenant default).
	RequireKey bool

	AdminUser string
	// AdminPasswordHash is a bcrypt hash. Empty disables the admin surface.
	AdminPasswordHash string
}

func NewAuthenticator(s *store.Store) *Authenticator {
	return &Authenticator{Store: s}
}

// GenerateKey mints a new API key, returning the plaintext once and storing
// only the sha256 digest.
func (a *Authenticator) GenerateKey(ctx context.Context, name string) (string, store.APIKeyRecord, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", store.APIKeyRecord{}, err
	}
	key := "sk-" + hex.EncodeToString(raw)

	record := store.APIKeyRecord{
		ID:        hex.EncodeToString(raw[:8]),
		Name:      name,
		Prefix:    key[:7],
		HashedKey: hashKey(key),
		CreatedAt: time.Now(),
	}

	if err := a.Store.CreateAPIKey(ctx, record); err != nil {
		return "", store.APIKeyRecord{}, err
	}

	return key, record, nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Middleware enforces the bearer API key when RequireKey is set.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.RequireKey {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		rec, found, err := a.Store.GetAPIKeyByHash(r.Context(), hashKey(parts[1]))
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		// Last-used bookkeeping must not block the request.
		go func() {
			_ = a.Store.UpdateAPIKeyLastUsed(context.Background(), rec.ID)
		}()

		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware enforces basic auth against the configured admin
// credential. With no hash configured the admin surface is closed.
func (a *Authenticator) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.AdminPasswordHash == "" {
			http.Error(w, "Admin surface disabled", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != a.AdminUser {
			w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(a.AdminPasswordHash), []byte(pass)); err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
