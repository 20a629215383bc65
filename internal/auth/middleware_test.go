package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

const testSecret = "identity-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	v := NewVerifier(testSecret, slog.Default())
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "42",
		"email": "ops@sourcedesk.co",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	actor, err := v.Parse(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), actor.UserID)
	require.Equal(t, "ops@sourcedesk.co", actor.Email)
}

func TestParseRejections(t *testing.T) {
	v := NewVerifier(testSecret, slog.Default())

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signToken(t, testSecret, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no subject":   signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"non-numeric":  signToken(t, testSecret, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Parse(token)
			require.ErrorIs(t, err, shared.ErrUnauthorized)
		})
	}
}

func TestMiddlewareStoresActor(t *testing.T) {
	v := NewVerifier(testSecret, slog.Default())
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "42",
		"email": "ops@sourcedesk.co",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	var seen shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/quotations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	v.Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), seen.UserID)
	require.Equal(t, "ops@sourcedesk.co", seen.Email)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	v := NewVerifier(testSecret, slog.Default())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/quotations", nil)
	rec := httptest.NewRecorder()
	v.Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsBadScheme(t *testing.T) {
	v := NewVerifier(testSecret, slog.Default())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/quotations", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	v.Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
