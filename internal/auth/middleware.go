// Package auth verifies bearer tokens issued by the external identity
// provider and records the acting user on the request context. The service
// never authenticates users itself.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// Verifier validates identity-provider access tokens.
type Verifier struct {
	secret []byte
	logger *slog.Logger
}

// NewVerifier constructs a Verifier with the shared identity secret.
func NewVerifier(secret string, logger *slog.Logger) *Verifier {
	return &Verifier{secret: []byte(secret), logger: logger}
}

// Parse validates the token string and extracts the actor.
func (v *Verifier) Parse(tokenStr string) (shared.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Actor{}, shared.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return shared.Actor{}, shared.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return shared.Actor{}, shared.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return shared.Actor{}, shared.ErrUnauthorized
	}

	actor := shared.Actor{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		actor.Email = email
	}
	return actor, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// actor in the context for audit fields.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}

		actor, err := v.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			v.logger.Warn("bearer token rejected", slog.String("path", r.URL.Path))
			httpx.RespondError(w, err)
			return
		}

		ctx := shared.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
