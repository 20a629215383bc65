// Package sharing issues and resolves stateless signed tokens that grant
// read-only, unauthenticated access to one quotation's public projection.
// There is no server-side revocation list: possession, a valid signature and
// an unexpired token are sufficient until expiry.
package sharing

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

const tokenPurpose = "quotation_share"

// Issuer signs and verifies share tokens with a server-held secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer. ttl is how long issued tokens stay valid.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a share token for the given quotation id.
func (i *Issuer) Issue(quotationID int64) (string, time.Time, error) {
	expiresAt := i.now().Add(i.ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(quotationID, 10),
		"type": tokenPurpose,
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sharing: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and purpose, returning the quotation id
// the token grants access to.
func (i *Issuer) Verify(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return 0, shared.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, shared.ErrInvalidToken
	}
	if purpose, _ := claims["type"].(string); purpose != tokenPurpose {
		return 0, shared.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, shared.ErrInvalidToken
	}
	quotationID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || quotationID <= 0 {
		return 0, shared.ErrInvalidToken
	}
	return quotationID, nil
}
