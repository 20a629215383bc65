package sharing

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

func newTestIssuer(t *testing.T, ttl time.Duration) (*Issuer, *time.Time) {
	t.Helper()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", ttl)
	issuer.now = func() time.Time { return now }
	return issuer, &now
}

func TestIssueAndVerify(t *testing.T) {
	issuer, now := newTestIssuer(t, 30*24*time.Hour)

	token, expiresAt, err := issuer.Issue(42)
	require.NoError(t, err)
	require.Equal(t, now.Add(30*24*time.Hour), expiresAt)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer, now := newTestIssuer(t, time.Hour)

	token, _, err := issuer.Issue(42)
	require.NoError(t, err)

	*now = now.Add(time.Hour + time.Second)
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := newTestIssuer(t, time.Hour)
	token, _, err := issuer.Issue(42)
	require.NoError(t, err)

	other := NewIssuer("different-secret", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyWrongPurpose(t *testing.T) {
	issuer, now := newTestIssuer(t, time.Hour)

	claims := jwt.MapClaims{
		"sub":  "42",
		"type": "password_reset",
		"exp":  now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	issuer, _ := newTestIssuer(t, time.Hour)

	claims := jwt.MapClaims{"sub": "42", "type": tokenPurpose}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	issuer, now := newTestIssuer(t, time.Hour)

	claims := jwt.MapClaims{
		"sub":  "42",
		"type": tokenPurpose,
		"exp":  now.Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(unsigned)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, _ := newTestIssuer(t, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(token)
		require.ErrorIs(t, err, shared.ErrInvalidToken)
	}
}

func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	issuer, now := newTestIssuer(t, time.Hour)

	claims := jwt.MapClaims{
		"sub":  "quotation-42",
		"type": tokenPurpose,
		"exp":  now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}
