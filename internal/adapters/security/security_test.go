package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newIssuerAt(t *testing.T, now time.Time) *JWTIssuer {
	t.Helper()
	j, err := NewJWTIssuer("test-secret-with-enough-entropy", time.Hour)
	require.NoError(t, err)
	j.now = func() time.Time { return now }
	return j
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	j := newIssuerAt(t, now)

	token, err := j.Issue(auth.Principal{
		UserID:      "u-1",
		Matricula:   "1001",
		Role:        "Gerente",
		Permissions: auth.Permissions{VerTabela: true, Upload: true},
	})
	require.NoError(t, err)

	p, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "1001", p.Matricula)
	assert.Equal(t, "Gerente", p.Role)
	assert.True(t, p.Permissions.Has(auth.CapUpload))
	assert.False(t, p.Permissions.Has(auth.CapAdmin))
}

func TestJWTIssuer_RejectsExpiredAndForeignTokens(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	token, err := newIssuerAt(t, now).Issue(auth.Principal{UserID: "u-1"})
	require.NoError(t, err)

	_, err = newIssuerAt(t, now.Add(2*time.Hour)).Verify(token)
	assert.Error(t, err, "expired token must be rejected")

	other, err := NewJWTIssuer("another-secret", time.Hour)
	require.NoError(t, err)
	other.now = func() time.Time { return now }
	_, err = other.Verify(token)
	assert.Error(t, err, "token signed with another secret must be rejected")

	_, err = newIssuerAt(t, now).Verify(token[:strings.LastIndex(token, ".")] + ".tampered")
	assert.Error(t, err)
}

func TestJWTIssuer_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newIssuerAt(t, now).Verify(unsigned)
	assert.Error(t, err)
}

func TestNewJWTIssuer_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewJWTIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	j, err := NewJWTIssuer("s", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTokenTTL, j.ttl)
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("segredo123")
	require.NoError(t, err)
	assert.NotEqual(t, "segredo123", hash)

	assert.NoError(t, h.Compare(hash, "segredo123"))
	assert.ErrorIs(t, h.Compare(hash, "errada"), ErrPasswordMismatch)
	assert.Error(t, h.Compare("not-a-hash", "segredo123"))

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
}
