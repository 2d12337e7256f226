package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
)

const defaultTokenTTL = 8 * time.Hour

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("security: jwt secret is empty")

// Claims is the payload of a session token.
type Claims struct {
	Matricula   string           `json:"matricula"`
	Role        string           `json:"role"`
	Permissions auth.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 session tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a JWTIssuer. A non-positive ttl falls back to 8h.
func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for p.
func (j *JWTIssuer) Issue(p auth.Principal) (string, error) {
	now := j.now()
	claims := &Claims{
		Matricula:   p.Matricula,
		Role:        p.Role,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("security: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the principal.
func (j *JWTIssuer) Verify(token string) (*auth.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("security: parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("security: invalid token claims")
	}

	return &auth.Principal{
		UserID:      claims.Subject,
		Matricula:   claims.Matricula,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}, nil
}
