package auth

import (
	"fmt"
	"strings"
)

const defaultAdminRole = "Administrador"

// Gate authenticates bearer tokens and checks capabilities.
type Gate struct {
	tokens    TokenIssuer
	adminRole string
}

// NewGate creates a Gate. Principals whose role equals adminRole pass every check.
func NewGate(tokens TokenIssuer, adminRole string) *Gate {
	if adminRole == "" {
		adminRole = defaultAdminRole
	}
	return &Gate{tokens: tokens, adminRole: adminRole}
}

// Authenticate parses an Authorization header value ("Bearer <token>").
func (g *Gate) Authenticate(header string) (*Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}

	p, err := g.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p, nil
}

// Authorize returns nil when p may use capability c.
func (g *Gate) Authorize(p *Principal, c Capability) error {
	if p == nil {
		return ErrMissingToken
	}
	if p.Role == g.adminRole {
		return nil
	}
	if p.Permissions.Has(c) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, c)
}

// IsAdmin reports whether p holds the administrator role.
func (g *Gate) IsAdmin(p *Principal) bool {
	return p != nil && p.Role == g.adminRole
}
