package auth

import (
	"context"
	"time"
)

// UserRepository persists users. Reads return the user with its Role loaded.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByMatricula(ctx context.Context, matricula string) (*User, error)
	ExistsByMatriculaOrEmail(ctx context.Context, matricula, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string, mustChange bool, updatedAt time.Time) error
	List(ctx context.Context) ([]*User, error)
}

// RoleRepository reads roles.
type RoleRepository interface {
	FindByID(ctx context.Context, id string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(p Principal) (string, error)
	Verify(token string) (*Principal, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
