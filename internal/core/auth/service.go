package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager is the transaction abstraction used by the service.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const (
	defaultMinPasswordLength = 6
	// timingPassword is hashed once and compared against when the matricula
	// is unknown, so both login failures cost one hash comparison.
	timingPassword = "headcount-login-timing"
)

// LoginObserver is told about the outcome of every login attempt.
type LoginObserver interface {
	ObserveLogin(err error)
}

// Service implements login, password change and user administration.
type Service struct {
	users       UserRepository
	roles       RoleRepository
	tokens      TokenIssuer
	hasher      PasswordHasher
	audit       audit.Sink
	observer    LoginObserver
	clock       Clock
	tx          TransactionManager
	minPassword int

	timingOnce sync.Once
	timingHash string
}

// UseCase is the public surface of the auth service.
type UseCase interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	ListRoles(ctx context.Context) ([]*Role, error)
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Users             UserRepository
	Roles             RoleRepository
	Tokens            TokenIssuer
	Hasher            PasswordHasher
	Audit             audit.Sink
	Observer          LoginObserver
	Clock             Clock
	Tx                TransactionManager
	MinPasswordLength int
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Tx == nil {
		d.Tx = noopTransactionManager{}
	}
	if d.MinPasswordLength <= 0 {
		d.MinPasswordLength = defaultMinPasswordLength
	}
	return &Service{
		users:       d.Users,
		roles:       d.Roles,
		tokens:      d.Tokens,
		hasher:      d.Hasher,
		audit:       d.Audit,
		observer:    d.Observer,
		clock:       d.Clock,
		tx:          d.Tx,
		minPassword: d.MinPasswordLength,
	}
}

// LoginInput is the login request.
type LoginInput struct {
	Matricula string
	Password  string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token              string
	MustChangePassword bool
	Nome               string
	Role               string
}

// ChangePasswordInput changes the password of the authenticated user.
type ChangePasswordInput struct {
	UserID      string
	NewPassword string
}

// CreateUserInput creates an account on behalf of ActorID.
type CreateUserInput struct {
	ActorID         string
	Matricula       string
	Nome            string
	Email           string
	RoleID          string
	InitialPassword string
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	res, err := s.login(ctx, in)
	if s.observer != nil {
		s.observer.ObserveLogin(err)
	}
	return res, err
}

func (s *Service) unknownUserHash() string {
	s.timingOnce.Do(func() {
		if h, err := s.hasher.Hash(timingPassword); err == nil {
			s.timingHash = h
		}
	})
	return s.timingHash
}

func (s *Service) login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	matricula := strings.TrimSpace(in.Matricula)
	if matricula == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByMatricula(ctx, matricula)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = s.hasher.Compare(s.unknownUserHash(), in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	var perms Permissions
	if u.Role != nil {
		perms = u.Role.Permissions
	}

	token, err := s.tokens.Issue(Principal{
		UserID:      u.ID,
		Matricula:   u.Matricula,
		Role:        u.RoleName(),
		Permissions: perms,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}

	s.record(audit.Entry{
		UserID:      u.ID,
		Action:      audit.ActionLogin,
		TargetTable: audit.TargetUser,
		TargetID:    u.ID,
	})

	return &LoginResult{
		Token:              token,
		MustChangePassword: u.MustChangePassword,
		Nome:               u.Nome,
		Role:               u.RoleName(),
	}, nil
}

// ChangePassword re-hashes the password and clears the must-change flag.
func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return ErrInvalidInput
	}
	if err := s.checkPassword(in.NewPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, in.UserID, hash, false, s.clock.Now()); err != nil {
		return err
	}

	s.record(audit.Entry{
		UserID:      in.UserID,
		Action:      audit.ActionChangePassword,
		TargetTable: audit.TargetUser,
		TargetID:    in.UserID,
	})
	return nil
}

// CreateUser creates an account that must change its password on first login.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	matricula := strings.TrimSpace(in.Matricula)
	nome := strings.TrimSpace(in.Nome)
	roleID := strings.TrimSpace(in.RoleID)
	if matricula == "" || nome == "" || roleID == "" {
		return nil, ErrInvalidInput
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if err := s.checkPassword(in.InitialPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.InitialPassword)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	var created *User
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exists, err := s.users.ExistsByMatriculaOrEmail(txCtx, matricula, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateUser
		}

		role, err := s.roles.FindByID(txCtx, roleID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		u, err := s.users.Create(txCtx, &User{
			Matricula:          matricula,
			Nome:               nome,
			Email:              email,
			PasswordHash:       hash,
			RoleID:             role.ID,
			MustChangePassword: true,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return err
		}
		u.Role = role
		created = u
		return nil
	}); err != nil {
		return nil, err
	}

	s.record(audit.Entry{
		UserID:      in.ActorID,
		Action:      audit.ActionCreateUser,
		TargetTable: audit.TargetUser,
		TargetID:    created.ID,
		Details:     map[string]any{"matricula": created.Matricula, "role": created.RoleName()},
	})

	created.PasswordHash = ""
	return created, nil
}

// ListUsers returns every user ordered by name, without password hashes.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// ListRoles returns every role.
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.roles.List(ctx)
}

func (s *Service) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < s.minPassword {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPassword)
	}
	return nil
}

func (s *Service) record(entry audit.Entry) {
	if s.audit != nil {
		s.audit.Record(entry)
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
