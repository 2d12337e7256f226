package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
)

type stubRoles []*auth.Role

func (s stubRoles) FindByID(_ context.Context, id string) (*auth.Role, error) {
	for _, r := range s {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, auth.ErrRoleNotFound
}

func (s stubRoles) List(context.Context) ([]*auth.Role, error) {
	return s, nil
}

type stubUsers struct {
	auth.UseCase
	got auth.CreateUserInput
}

func (s *stubUsers) CreateUser(_ context.Context, in auth.CreateUserInput) (*auth.User, error) {
	s.got = in
	return &auth.User{ID: "u1", Matricula: in.Matricula, RoleID: in.RoleID}, nil
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	roles := stubRoles{{ID: "r-admin", Name: "Administrador"}, {ID: "r-gerente", Name: "Gerente"}}
	users := &stubUsers{}

	u, err := bootstrap(context.Background(), users, roles, bootstrapInput{
		Matricula: "admin",
		Nome:      "Admin",
		RoleName:  "administrador",
		Password:  "s3cret!",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "r-admin", users.got.RoleID)
	assert.Equal(t, "admin@localhost.localdomain", users.got.Email)
	assert.Equal(t, "s3cret!", users.got.InitialPassword)
}

func TestBootstrap_UnknownRole(t *testing.T) {
	t.Parallel()

	_, err := bootstrap(context.Background(), &stubUsers{}, stubRoles{}, bootstrapInput{RoleName: "Root"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrRoleNotFound))
}
