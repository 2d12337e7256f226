package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

// RoleRepository reads roles from PostgreSQL.
type RoleRepository struct {
	pool pgdb.Queryer
}

// NewRoleRepository creates a RoleRepository.
func NewRoleRepository(pool pgdb.Queryer) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// FindByID returns the role with id.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*auth.Role, error) {
	if !validUUID(id) {
		return nil, auth.ErrRoleNotFound
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	role, err := scanRole(exec.QueryRow(ctx, `
        SELECT id, name, permissions
          FROM roles
         WHERE id = $1
         LIMIT 1
    `, id))
	if err != nil {
		return nil, err
	}
	return role, nil
}

// List returns every role ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]*auth.Role, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, permissions
          FROM roles
         ORDER BY name ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]*auth.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanRole(row pgx.Row) (*auth.Role, error) {
	var (
		role        auth.Role
		permissions []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &permissions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrRoleNotFound
		}
		return nil, err
	}
	perms, err := decodePermissions(permissions)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return &role, nil
}
