package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

const userSelect = `
        SELECT u.id, u.matricula, u.nome, u.email, u.senha_hash, u.role_id, u.must_change_password, u.created_at, u.updated_at,
               r.id, r.name, r.permissions
          FROM users u
          JOIN roles r ON r.id = u.role_id`

// UserRepository stores users in PostgreSQL.
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user and returns it with its role.
func (r *UserRepository) Create(ctx context.Context, u *auth.User) (*auth.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO users (matricula, nome, email, senha_hash, role_id, must_change_password, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, matricula, nome, email, senha_hash, role_id, must_change_password, created_at, updated_at
        )
        SELECT i.id, i.matricula, i.nome, i.email, i.senha_hash, i.role_id, i.must_change_password, i.created_at, i.updated_at,
               r.id, r.name, r.permissions
          FROM inserted i
          JOIN roles r ON r.id = i.role_id
    `,
		u.Matricula,
		u.Nome,
		u.Email,
		u.PasswordHash,
		u.RoleID,
		u.MustChangePassword,
		u.CreatedAt,
		u.UpdatedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return created, nil
}

// FindByID returns the user with id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if !validUUID(id) {
		return nil, auth.ErrUserNotFound
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanUser(exec.QueryRow(ctx, userSelect+`
         WHERE u.id = $1
         LIMIT 1
    `, id))
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// FindByMatricula returns the user with the personnel number.
func (r *UserRepository) FindByMatricula(ctx context.Context, matricula string) (*auth.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanUser(exec.QueryRow(ctx, userSelect+`
         WHERE u.matricula = $1
         LIMIT 1
    `, matricula))
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// ExistsByMatriculaOrEmail reports whether either identifier is taken.
func (r *UserRepository) ExistsByMatriculaOrEmail(ctx context.Context, matricula, email string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var exists bool
	err := exec.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM users WHERE matricula = $1 OR lower(email) = lower($2)
        )
    `, matricula, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdatePassword replaces the hash and the must-change flag.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string, mustChange bool, updatedAt time.Time) error {
	if !validUUID(id) {
		return auth.ErrUserNotFound
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE users
           SET senha_hash = $1,
               must_change_password = $2,
               updated_at = $3
         WHERE id = $4
    `, hash, mustChange, updatedAt, id)
	if err != nil {
		return translateUserPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// List returns every user ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, userSelect+`
         ORDER BY u.nome ASC, u.id ASC
    `)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translateUserPgError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translateUserPgError(err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u           auth.User
		role        auth.Role
		permissions []byte
	)

	if err := row.Scan(
		&u.ID,
		&u.Matricula,
		&u.Nome,
		&u.Email,
		&u.PasswordHash,
		&u.RoleID,
		&u.MustChangePassword,
		&u.CreatedAt,
		&u.UpdatedAt,
		&role.ID,
		&role.Name,
		&permissions,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	perms, err := decodePermissions(permissions)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	u.Role = &role
	return &u, nil
}

func decodePermissions(raw []byte) (auth.Permissions, error) {
	var p auth.Permissions
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return auth.Permissions{}, err
	}
	return p, nil
}

func translateUserPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return auth.ErrDuplicateUser
		case foreignKeyViolationCode:
			if strings.Contains(pgErr.ConstraintName, "role") {
				return auth.ErrRoleNotFound
			}
		case invalidTextCode:
			return auth.ErrUserNotFound
		}
	}
	return err
}
