package postgres

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

// AuditRepository appends audit entries to PostgreSQL.
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository creates an AuditRepository.
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert appends one entry.
func (r *AuditRepository) Insert(ctx context.Context, e *audit.Entry) error {
	var details any
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}

	userID := e.UserID
	if !validUUID(userID) {
		userID = ""
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO audit_logs (id, user_id, action, target_table, target_id, details, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		e.ID,
		nullableString(userID),
		e.Action,
		nullableString(e.TargetTable),
		nullableString(e.TargetID),
		details,
		e.Timestamp,
	)
	return err
}

// List returns a page of entries with their actor, newest first.
func (r *AuditRepository) List(ctx context.Context, f audit.ListFilter) ([]*audit.LogView, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT a.id, a.user_id, a.action, a.target_table, a.target_id, a.details, a.timestamp,
               COALESCE(u.nome, ''), COALESCE(u.matricula, '')
          FROM audit_logs a
          LEFT JOIN users u ON u.id = a.user_id
         ORDER BY a.timestamp DESC, a.id DESC
         LIMIT $1
        OFFSET $2
    `, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*audit.LogView, 0, f.Limit)
	for rows.Next() {
		v, err := scanLogView(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, v)
	}
	return logs, rows.Err()
}

// Count returns the number of entries.
func (r *AuditRepository) Count(ctx context.Context) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var total int64
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

func scanLogView(row pgx.Row) (*audit.LogView, error) {
	var (
		v           audit.LogView
		userID      sql.NullString
		targetTable sql.NullString
		targetID    sql.NullString
		details     []byte
	)
	if err := row.Scan(
		&v.ID,
		&userID,
		&v.Action,
		&targetTable,
		&targetID,
		&details,
		&v.Timestamp,
		&v.UserNome,
		&v.UserMatricula,
	); err != nil {
		return nil, err
	}

	v.UserID = stringOrEmpty(userID)
	v.TargetTable = stringOrEmpty(targetTable)
	v.TargetID = stringOrEmpty(targetID)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &v.Details); err != nil {
			return nil, err
		}
	}
	return &v, nil
}
