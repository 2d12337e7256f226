package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

const uploadSelect = `
        SELECT up.id, up.uploaded_by, COALESCE(us.nome, ''), up.file_name, up.row_count, up.uploaded_at,
               up.status, up.backup_path, up.reverted_at, up.reverted_by
          FROM uploads up
          LEFT JOIN users us ON us.id = up.uploaded_by`

// UploadRepository stores upload records in PostgreSQL.
type UploadRepository struct {
	pool pgdb.Queryer
}

// NewUploadRepository creates an UploadRepository.
func NewUploadRepository(pool pgdb.Queryer) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// Create inserts the record, assigning an id when it has none.
func (r *UploadRepository) Create(ctx context.Context, rec *roster.UploadRecord) (*roster.UploadRecord, error) {
	created := *rec
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Status == "" {
		created.Status = roster.UploadStatusActive
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO uploads (id, uploaded_by, file_name, row_count, uploaded_at, status, backup_path)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		created.ID,
		nullableString(created.UploadedBy),
		created.FileName,
		created.RowCount,
		created.UploadedAt,
		string(created.Status),
		created.BackupPath,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByID returns one upload record.
func (r *UploadRepository) FindByID(ctx context.Context, id string) (*roster.UploadRecord, error) {
	if !validUUID(id) {
		return nil, roster.ErrUploadNotFound
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	return scanUpload(exec.QueryRow(ctx, uploadSelect+`
         WHERE up.id = $1
         LIMIT 1
    `, id))
}

// MarkReverted flips an active record to reverted. A record that is missing
// or already reverted yields roster.ErrUploadNotFound.
func (r *UploadRepository) MarkReverted(ctx context.Context, id, actorID string, at time.Time) error {
	if !validUUID(id) {
		return roster.ErrUploadNotFound
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE uploads
           SET status = $1,
               reverted_at = $2,
               reverted_by = $3
         WHERE id = $4 AND status = $5
    `, string(roster.UploadStatusReverted), at, nullableString(actorID), id, string(roster.UploadStatusActive))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrUploadNotFound
	}
	return nil
}

// List returns the upload history, newest first.
func (r *UploadRepository) List(ctx context.Context) ([]*roster.UploadRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, uploadSelect+`
         ORDER BY up.uploaded_at DESC, up.id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*roster.UploadRecord, 0)
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanUpload(row pgx.Row) (*roster.UploadRecord, error) {
	var (
		rec        roster.UploadRecord
		uploadedBy sql.NullString
		status     string
		revertedAt sql.NullTime
		revertedBy sql.NullString
		rowCount   int32
	)

	if err := row.Scan(
		&rec.ID,
		&uploadedBy,
		&rec.UploaderNome,
		&rec.FileName,
		&rowCount,
		&rec.UploadedAt,
		&status,
		&rec.BackupPath,
		&revertedAt,
		&revertedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, roster.ErrUploadNotFound
		}
		return nil, err
	}

	rec.UploadedBy = stringOrEmpty(uploadedBy)
	rec.RowCount = int(rowCount)
	rec.Status = roster.UploadStatus(status)
	rec.RevertedBy = stringOrEmpty(revertedBy)
	if revertedAt.Valid {
		t := revertedAt.Time.UTC()
		rec.RevertedAt = &t
	}
	return &rec, nil
}
