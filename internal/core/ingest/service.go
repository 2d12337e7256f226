package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/rs/zerolog"
)

const (
	previewRowLimit = 10
	confirmMessage  = "Upload concluído e banco de dados atualizado!"
	operationName   = "confirm"
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
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Reader   SheetReader
	Scratch  Scratch
	Roster   RosterStore
	Uploads  roster.UploadRepository
	Backups  roster.BackupStore
	Guard    *roster.ReplaceGuard
	Audit    audit.Sink
	Observer ReplaceObserver
	Clock    Clock
	Tx       TransactionManager
	Logger   zerolog.Logger
}

// RosterStore is the part of the roster store the pipeline needs.
type RosterStore interface {
	Lock(ctx context.Context) error
	ListAll(ctx context.Context) ([]roster.Employee, error)
	ReplaceAll(ctx context.Context, rows []roster.Employee) (int, error)
}

// Service is the spreadsheet ingest pipeline.
type Service struct {
	reader   SheetReader
	scratch  Scratch
	roster   RosterStore
	uploads  roster.UploadRepository
	backups  roster.BackupStore
	guard    *roster.ReplaceGuard
	audit    audit.Sink
	observer ReplaceObserver
	clock    Clock
	tx       TransactionManager
	logger   zerolog.Logger
}

// UseCase is the public surface of the ingest pipeline.
type UseCase interface {
	Preview(ctx context.Context, path string) (*PreviewResult, error)
	Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error)
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Tx == nil {
		d.Tx = noopTransactionManager{}
	}
	if d.Guard == nil {
		d.Guard = roster.NewReplaceGuard()
	}
	return &Service{
		reader:   d.Reader,
		scratch:  d.Scratch,
		roster:   d.Roster,
		uploads:  d.Uploads,
		backups:  d.Backups,
		guard:    d.Guard,
		audit:    d.Audit,
		observer: d.Observer,
		clock:    d.Clock,
		tx:       d.Tx,
		logger:   d.Logger.With().Str("component", "ingest").Logger(),
	}
}

// PreviewResult is what the upload wizard shows before confirmation.
type PreviewResult struct {
	Headers     []string
	PreviewRows [][]string
	TotalRows   int
	SheetName   string
	FilePath    string
}

// ConfirmInput confirms a previewed file.
type ConfirmInput struct {
	FilePath string
	ActorID  string
}

// ConfirmResult describes a completed replacement.
type ConfirmResult struct {
	Message            string
	TotalRowsProcessed int
	BackupFile         string
	UploadID           string
}

// Preview parses the first sheet of path without touching the database.
func (s *Service) Preview(ctx context.Context, path string) (*PreviewResult, error) {
	resolved, err := s.scratch.Resolve(path)
	if err != nil {
		return nil, err
	}

	sheet, err := s.readSheet(ctx, resolved)
	if err != nil {
		return nil, err
	}

	data := sheet.Rows[1:]
	limit := previewRowLimit
	if len(data) < limit {
		limit = len(data)
	}

	return &PreviewResult{
		Headers:     sheet.Rows[0],
		PreviewRows: data[:limit],
		TotalRows:   len(data),
		SheetName:   sheet.Name,
		FilePath:    path,
	}, nil
}

// Confirm replaces the roster with the rows of a previewed file after taking a backup.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	resolved, err := s.scratch.Resolve(in.FilePath)
	if err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.logger.With().Str("file", filepath.Base(resolved)).Str("actor_id", in.ActorID).Logger()

	sheet, err := s.readSheet(ctx, resolved)
	if err != nil {
		return nil, err
	}

	idx := indexHeaders(sheet.Rows[0])
	if missing := idx.missing(); len(missing) > 0 {
		s.discard(resolved, log)
		return nil, &MissingColumnsError{Columns: missing}
	}

	now := s.clock.Now()
	rows := buildEmployees(idx, sheet.Rows[1:], now)
	if len(rows) == 0 {
		s.discard(resolved, log)
		return nil, ErrNoValidRows
	}

	if err := s.backups.EnsureDir(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackupWrite, err)
	}

	var (
		backupPath string
		record     *roster.UploadRecord
		written    int
	)
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.roster.Lock(txCtx); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageReplace, err)
		}

		current, err := s.roster.ListAll(txCtx)
		if err != nil {
			return fmt.Errorf("%w: read current roster: %v", ErrBackupWrite, err)
		}

		backupPath, err = s.backups.Write(txCtx, current, now)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackupWrite, err)
		}
		log.Info().Str("backup", backupPath).Int("rows", len(current)).Msg("roster backup written")

		written, err = s.roster.ReplaceAll(txCtx, rows)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageReplace, err)
		}

		record, err = s.uploads.Create(txCtx, &roster.UploadRecord{
			UploadedBy: in.ActorID,
			FileName:   filepath.Base(resolved),
			RowCount:   written,
			UploadedAt: now,
			Status:     roster.UploadStatusActive,
			BackupPath: backupPath,
		})
		if err != nil {
			return fmt.Errorf("%w: record upload: %v", ErrStorageReplace, err)
		}
		return nil
	})
	s.observe(written, err)
	if err != nil {
		log.Error().Err(err).Msg("roster replacement aborted")
		return nil, err
	}

	log.Info().Str("upload_id", record.ID).Int("rows", written).Msg("roster replaced")

	if s.audit != nil {
		s.audit.Record(audit.Entry{
			UserID:      in.ActorID,
			Action:      audit.ActionConfirmUpload,
			TargetTable: audit.TargetEmployee,
			Details: map[string]any{
				"file":      in.FilePath,
				"rows":      written,
				"upload_id": record.ID,
			},
		})
	}

	s.discard(resolved, log)

	return &ConfirmResult{
		Message:            confirmMessage,
		TotalRowsProcessed: written,
		BackupFile:         backupPath,
		UploadID:           record.ID,
	}, nil
}

func (s *Service) readSheet(ctx context.Context, path string) (*Sheet, error) {
	sheet, err := s.reader.ReadFirstSheet(ctx, path)
	if err != nil {
		return nil, err
	}
	if sheet == nil || len(sheet.Rows) < 2 {
		return nil, ErrEmptyData
	}
	return sheet, nil
}

func (s *Service) discard(path string, log zerolog.Logger) {
	if err := s.scratch.Remove(path); err != nil && !errors.Is(err, ErrInvalidFilePath) {
		log.Warn().Err(err).Msg("failed to remove temporary upload")
	}
}

func (s *Service) observe(rows int, err error) {
	if s.observer != nil {
		s.observer.ObserveReplace(operationName, rows, err)
	}
}
