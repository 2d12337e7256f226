package rollback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/rs/zerolog"
)

const (
	successMessage = "Rollback concluído. O banco de dados foi restaurado."
	operationName  = "rollback"
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

// RosterStore is the part of the roster store a restore needs.
type RosterStore interface {
	Lock(ctx context.Context) error
	ReplaceAll(ctx context.Context, rows []roster.Employee) (int, error)
}

// ReplaceObserver is notified after every restore attempt.
type ReplaceObserver interface {
	ObserveReplace(operation string, rows int, err error)
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Uploads  roster.UploadRepository
	Backups  roster.BackupStore
	Roster   RosterStore
	Guard    *roster.ReplaceGuard
	Audit    audit.Sink
	Observer ReplaceObserver
	Clock    Clock
	Tx       TransactionManager
	Logger   zerolog.Logger
}

// Service restores the roster from the backup taken by an upload.
type Service struct {
	uploads  roster.UploadRepository
	backups  roster.BackupStore
	roster   RosterStore
	guard    *roster.ReplaceGuard
	audit    audit.Sink
	observer ReplaceObserver
	clock    Clock
	tx       TransactionManager
	logger   zerolog.Logger
}

// UseCase is the public surface of the rollback engine.
type UseCase interface {
	Rollback(ctx context.Context, in Input) (*Result, error)
}

// NewService creates a Service. Guard must be the one shared with ingest.
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
		uploads:  d.Uploads,
		backups:  d.Backups,
		roster:   d.Roster,
		guard:    d.Guard,
		audit:    d.Audit,
		observer: d.Observer,
		clock:    d.Clock,
		tx:       d.Tx,
		logger:   d.Logger.With().Str("component", "rollback").Logger(),
	}
}

// Input identifies the upload to revert.
type Input struct {
	UploadID string
	ActorID  string
}

// Result describes a completed rollback.
type Result struct {
	Message      string
	RestoredRows int
}

// Rollback replaces the roster with the backup artifact of the given upload
// and marks the upload reverted. A reverted upload cannot be rolled back again.
func (s *Service) Rollback(ctx context.Context, in Input) (*Result, error) {
	id := strings.TrimSpace(in.UploadID)
	if id == "" {
		return nil, ErrInvalidUploadID
	}

	release, err := s.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.logger.With().Str("upload_id", id).Str("actor_id", in.ActorID).Logger()

	record, err := s.uploads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == roster.UploadStatusReverted {
		return nil, ErrAlreadyReverted
	}
	if strings.TrimSpace(record.BackupPath) == "" {
		return nil, ErrMissingBackup
	}

	rows, err := s.backups.Read(ctx, record.BackupPath)
	if err != nil {
		if errors.Is(err, roster.ErrBackupMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrBackupParse, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackupRead, err)
	}

	now := s.clock.Now()
	var restored int
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.roster.Lock(txCtx); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageReplace, err)
		}

		restored, err = s.roster.ReplaceAll(txCtx, rows)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageReplace, err)
		}

		if err := s.uploads.MarkReverted(txCtx, id, in.ActorID, now); err != nil {
			if errors.Is(err, roster.ErrUploadNotFound) {
				// another process reverted it between the read and the lock
				return ErrAlreadyReverted
			}
			return fmt.Errorf("%w: mark reverted: %v", ErrStorageReplace, err)
		}
		return nil
	})
	if s.observer != nil {
		s.observer.ObserveReplace(operationName, restored, err)
	}
	if err != nil {
		log.Error().Err(err).Msg("rollback aborted")
		return nil, err
	}

	log.Info().Str("backup", record.BackupPath).Int("rows", restored).Msg("roster restored from backup")

	if s.audit != nil {
		s.audit.Record(audit.Entry{
			UserID:      in.ActorID,
			Action:      audit.ActionRollbackUpload,
			TargetTable: audit.TargetUpload,
			TargetID:    id,
			Details: map[string]any{
				"backup": record.BackupPath,
				"rows":   restored,
			},
		})
	}

	return &Result{Message: successMessage, RestoredRows: restored}, nil
}
