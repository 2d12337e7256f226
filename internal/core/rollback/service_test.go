package rollback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/rs/zerolog"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeRoster struct {
	rows       []roster.Employee
	replaceErr error
}

func (r *fakeRoster) Lock(context.Context) error { return nil }

func (r *fakeRoster) ReplaceAll(_ context.Context, rows []roster.Employee) (int, error) {
	r.rows = nil
	if r.replaceErr != nil {
		return 0, r.replaceErr
	}
	r.rows = append([]roster.Employee(nil), rows...)
	return len(rows), nil
}

type fakeTx struct {
	roster  *fakeRoster
	uploads *fakeUploads
}

// WithinReadWrite restores the roster and upload state when fn fails.
func (t fakeTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	rows := append([]roster.Employee(nil), t.roster.rows...)
	records := t.uploads.snapshot()
	if err := fn(ctx); err != nil {
		t.roster.rows = rows
		t.uploads.records = records
		return err
	}
	return nil
}

type fakeUploads struct {
	records map[string]roster.UploadRecord
}

func (u *fakeUploads) snapshot() map[string]roster.UploadRecord {
	out := make(map[string]roster.UploadRecord, len(u.records))
	for k, v := range u.records {
		out[k] = v
	}
	return out
}

func (u *fakeUploads) Create(_ context.Context, r *roster.UploadRecord) (*roster.UploadRecord, error) {
	u.records[r.ID] = *r
	return r, nil
}

func (u *fakeUploads) FindByID(_ context.Context, id string) (*roster.UploadRecord, error) {
	r, ok := u.records[id]
	if !ok {
		return nil, roster.ErrUploadNotFound
	}
	return &r, nil
}

func (u *fakeUploads) MarkReverted(_ context.Context, id, actorID string, at time.Time) error {
	r, ok := u.records[id]
	if !ok || r.Status != roster.UploadStatusActive {
		return roster.ErrUploadNotFound
	}
	r.Status = roster.UploadStatusReverted
	r.RevertedBy = actorID
	r.RevertedAt = &at
	u.records[id] = r
	return nil
}

func (u *fakeUploads) List(context.Context) ([]*roster.UploadRecord, error) { return nil, nil }

type fakeBackups struct {
	artifacts map[string][]roster.Employee
	readErr   error
}

func (b *fakeBackups) EnsureDir() error { return nil }

func (b *fakeBackups) Write(context.Context, []roster.Employee, time.Time) (string, error) {
	return "", errors.New("not used")
}

func (b *fakeBackups) Read(_ context.Context, path string) ([]roster.Employee, error) {
	if b.readErr != nil {
		return nil, b.readErr
	}
	rows, ok := b.artifacts[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return rows, nil
}

type fakeSink struct {
	entries []audit.Entry
}

func (s *fakeSink) Record(e audit.Entry) {
	s.entries = append(s.entries, e)
}

type fixture struct {
	svc     *Service
	roster  *fakeRoster
	uploads *fakeUploads
	backups *fakeBackups
	sink    *fakeSink
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		roster: &fakeRoster{rows: []roster.Employee{
			{Matricula: "new-1", Nome: "Novo", Status: "ativo"},
		}},
		uploads: &fakeUploads{records: map[string]roster.UploadRecord{
			"u1": {ID: "u1", Status: roster.UploadStatusActive, BackupPath: "backups/one.json"},
			"u2": {ID: "u2", Status: roster.UploadStatusActive, BackupPath: "backups/two.json"},
			"u3": {ID: "u3", Status: roster.UploadStatusActive},
		}},
		backups: &fakeBackups{artifacts: map[string][]roster.Employee{
			"backups/one.json": {
				{Matricula: "1001", Nome: "Ana", Status: "ativo", DataAdmissao: time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)},
				{Matricula: "1002", Nome: "Bruno", Status: "Férias"},
			},
			"backups/two.json": {
				{Matricula: "2001", Nome: "Carla", Status: "ativo"},
			},
		}},
		sink: &fakeSink{},
		now:  time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Deps{
		Uploads: f.uploads,
		Backups: f.backups,
		Roster:  f.roster,
		Audit:   f.sink,
		Clock:   stubClock{now: f.now},
		Tx:      fakeTx{roster: f.roster, uploads: f.uploads},
		Logger:  zerolog.New(io.Discard),
	})
	return f
}

func TestService_Rollback_RestoresBackup(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	result, err := f.svc.Rollback(context.Background(), Input{UploadID: "u1", ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}

	if result.RestoredRows != 2 || result.Message == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !reflect.DeepEqual(f.roster.rows, f.backups.artifacts["backups/one.json"]) {
		t.Fatalf("roster does not match the backup: %+v", f.roster.rows)
	}

	rec := f.uploads.records["u1"]
	if rec.Status != roster.UploadStatusReverted || rec.RevertedBy != "admin-1" || rec.RevertedAt == nil || !rec.RevertedAt.Equal(f.now) {
		t.Fatalf("upload not marked reverted: %+v", rec)
	}

	if len(f.sink.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.sink.entries))
	}
	entry := f.sink.entries[0]
	if entry.Action != audit.ActionRollbackUpload || entry.TargetTable != audit.TargetUpload || entry.TargetID != "u1" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestService_Rollback_UsesOnlyTargetArtifact(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// u2 is newer, but rolling back u1 must restore u1's snapshot only.
	if _, err := f.svc.Rollback(context.Background(), Input{UploadID: "u1", ActorID: "admin-1"}); err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}
	if len(f.roster.rows) != 2 || f.roster.rows[0].Matricula != "1001" {
		t.Fatalf("unexpected roster %+v", f.roster.rows)
	}
	if f.uploads.records["u2"].Status != roster.UploadStatusActive {
		t.Fatalf("other uploads must stay active")
	}
}

func TestService_Rollback_SecondAttemptFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Rollback(ctx, Input{UploadID: "u1", ActorID: "admin-1"}); err != nil {
		t.Fatalf("first Rollback returned error: %v", err)
	}
	after := append([]roster.Employee(nil), f.roster.rows...)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Rollback(ctx, Input{UploadID: "u1", ActorID: "admin-1"}); !errors.Is(err, ErrAlreadyReverted) {
			t.Fatalf("attempt %d: expected ErrAlreadyReverted, got %v", i, err)
		}
	}
	if !reflect.DeepEqual(f.roster.rows, after) {
		t.Fatalf("a rejected rollback must not mutate the roster")
	}
	if len(f.sink.entries) != 1 {
		t.Fatalf("expected a single audit entry, got %d", len(f.sink.entries))
	}
}

func TestService_Rollback_PreconditionErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		id     string
		mutate func(*fixture)
		want   error
	}{
		{name: "blank id", id: " ", want: ErrInvalidUploadID},
		{name: "not found", id: "missing", want: roster.ErrUploadNotFound},
		{name: "no backup reference", id: "u3", want: ErrMissingBackup},
		{
			name:   "unreadable artifact",
			id:     "u1",
			mutate: func(f *fixture) { delete(f.backups.artifacts, "backups/one.json") },
			want:   ErrBackupRead,
		},
		{
			name:   "malformed artifact",
			id:     "u1",
			mutate: func(f *fixture) { f.backups.readErr = fmt.Errorf("%w: unexpected end of JSON", roster.ErrBackupMalformed) },
			want:   ErrBackupParse,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if tc.mutate != nil {
				tc.mutate(f)
			}
			before := append([]roster.Employee(nil), f.roster.rows...)

			_, err := f.svc.Rollback(context.Background(), Input{UploadID: tc.id, ActorID: "admin-1"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !reflect.DeepEqual(f.roster.rows, before) {
				t.Fatalf("roster must be untouched")
			}
			if len(f.sink.entries) != 0 {
				t.Fatalf("no audit entry expected")
			}
		})
	}
}

func TestService_Rollback_ReplaceFailureLeavesStateIntact(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	before := append([]roster.Employee(nil), f.roster.rows...)
	f.roster.replaceErr = errors.New("connection reset")

	_, err := f.svc.Rollback(context.Background(), Input{UploadID: "u1", ActorID: "admin-1"})
	if !errors.Is(err, ErrStorageReplace) {
		t.Fatalf("expected ErrStorageReplace, got %v", err)
	}
	if !reflect.DeepEqual(f.roster.rows, before) {
		t.Fatalf("roster must be restored, got %+v", f.roster.rows)
	}
	if f.uploads.records["u1"].Status != roster.UploadStatusActive {
		t.Fatalf("upload must remain active after a failed restore")
	}
}
