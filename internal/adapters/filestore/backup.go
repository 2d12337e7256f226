package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/shopspring/decimal"
)

const backupTimeLayout = "2006-01-02T15:04:05.000Z"

// backupEmployee is the on-disk form of one roster row. Dates are strings so
// artifacts stay readable and diffable.
type backupEmployee struct {
	Matricula      string           `json:"matricula"`
	Nome           string           `json:"nome"`
	DataNascimento string           `json:"data_nascimento"`
	DataAdmissao   string           `json:"data_admissao"`
	FuncaoCodigo   string           `json:"funcao_codigo"`
	FuncaoDesc     string           `json:"funcao_desc"`
	Setor          string           `json:"setor"`
	Jornada        int              `json:"jornada"`
	SalarioAtual   decimal.Decimal  `json:"salario_atual"`
	SalarioHora    *decimal.Decimal `json:"salario_hora"`
	Escolaridade   *string          `json:"escolaridade"`
	Status         string           `json:"status"`
}

// BackupStore keeps roster snapshots as JSON files in one directory.
type BackupStore struct {
	dir string
}

// NewBackupStore creates a BackupStore rooted at dir.
func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{dir: dir}
}

// EnsureDir creates the backup directory when missing.
func (s *BackupStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o750)
}

// Write stores rows in a new artifact named after at and returns its path.
// Artifacts are never overwritten.
func (s *BackupStore) Write(ctx context.Context, rows []roster.Employee, at time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload := make([]backupEmployee, 0, len(rows))
	for _, e := range rows {
		payload = append(payload, toBackup(e))
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("filestore: encode backup: %w", err)
	}

	stamp := strings.ReplaceAll(at.UTC().Format(backupTimeLayout), ":", "-")
	name := fmt.Sprintf("backup-employees-%s-%s.json", stamp, uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("filestore: create backup: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("filestore: write backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("filestore: sync backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("filestore: close backup: %w", err)
	}
	return path, nil
}

// Read loads an artifact. Only files inside the backup directory are read.
// Decoding failures wrap roster.ErrBackupMalformed.
func (s *BackupStore) Read(ctx context.Context, path string) ([]roster.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("filestore: read backup: %w", err)
	}

	var payload []backupEmployee
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", roster.ErrBackupMalformed, err)
	}

	rows := make([]roster.Employee, 0, len(payload))
	for i, p := range payload {
		e, err := fromBackup(p)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", roster.ErrBackupMalformed, i, err)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

func toBackup(e roster.Employee) backupEmployee {
	b := backupEmployee{
		Matricula:      e.Matricula,
		Nome:           e.Nome,
		DataNascimento: e.DataNascimento.UTC().Format(backupTimeLayout),
		DataAdmissao:   e.DataAdmissao.UTC().Format(backupTimeLayout),
		FuncaoCodigo:   e.FuncaoCodigo,
		FuncaoDesc:     e.FuncaoDesc,
		Setor:          e.Setor,
		Jornada:        e.Jornada,
		SalarioAtual:   e.SalarioAtual,
		SalarioHora:    e.SalarioHora,
		Status:         e.Status,
	}
	if e.Escolaridade != "" {
		esc := e.Escolaridade
		b.Escolaridade = &esc
	}
	return b
}

func fromBackup(b backupEmployee) (roster.Employee, error) {
	if strings.TrimSpace(b.Matricula) == "" {
		return roster.Employee{}, fmt.Errorf("missing matricula")
	}
	birth, err := parseBackupTime(b.DataNascimento)
	if err != nil {
		return roster.Employee{}, fmt.Errorf("data_nascimento: %w", err)
	}
	hired, err := parseBackupTime(b.DataAdmissao)
	if err != nil {
		return roster.Employee{}, fmt.Errorf("data_admissao: %w", err)
	}

	e := roster.Employee{
		Matricula:      b.Matricula,
		Nome:           b.Nome,
		DataNascimento: birth,
		DataAdmissao:   hired,
		FuncaoCodigo:   b.FuncaoCodigo,
		FuncaoDesc:     b.FuncaoDesc,
		Setor:          b.Setor,
		Jornada:        b.Jornada,
		SalarioAtual:   b.SalarioAtual,
		SalarioHora:    b.SalarioHora,
		Status:         b.Status,
	}
	if b.Escolaridade != nil {
		e.Escolaridade = *b.Escolaridade
	}
	return e, nil
}

func parseBackupTime(raw string) (time.Time, error) {
	for _, layout := range []string{backupTimeLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
