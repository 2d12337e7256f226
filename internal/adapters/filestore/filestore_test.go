package filestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBackupStore_WriteRead(t *testing.T) {
	t.Parallel()

	store := NewBackupStore(filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, store.EnsureDir())

	hourly := decimal.RequireFromString("15.90")
	rows := []roster.Employee{
		{
			Matricula:      "1001",
			Nome:           "Ana Silva",
			DataNascimento: time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC),
			DataAdmissao:   time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
			FuncaoCodigo:   "FIN-JR",
			FuncaoDesc:     "Analista",
			Setor:          "Financeiro",
			Jornada:        220,
			SalarioAtual:   decimal.RequireFromString("3500.50"),
			SalarioHora:    &hourly,
			Escolaridade:   "Superior",
			Status:         "ativo",
		},
		{Matricula: "1002", Nome: "Bruno", Status: "Férias", SalarioAtual: decimal.Zero},
	}
	at := time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)

	path, err := store.Write(context.Background(), rows, at)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "backup-employees-2025-10-15T09-30-00.000Z-"))
	assert.Equal(t, ".json", filepath.Ext(path))

	second, err := store.Write(context.Background(), nil, at)
	require.NoError(t, err)
	assert.NotEqual(t, path, second, "artifacts written in the same instant must not collide")

	got, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].Matricula, got[0].Matricula)
	assert.True(t, rows[0].DataNascimento.Equal(got[0].DataNascimento))
	assert.True(t, rows[0].SalarioAtual.Equal(got[0].SalarioAtual))
	require.NotNil(t, got[0].SalarioHora)
	assert.True(t, hourly.Equal(*got[0].SalarioHora))
	assert.Equal(t, "Superior", got[0].Escolaridade)
	assert.Nil(t, got[1].SalarioHora)
	assert.Equal(t, "", got[1].Escolaridade)

	empty, err := store.Read(context.Background(), second)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBackupStore_ReadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewBackupStore(dir)

	_, err := store.Read(context.Background(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, roster.ErrBackupMalformed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))
	_, err = store.Read(context.Background(), "bad.json")
	assert.ErrorIs(t, err, roster.ErrBackupMalformed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "baddate.json"),
		[]byte(`[{"matricula":"1","data_nascimento":"ontem","data_admissao":"2020-01-10"}]`), 0o600))
	_, err = store.Read(context.Background(), "baddate.json")
	assert.ErrorIs(t, err, roster.ErrBackupMalformed)

	outside := filepath.Join(t.TempDir(), "elsewhere.json")
	require.NoError(t, os.WriteFile(outside, []byte("[]"), 0o600))
	_, err = store.Read(context.Background(), outside)
	assert.Error(t, err, "files outside the backup directory are not read")
}

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"matricula", "nome", "status"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestScratch_SaveResolveRemove(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewScratch(dir, 1<<20)
	require.NoError(t, s.EnsureDir())

	xlsxPath, err := s.Save(context.Background(), "Quadro Outubro.xlsx", bytes.NewReader(xlsxBytes(t)))
	require.NoError(t, err)
	base := filepath.Base(xlsxPath)
	assert.Regexp(t, `^[0-9a-f]{32}-Quadro_Outubro\.xlsx$`, base)

	csvPath, err := s.Save(context.Background(), `C:\fakepath\roster.csv`, strings.NewReader("matricula,nome,status\n1,Ana,ativo\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(csvPath, "-roster.csv"))

	resolved, err := s.Resolve(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, xlsxPath, resolved)

	require.NoError(t, s.Remove(xlsxPath))
	_, err = s.Resolve(xlsxPath)
	assert.ErrorIs(t, err, ingest.ErrInvalidFilePath, "removed files no longer resolve")
}

func TestScratch_Rejections(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	s := NewScratch(dir, 64)
	require.NoError(t, s.EnsureDir())

	_, err := s.Save(context.Background(), "photo.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFile)

	_, err = s.Save(context.Background(), "fake.xlsx", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFile, "content must match the extension family")

	_, err = s.Save(context.Background(), "big.csv", strings.NewReader(strings.Repeat("a,b\n", 100)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave nothing behind")

	secret := filepath.Join(root, "secret.csv")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o600))
	for _, p := range []string{"", secret, filepath.Join(dir, "..", "secret.csv"), dir, filepath.Join(dir, "missing.csv")} {
		_, err := s.Resolve(p)
		assert.ErrorIs(t, err, ingest.ErrInvalidFilePath, "path %q", p)
	}
}

func TestPDFStore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "jd_pdfs")
	s := NewPDFStore(dir, 1<<20)
	s.now = func() time.Time { return time.Unix(0, 42) }

	url, err := s.SavePDF(context.Background(), "TI/SR", strings.NewReader("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n%%EOF\n"))
	require.NoError(t, err)
	assert.Equal(t, "/jd_pdfs/TI_SR-42.pdf", url)

	_, err = os.Stat(filepath.Join(dir, "TI_SR-42.pdf"))
	require.NoError(t, err)

	_, err = s.SavePDF(context.Background(), "TI-SR", strings.NewReader("plain text, not a pdf"))
	assert.ErrorIs(t, err, jobdescription.ErrNotPDF)

	require.NoError(t, s.Delete(url))
	_, err = os.Stat(filepath.Join(dir, "TI_SR-42.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Delete("/etc/passwd"))
}
