package filestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("filestore: file too large")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var spreadsheetExtensions = map[string]struct{}{
	".xlsx": {},
	".xls":  {},
	".csv":  {},
}

var spreadsheetMIMEs = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"text/csv",
	"text/plain",
}

// Scratch is the temporary area holding uploads between preview and confirm.
type Scratch struct {
	dir      string
	maxBytes int64
}

// NewScratch creates a Scratch rooted at dir.
func NewScratch(dir string, maxBytes int64) *Scratch {
	return &Scratch{dir: dir, maxBytes: maxBytes}
}

// EnsureDir creates the scratch directory when missing.
func (s *Scratch) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o750)
}

// Save stores an uploaded spreadsheet under a random prefix and returns the
// path later handed to preview and confirm. Only xlsx, xls and csv files are
// accepted, by extension and by sniffed content.
func (s *Scratch) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := sanitizeName(originalName)
	if _, ok := spreadsheetExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return "", ingest.ErrUnsupportedFile
	}

	prefix := make([]byte, 16)
	if _, err := rand.Read(prefix); err != nil {
		return "", fmt.Errorf("filestore: random name: %w", err)
	}
	path := filepath.Join(s.dir, hex.EncodeToString(prefix)+"-"+name)

	if err := writeLimited(path, r, s.maxBytes); err != nil {
		return "", err
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("filestore: detect type: %w", err)
	}
	if !isSpreadsheet(mt) && !(strings.EqualFold(filepath.Ext(name), ".xlsx") && hasAncestor(mt, "application/zip")) {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %s", ingest.ErrUnsupportedFile, mt.String())
	}
	return path, nil
}

// Resolve returns the cleaned path when it names a regular file directly
// inside the scratch directory.
func (s *Scratch) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ingest.ErrInvalidFilePath
	}

	root, err := filepath.Abs(s.dir)
	if err != nil {
		return "", fmt.Errorf("filestore: scratch dir: %w", err)
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", ingest.ErrInvalidFilePath
	}
	if filepath.Dir(abs) != root {
		return "", ingest.ErrInvalidFilePath
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", ingest.ErrInvalidFilePath
	}
	return filepath.Join(s.dir, filepath.Base(abs)), nil
}

// Remove deletes a scratch file.
func (s *Scratch) Remove(path string) error {
	resolved, err := s.Resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// isSpreadsheet walks the detected type and its parents, so csv files
// sniffed as plain text are accepted.
func isSpreadsheet(mt *mimetype.MIME) bool {
	for _, want := range spreadsheetMIMEs {
		if hasAncestor(mt, want) {
			return true
		}
	}
	return false
}

func hasAncestor(mt *mimetype.MIME, want string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return sanitizeToken(base, "upload")
}

func sanitizeToken(s, fallback string) string {
	s = strings.Trim(unsafeNameChars.ReplaceAllString(s, "_"), "._")
	if s == "" {
		return fallback
	}
	return s
}

// writeLimited copies r to a new file at path, failing with ErrTooLarge when
// more than maxBytes arrive. A non-positive limit disables the check.
func writeLimited(path string, r io.Reader, maxBytes int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("filestore: create %s: %w", filepath.Base(path), err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("filestore: write %s: %w", filepath.Base(path), err)
	}
	if maxBytes > 0 && n > maxBytes {
		_ = os.Remove(path)
		return ErrTooLarge
	}
	return nil
}
