package filestore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
)

// PDFURLPrefix is the public path job-description files are served under.
const PDFURLPrefix = "/jd_pdfs/"

// PDFStore keeps job-description PDFs in one directory.
type PDFStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewPDFStore creates a PDFStore rooted at dir.
func NewPDFStore(dir string, maxBytes int64) *PDFStore {
	return &PDFStore{dir: dir, maxBytes: maxBytes, now: time.Now}
}

// Dir returns the directory served under PDFURLPrefix.
func (s *PDFStore) Dir() string {
	return s.dir
}

// SavePDF stores r as the PDF of codFuncao and returns its public URL.
func (s *PDFStore) SavePDF(ctx context.Context, codFuncao string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("filestore: pdf dir: %w", err)
	}

	br := bufio.NewReader(r)
	head, _ := br.Peek(3072)
	if !mimetype.Detect(head).Is("application/pdf") {
		return "", jobdescription.ErrNotPDF
	}

	name := fmt.Sprintf("%s-%d.pdf", sanitizeToken(codFuncao, "jd"), s.now().UnixNano())
	if err := writeLimited(filepath.Join(s.dir, name), br, s.maxBytes); err != nil {
		return "", err
	}
	return PDFURLPrefix + name, nil
}

// Delete removes the file behind a URL returned by SavePDF.
func (s *PDFStore) Delete(url string) error {
	if !strings.HasPrefix(url, PDFURLPrefix) {
		return fmt.Errorf("filestore: not a stored pdf url: %q", url)
	}
	return os.Remove(filepath.Join(s.dir, path.Base(url)))
}
