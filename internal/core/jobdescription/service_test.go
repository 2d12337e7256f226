package jobdescription

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
)

type fakeRepo struct {
	items  []*JobDescription
	setErr error
}

func (r *fakeRepo) List(context.Context) ([]*JobDescription, error) {
	return r.items, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id int64) (*JobDescription, error) {
	for _, jd := range r.items {
		if jd.ID == id {
			c := *jd
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindByCode(_ context.Context, code string) (*JobDescription, error) {
	for _, jd := range r.items {
		if jd.CodFuncao == code {
			c := *jd
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) Create(_ context.Context, jd *JobDescription) (*JobDescription, error) {
	for _, existing := range r.items {
		if existing.CodFuncao == jd.CodFuncao {
			return nil, ErrDuplicateCode
		}
	}
	c := *jd
	c.ID = int64(len(r.items) + 1)
	r.items = append(r.items, &c)
	return &c, nil
}

func (r *fakeRepo) SetFileURL(_ context.Context, code, url string) error {
	if r.setErr != nil {
		return r.setErr
	}
	for _, jd := range r.items {
		if jd.CodFuncao == code {
			jd.ArquivoURL = url
			return nil
		}
	}
	return ErrNotFound
}

type fakeFiles struct {
	saved   map[string]string
	deleted []string
	err     error
}

func (f *fakeFiles) SavePDF(_ context.Context, code string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(string(b), "%PDF") {
		return "", ErrNotPDF
	}
	url := "/jd_pdfs/" + code + ".pdf"
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[url] = string(b)
	return url, nil
}

func (f *fakeFiles) Delete(url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeSink struct {
	entries []audit.Entry
}

func (s *fakeSink) Record(e audit.Entry) {
	s.entries = append(s.entries, e)
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	sink := &fakeSink{}
	svc := NewService(repo, &fakeFiles{}, sink)

	jd, err := svc.Create(context.Background(), CreateInput{ActorID: "admin-1", CodFuncao: " FIN-JR ", Titulo: "Analista Financeiro Jr"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if jd.ID != 1 || jd.CodFuncao != "FIN-JR" {
		t.Fatalf("unexpected job description %+v", jd)
	}
	if len(sink.entries) != 1 || sink.entries[0].Action != audit.ActionCreateJobDescription || sink.entries[0].TargetID != "1" {
		t.Fatalf("unexpected audit entries %+v", sink.entries)
	}

	if _, err := svc.Create(context.Background(), CreateInput{CodFuncao: "FIN-JR", Titulo: "Outro"}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{CodFuncao: "X"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeRepo{items: []*JobDescription{{ID: 7, CodFuncao: "TI-SR"}}}, &fakeFiles{}, nil)

	jd, err := svc.Get(context.Background(), 7)
	if err != nil || jd.CodFuncao != "TI-SR" {
		t.Fatalf("unexpected result %+v, %v", jd, err)
	}
	if _, err := svc.Get(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-positive id, got %v", err)
	}
}

func TestService_AttachPDF(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{items: []*JobDescription{{ID: 1, CodFuncao: "FIN-JR", Titulo: "Analista"}}}
	files := &fakeFiles{}
	sink := &fakeSink{}
	svc := NewService(repo, files, sink)

	jd, err := svc.AttachPDF(context.Background(), AttachInput{ActorID: "admin-1", CodFuncao: "FIN-JR", File: strings.NewReader("%PDF-1.4 body")})
	if err != nil {
		t.Fatalf("AttachPDF returned error: %v", err)
	}
	if jd.ArquivoURL != "/jd_pdfs/FIN-JR.pdf" || repo.items[0].ArquivoURL != jd.ArquivoURL {
		t.Fatalf("url not persisted: %+v", jd)
	}
	if len(sink.entries) != 1 || sink.entries[0].Action != audit.ActionUploadJobDescription {
		t.Fatalf("unexpected audit entries %+v", sink.entries)
	}
}

func TestService_AttachPDF_Errors(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{items: []*JobDescription{{ID: 1, CodFuncao: "FIN-JR"}}}
	files := &fakeFiles{}
	svc := NewService(repo, files, nil)
	ctx := context.Background()

	if _, err := svc.AttachPDF(ctx, AttachInput{CodFuncao: "NOPE", File: strings.NewReader("%PDF")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AttachPDF(ctx, AttachInput{CodFuncao: "FIN-JR", File: strings.NewReader("hello")}); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
	if _, err := svc.AttachPDF(ctx, AttachInput{CodFuncao: "FIN-JR"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	repo.setErr = errors.New("db down")
	if _, err := svc.AttachPDF(ctx, AttachInput{CodFuncao: "FIN-JR", File: strings.NewReader("%PDF-1.4")}); err == nil {
		t.Fatalf("expected the repository error")
	}
	if len(files.deleted) != 1 || files.deleted[0] != "/jd_pdfs/FIN-JR.pdf" {
		t.Fatalf("stored file must be removed when linking fails, got %v", files.deleted)
	}
}
