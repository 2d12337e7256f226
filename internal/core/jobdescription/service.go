package jobdescription

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
)

// Service manages job descriptions and their PDF attachments.
type Service struct {
	repo  Repository
	files FileStore
	audit audit.Sink
}

// UseCase is the public surface of the job-description service.
type UseCase interface {
	List(ctx context.Context) ([]*JobDescription, error)
	Get(ctx context.Context, id int64) (*JobDescription, error)
	Create(ctx context.Context, in CreateInput) (*JobDescription, error)
	AttachPDF(ctx context.Context, in AttachInput) (*JobDescription, error)
}

// NewService creates a Service.
func NewService(repo Repository, files FileStore, sink audit.Sink) *Service {
	return &Service{repo: repo, files: files, audit: sink}
}

// CreateInput is the payload for a new job description.
type CreateInput struct {
	ActorID          string
	CodFuncao        string
	Titulo           string
	DescricaoSumaria string
	ConteudoHTML     string
}

// AttachInput uploads the PDF of an existing job description.
type AttachInput struct {
	ActorID   string
	CodFuncao string
	File      io.Reader
}

// List returns every job description ordered by title.
func (s *Service) List(ctx context.Context) ([]*JobDescription, error) {
	return s.repo.List(ctx)
}

// Get returns one job description.
func (s *Service) Get(ctx context.Context, id int64) (*JobDescription, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// Create stores a new job description.
func (s *Service) Create(ctx context.Context, in CreateInput) (*JobDescription, error) {
	jd := &JobDescription{
		CodFuncao:        strings.TrimSpace(in.CodFuncao),
		Titulo:           strings.TrimSpace(in.Titulo),
		DescricaoSumaria: strings.TrimSpace(in.DescricaoSumaria),
		ConteudoHTML:     in.ConteudoHTML,
	}
	if jd.CodFuncao == "" || jd.Titulo == "" {
		return nil, fmt.Errorf("%w: cod_funcao and titulo are required", ErrInvalidInput)
	}

	created, err := s.repo.Create(ctx, jd)
	if err != nil {
		return nil, err
	}

	s.record(audit.Entry{
		UserID:      in.ActorID,
		Action:      audit.ActionCreateJobDescription,
		TargetTable: audit.TargetJobDescription,
		TargetID:    fmt.Sprint(created.ID),
		Details:     map[string]any{"cod_funcao": created.CodFuncao},
	})
	return created, nil
}

// AttachPDF stores the document and links it to the job description of codFuncao.
func (s *Service) AttachPDF(ctx context.Context, in AttachInput) (*JobDescription, error) {
	code := strings.TrimSpace(in.CodFuncao)
	if code == "" || in.File == nil {
		return nil, ErrInvalidInput
	}

	jd, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	url, err := s.files.SavePDF(ctx, code, in.File)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetFileURL(ctx, code, url); err != nil {
		_ = s.files.Delete(url)
		return nil, err
	}
	jd.ArquivoURL = url

	s.record(audit.Entry{
		UserID:      in.ActorID,
		Action:      audit.ActionUploadJobDescription,
		TargetTable: audit.TargetJobDescription,
		TargetID:    fmt.Sprint(jd.ID),
		Details:     map[string]any{"cod_funcao": code, "arquivo_url": url},
	})
	return jd, nil
}

func (s *Service) record(e audit.Entry) {
	if s.audit != nil {
		s.audit.Record(e)
	}
}
