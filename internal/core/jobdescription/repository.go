package jobdescription

import (
	"context"
	"io"
)

// Repository persists job descriptions.
type Repository interface {
	List(ctx context.Context) ([]*JobDescription, error)
	FindByID(ctx context.Context, id int64) (*JobDescription, error)
	FindByCode(ctx context.Context, codFuncao string) (*JobDescription, error)
	Create(ctx context.Context, jd *JobDescription) (*JobDescription, error)
	SetFileURL(ctx context.Context, codFuncao, url string) error
}

// FileStore keeps uploaded PDF documents and returns their public URL.
type FileStore interface {
	SavePDF(ctx context.Context, codFuncao string, r io.Reader) (string, error)
	Delete(url string) error
}
