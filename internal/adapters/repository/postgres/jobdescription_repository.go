package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

const jobDescriptionSelect = `
        SELECT id, cod_funcao, titulo, descricao_sumaria, conteudo_html, arquivo_url
          FROM job_descriptions`

// JobDescriptionRepository stores job descriptions in PostgreSQL.
type JobDescriptionRepository struct {
	pool pgdb.Queryer
}

// NewJobDescriptionRepository creates a JobDescriptionRepository.
func NewJobDescriptionRepository(pool pgdb.Queryer) *JobDescriptionRepository {
	return &JobDescriptionRepository{pool: pool}
}

// List returns every job description ordered by title.
func (r *JobDescriptionRepository) List(ctx context.Context) ([]*jobdescription.JobDescription, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, jobDescriptionSelect+`
         ORDER BY titulo ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*jobdescription.JobDescription, 0)
	for rows.Next() {
		jd, err := scanJobDescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, jd)
	}
	return out, rows.Err()
}

// FindByID returns one job description.
func (r *JobDescriptionRepository) FindByID(ctx context.Context, id int64) (*jobdescription.JobDescription, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	return scanJobDescription(exec.QueryRow(ctx, jobDescriptionSelect+`
         WHERE id = $1
    `, id))
}

// FindByCode returns the job description of a function code.
func (r *JobDescriptionRepository) FindByCode(ctx context.Context, codFuncao string) (*jobdescription.JobDescription, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	return scanJobDescription(exec.QueryRow(ctx, jobDescriptionSelect+`
         WHERE cod_funcao = $1
    `, codFuncao))
}

// Create inserts a job description.
func (r *JobDescriptionRepository) Create(ctx context.Context, jd *jobdescription.JobDescription) (*jobdescription.JobDescription, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	created, err := scanJobDescription(exec.QueryRow(ctx, `
        INSERT INTO job_descriptions (cod_funcao, titulo, descricao_sumaria, conteudo_html, arquivo_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, cod_funcao, titulo, descricao_sumaria, conteudo_html, arquivo_url
    `, jd.CodFuncao, jd.Titulo, jd.DescricaoSumaria, jd.ConteudoHTML, jd.ArquivoURL))
	if err != nil {
		if pgErrorCode(err) == uniqueViolationCode {
			return nil, jobdescription.ErrDuplicateCode
		}
		return nil, err
	}
	return created, nil
}

// SetFileURL links the stored PDF to the function code.
func (r *JobDescriptionRepository) SetFileURL(ctx context.Context, codFuncao, url string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE job_descriptions SET arquivo_url = $1 WHERE cod_funcao = $2`, url, codFuncao)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return jobdescription.ErrNotFound
	}
	return nil
}

func scanJobDescription(row pgx.Row) (*jobdescription.JobDescription, error) {
	var jd jobdescription.JobDescription
	if err := row.Scan(&jd.ID, &jd.CodFuncao, &jd.Titulo, &jd.DescricaoSumaria, &jd.ConteudoHTML, &jd.ArquivoURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobdescription.ErrNotFound
		}
		return nil, err
	}
	return &jd, nil
}
