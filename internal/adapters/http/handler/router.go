package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/headcount"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/rollback"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	defaultLoginRatePerMinute = 20
	defaultMaxUploadBytes     = 10 << 20
	multipartOverhead         = 1 << 20
)

// UploadStore receives multipart spreadsheets into the scratch area.
type UploadStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(path string) error
}

// HealthChecker reports whether the service's dependencies are reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Deps bundles the use cases and settings the router serves.
type Deps struct {
	Auth            auth.UseCase
	Gate            *auth.Gate
	Headcount       headcount.UseCase
	Ingest          ingest.UseCase
	Uploads         UploadStore
	Rollback        rollback.UseCase
	Roster          roster.UseCase
	Audit           audit.UseCase
	JobDescriptions jobdescription.UseCase
	Health          HealthChecker
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer
	Logger          zerolog.Logger

	AllowedOrigins     []string
	LoginRatePerMinute int
	MaxUploadBytes     int64
	PDFDir             string
}

// Handler serves the HTTP API.
type Handler struct {
	auth      auth.UseCase
	gate      *auth.Gate
	headcount headcount.UseCase
	ingest    ingest.UseCase
	uploads   UploadStore
	rollback  rollback.UseCase
	roster    roster.UseCase
	audit     audit.UseCase
	jobs      jobdescription.UseCase
	health    HealthChecker
	metrics   *metrics.Metrics
	validate  *validator.Validate
	maxUpload int64
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(d Deps) http.Handler {
	if d.LoginRatePerMinute <= 0 {
		d.LoginRatePerMinute = defaultLoginRatePerMinute
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{
		auth:      d.Auth,
		gate:      d.Gate,
		headcount: d.Headcount,
		ingest:    d.Ingest,
		uploads:   d.Uploads,
		rollback:  d.Rollback,
		roster:    d.Roster,
		audit:     d.Audit,
		jobs:      d.JobDescriptions,
		health:    d.Health,
		metrics:   d.Metrics,
		validate:  newValidator(),
		maxUpload: d.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(requestLogging(d.Logger)...)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(h.observe)

	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	if d.PDFDir != "" {
		r.Handle("/jd_pdfs/*", http.StripPrefix("/jd_pdfs/", noDirListing(http.FileServer(http.Dir(d.PDFDir)))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.getHealth)

		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(d.LoginRatePerMinute, time.Minute)).Post("/login", h.login)

			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Post("/change-password", h.changePassword)
				r.With(h.require(auth.CapCreateUsers)).Post("/users", h.createUser)
				r.With(h.require(auth.CapAdmin)).Get("/users", h.listUsers)
				r.With(h.require(auth.CapCreateUsers)).Get("/roles", h.listRoles)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Route("/headcount", func(r chi.Router) {
				r.With(h.require(auth.CapViewTable)).Get("/", h.queryHeadcount)
				r.Get("/dashboard-data", h.dashboard)
				r.With(h.require(auth.CapUpload)).Post("/upload-preview", h.uploadPreview)
				r.With(h.require(auth.CapUpload)).Post("/upload-confirm", h.uploadConfirm)
				r.With(h.require(auth.CapAdmin)).Get("/uploads", h.listUploads)
				r.With(h.require(auth.CapAdmin)).Post("/rollback-upload/{id}", h.rollbackUpload)
			})

			r.Get("/employee/{matricula}", h.getEmployee)
			r.With(h.require(auth.CapAdmin)).Get("/admin/logs", h.listLogs)

			r.Route("/job-descriptions", func(r chi.Router) {
				r.With(h.require(auth.CapViewTable)).Get("/", h.listJobDescriptions)
				r.With(h.require(auth.CapViewTable)).Get("/{id}", h.getJobDescription)
				r.With(h.require(auth.CapAdmin)).Post("/", h.createJobDescription)
			})
			r.With(h.require(auth.CapAdmin)).Post("/jd/upload/{cod_funcao}", h.uploadJobDescriptionPDF)
		})
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
