package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/filestore"
	grpchandler "github.com/ogurasousui/headcount-clean-arch/internal/adapters/grpc/handler"
	httphandler "github.com/ogurasousui/headcount-clean-arch/internal/adapters/http/handler"
	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/security"
	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/spreadsheet"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/headcount"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/rollback"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/logging"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/metrics"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	logger := logging.New(cfg.Logging, nil)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	scratch := filestore.NewScratch(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err := scratch.EnsureDir(); err != nil {
		return err
	}
	backups := filestore.NewBackupStore(cfg.Storage.BackupDir)
	if err := backups.EnsureDir(); err != nil {
		return err
	}
	pdfs := filestore.NewPDFStore(cfg.Storage.JobDescriptionDir, cfg.Storage.MaxUploadBytes)

	tokens, err := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	policy, err := headcount.NewPeriodPolicy(cfg.Reporting.Period, cfg.Reporting.Location)
	if err != nil {
		return err
	}

	txManager := pg.NewTransactionManager(dbPool)
	userRepo := postgres.NewUserRepository(dbPool)
	roleRepo := postgres.NewRoleRepository(dbPool)
	rosterRepo := postgres.NewRosterRepository(dbPool)
	uploadRepo := postgres.NewUploadRepository(dbPool)
	headcountRepo := postgres.NewHeadcountRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)
	jobRepo := postgres.NewJobDescriptionRepository(dbPool)

	recorder := audit.NewRecorder(auditRepo, audit.RecorderConfig{BufferSize: cfg.Audit.BufferSize}, logger, m, nil)
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn().Err(err).Msg("audit recorder did not drain")
		}
	}()

	guard := roster.NewReplaceGuard()

	authSvc := auth.NewService(auth.Deps{
		Users:             userRepo,
		Roles:             roleRepo,
		Tokens:            tokens,
		Hasher:            security.NewBcryptHasher(cfg.Auth.BcryptCost),
		Audit:             recorder,
		Observer:          m,
		Tx:                txManager,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})
	ingestSvc := ingest.NewService(ingest.Deps{
		Reader:   spreadsheet.NewReader(),
		Scratch:  scratch,
		Roster:   rosterRepo,
		Uploads:  uploadRepo,
		Backups:  backups,
		Guard:    guard,
		Audit:    recorder,
		Observer: m,
		Tx:       txManager,
		Logger:   logger,
	})
	rollbackSvc := rollback.NewService(rollback.Deps{
		Uploads:  uploadRepo,
		Backups:  backups,
		Roster:   rosterRepo,
		Guard:    guard,
		Audit:    recorder,
		Observer: m,
		Tx:       txManager,
		Logger:   logger,
	})
	headcountSvc := headcount.NewService(headcount.Deps{
		Positions:       headcountRepo,
		Realized:        rosterRepo,
		Policy:          policy,
		CountedStatuses: cfg.Reporting.CountedStatuses,
		Tx:              txManager,
	})

	health := grpchandler.NewHealthReporter(dbPool, cfg.Server.HealthCheckInterval, logger)
	go health.Run(ctx)

	router := httphandler.NewRouter(httphandler.Deps{
		Auth:               authSvc,
		Gate:               auth.NewGate(tokens, cfg.Auth.AdminRole),
		Headcount:          headcountSvc,
		Ingest:             ingestSvc,
		Uploads:            scratch,
		Rollback:           rollbackSvc,
		Roster:             roster.NewService(rosterRepo, uploadRepo, nil, cfg.Reporting.Location),
		Audit:              audit.NewService(auditRepo),
		JobDescriptions:    jobdescription.NewService(jobRepo, pdfs, recorder),
		Health:             health,
		Metrics:            m,
		Gatherer:           reg,
		Logger:             logger,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		MaxUploadBytes:     cfg.Storage.MaxUploadBytes,
		PDFDir:             pdfs.Dir(),
	})

	srv := server.New(cfg.Server, router, []server.Registrar{health}, logger)
	return srv.Run(ctx)
}
