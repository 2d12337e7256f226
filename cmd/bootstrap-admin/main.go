package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/headcount-clean-arch/internal/adapters/security"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/auth"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/logging"
)

// passwordEnv carries the initial password so it never appears in the process list.
const passwordEnv = "BOOTSTRAP_ADMIN_PASSWORD"

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		matricula  = flag.String("matricula", "admin", "matricula of the administrator")
		nome       = flag.String("nome", "Administrador", "display name")
		email      = flag.String("email", "", "e-mail address")
		roleName   = flag.String("role", "", "role name (defaults to auth.admin_role)")
	)
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	role := *roleName
	if role == "" {
		role = cfg.Auth.AdminRole
	}

	u, err := run(ctx, cfg, bootstrapInput{
		Matricula: *matricula,
		Nome:      *nome,
		Email:     *email,
		RoleName:  role,
		Password:  os.Getenv(passwordEnv),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	logger.Info().Str("user_id", u.ID).Str("matricula", u.Matricula).Str("role", u.RoleName()).Msg("administrator created")
}

type bootstrapInput struct {
	Matricula string
	Nome      string
	Email     string
	RoleName  string
	Password  string
}

func run(ctx context.Context, cfg *config.Config, in bootstrapInput) (*auth.User, error) {
	if in.Password == "" {
		return nil, fmt.Errorf("%s is not set", passwordEnv)
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	roles := postgres.NewRoleRepository(pool)
	svc := auth.NewService(auth.Deps{
		Users:             postgres.NewUserRepository(pool),
		Roles:             roles,
		Hasher:            security.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tx:                pg.NewTransactionManager(pool),
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})
	return bootstrap(ctx, svc, roles, in)
}

func bootstrap(ctx context.Context, users auth.UseCase, roles auth.RoleRepository, in bootstrapInput) (*auth.User, error) {
	role, err := findRole(ctx, roles, in.RoleName)
	if err != nil {
		return nil, err
	}

	email := in.Email
	if email == "" {
		email = in.Matricula + "@localhost.localdomain"
	}

	return users.CreateUser(ctx, auth.CreateUserInput{
		Matricula:       in.Matricula,
		Nome:            in.Nome,
		Email:           email,
		RoleID:          role.ID,
		InitialPassword: in.Password,
	})
}

func findRole(ctx context.Context, roles auth.RoleRepository, name string) (*auth.Role, error) {
	list, err := roles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: no role named %q; run the seeds first", auth.ErrRoleNotFound, name)
}
