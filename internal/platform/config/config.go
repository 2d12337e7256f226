package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTokenTTL          = 8 * time.Hour
	defaultBcryptCost        = 10
	defaultAdminRole         = "Administrador"
	defaultMinPasswordLength = 6
	defaultMaxUploadBytes    = 10 << 20
	defaultAuditBufferSize   = 256
	defaultTimezone          = "America/Sao_Paulo"
	defaultLoginRatePerMin   = 20
)

var defaultCountedStatuses = []string{"ativo", "Férias", "Licença Maternidade"}

// Config is the whole application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Reporting ReportingConfig `yaml:"reporting"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP and gRPC listener settings.
type ServerConfig struct {
	HTTPListenAddr      string        `yaml:"http_listen_addr"`
	GRPCListenAddr      string        `yaml:"grpc_listen_addr"`
	AllowedOrigins      []string      `yaml:"allowed_origins"`
	LoginRatePerMinute  int           `yaml:"login_rate_per_minute"`
	ReadTimeout         time.Duration `yaml:"-"`
	WriteTimeout        time.Duration `yaml:"-"`
	ShutdownTimeout     time.Duration `yaml:"-"`
	ReadTimeoutRaw      string        `yaml:"read_timeout"`
	WriteTimeoutRaw     string        `yaml:"write_timeout"`
	ShutdownTimeoutRaw  string        `yaml:"shutdown_timeout"`
	HealthCheckInterval time.Duration `yaml:"-"`
	HealthCheckRaw      string        `yaml:"health_check_interval"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	ApplicationName    string        `yaml:"application_name"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig holds token and password policy settings.
type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"-"`
	TokenTTLRaw       string        `yaml:"token_ttl"`
	BcryptCost        int           `yaml:"bcrypt_cost"`
	AdminRole         string        `yaml:"admin_role"`
	MinPasswordLength int           `yaml:"min_password_length"`
}

// StorageConfig holds the directories used for scratch uploads, backups and PDFs.
type StorageConfig struct {
	UploadDir         string `yaml:"upload_dir"`
	BackupDir         string `yaml:"backup_dir"`
	JobDescriptionDir string `yaml:"job_description_dir"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
}

// ReportingConfig controls how budgeted and realized headcount are computed.
type ReportingConfig struct {
	// Period is a fixed YYYY-MM reporting period. Empty means the current month.
	Period          string         `yaml:"period"`
	Timezone        string         `yaml:"timezone"`
	CountedStatuses []string       `yaml:"counted_statuses"`
	Location        *time.Location `yaml:"-"`
}

// AuditConfig controls the asynchronous audit recorder.
type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration file at path. A .env file in the working
// directory is loaded first and ${VAR} references in the YAML are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	c.Storage.normalize()
	if err := c.Reporting.validateAndNormalize(); err != nil {
		return err
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = defaultAuditBufferSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPListenAddr == "" {
		return fmt.Errorf("config: server.http_listen_addr must be set")
	}
	if s.LoginRatePerMinute <= 0 {
		s.LoginRatePerMinute = defaultLoginRatePerMin
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
		def  time.Duration
	}{
		{"read_timeout", s.ReadTimeoutRaw, &s.ReadTimeout, 30 * time.Second},
		{"write_timeout", s.WriteTimeoutRaw, &s.WriteTimeout, 60 * time.Second},
		{"shutdown_timeout", s.ShutdownTimeoutRaw, &s.ShutdownTimeout, 10 * time.Second},
		{"health_check_interval", s.HealthCheckRaw, &s.HealthCheckInterval, 15 * time.Second},
	}
	for _, d := range durations {
		v, err := parseDurationAllowEmpty(d.raw)
		if err != nil {
			return fmt.Errorf("config: server.%s: %w", d.name, err)
		}
		if v == 0 {
			v = d.def
		}
		*d.dst = v
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if strings.TrimSpace(a.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}

	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	a.TokenTTL = ttl

	if a.BcryptCost == 0 {
		a.BcryptCost = defaultBcryptCost
	}
	if a.AdminRole == "" {
		a.AdminRole = defaultAdminRole
	}
	if a.MinPasswordLength <= 0 {
		a.MinPasswordLength = defaultMinPasswordLength
	}
	return nil
}

func (s *StorageConfig) normalize() {
	if s.UploadDir == "" {
		s.UploadDir = "uploads"
	}
	if s.BackupDir == "" {
		s.BackupDir = "backups"
	}
	if s.JobDescriptionDir == "" {
		s.JobDescriptionDir = "jd_pdfs"
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = defaultMaxUploadBytes
	}
}

func (r *ReportingConfig) validateAndNormalize() error {
	if r.Timezone == "" {
		r.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return fmt.Errorf("config: reporting.timezone: %w", err)
	}
	r.Location = loc

	r.Period = strings.TrimSpace(r.Period)
	if r.Period != "" {
		if _, err := time.Parse("2006-01", r.Period); err != nil {
			return fmt.Errorf("config: reporting.period must be YYYY-MM: %w", err)
		}
	}

	if len(r.CountedStatuses) == 0 {
		r.CountedStatuses = append([]string(nil), defaultCountedStatuses...)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN returns a pgx connection string with escaped credentials.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
