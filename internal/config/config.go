package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Mail      MailConfig
	Sheets    SheetsConfig
	Analytics AnalyticsConfig
	Sync      SyncConfig
	Portal    PortalConfig
	Bootstrap BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Driver       string
	FileDir      string
	SessionStore string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	MinPasswordLength     int
}

// MailConfig holds SMTP credentials. Empty user or password means simulated sends.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
}

// Configured reports whether real mail can be sent.
func (m MailConfig) Configured() bool {
	return m.User != "" && m.Password != ""
}

// SheetsConfig holds the spreadsheet service account.
type SheetsConfig struct {
	ClientEmail string
	PrivateKey  string
	SheetID     string
	Range       string
	BaseURL     string
	TokenURL    string
}

// Configured reports whether all spreadsheet credentials are present.
func (s SheetsConfig) Configured() bool {
	return s.ClientEmail != "" && s.PrivateKey != "" && s.SheetID != ""
}

// AnalyticsConfig holds the analytics table OAuth client.
type AnalyticsConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	OrgID        string
	Region       string
	WorkspaceID  string
	TableID      string
	BaseURL      string
	TokenURL     string
}

// Configured reports whether the refresh-token exchange can run.
func (a AnalyticsConfig) Configured() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.RefreshToken != "" &&
		a.WorkspaceID != "" && a.TableID != ""
}

// SyncConfig tunes the outbox worker.
type SyncConfig struct {
	Workers            int
	QueueSize          int
	MaxRetries         int
	BaseBackoffMillis  int
	MaxBackoffSeconds  int
	CallTimeoutSeconds int
}

// BaseBackoff returns the first retry delay.
func (s SyncConfig) BaseBackoff() time.Duration {
	return time.Duration(s.BaseBackoffMillis) * time.Millisecond
}

// MaxBackoff returns the retry delay cap.
func (s SyncConfig) MaxBackoff() time.Duration {
	return time.Duration(s.MaxBackoffSeconds) * time.Second
}

// CallTimeout bounds a single collaborator call.
func (s SyncConfig) CallTimeout() time.Duration {
	return time.Duration(s.CallTimeoutSeconds) * time.Second
}

// PortalConfig controls invitation links.
type PortalConfig struct {
	BaseURL string
}

// BootstrapConfig seeds the first administrator.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverFile)),
			FileDir:      getEnv("STORAGE_FILE_DIR", "data"),
			SessionStore: strings.ToLower(getEnv("SESSION_STORE", "memory")),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "helpdesk:"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:     getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		},
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("MAIL_PORT", 587),
			User:     os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			FromName: getEnv("MAIL_FROM_NAME", "Ticketing System"),
		},
		Sheets: SheetsConfig{
			ClientEmail: os.Getenv("GOOGLE_CLIENT_EMAIL"),
			PrivateKey:  normalizePrivateKey(os.Getenv("GOOGLE_PRIVATE_KEY")),
			SheetID:     os.Getenv("GOOGLE_SHEET_ID"),
			Range:       getEnv("GOOGLE_SHEET_RANGE", "Sheet1!A:M"),
			BaseURL:     getEnv("GOOGLE_SHEETS_BASE_URL", "https://sheets.googleapis.com/v4/spreadsheets"),
			TokenURL:    getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		},
		Analytics: loadAnalytics(),
		Sync: SyncConfig{
			Workers:            getEnvAsInt("SYNC_WORKERS", 4),
			QueueSize:          getEnvAsInt("SYNC_QUEUE_SIZE", 256),
			MaxRetries:         getEnvAsInt("SYNC_MAX_RETRIES", 5),
			BaseBackoffMillis:  getEnvAsInt("SYNC_BASE_BACKOFF_MILLIS", 500),
			MaxBackoffSeconds:  getEnvAsInt("SYNC_MAX_BACKOFF_SECONDS", 30),
			CallTimeoutSeconds: getEnvAsInt("SYNC_CALL_TIMEOUT_SECONDS", 15),
		},
		Portal: PortalConfig{
			BaseURL: strings.TrimRight(getEnv("PORTAL_BASE_URL", "http://localhost:3000"), "/"),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@tenxhealth.in"),
			AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}

	switch cfg.Storage.Driver {
	case StorageDriverFile, StorageDriverPostgres, StorageDriverRedis:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == StorageDriverPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN required for postgres storage")
	}

	return cfg, nil
}

func loadAnalytics() AnalyticsConfig {
	region := getEnv("ZOHO_REGION", "zoho.in")
	return AnalyticsConfig{
		ClientID:     os.Getenv("ZOHO_CLIENT_ID"),
		ClientSecret: os.Getenv("ZOHO_CLIENT_SECRET"),
		RefreshToken: os.Getenv("ZOHO_REFRESH_TOKEN"),
		OrgID:        os.Getenv("ZOHO_ORG_ID"),
		Region:       region,
		WorkspaceID:  os.Getenv("ZOHO_WORKSPACE"),
		TableID:      os.Getenv("ZOHO_TABLE"),
		BaseURL:      getEnv("ZOHO_ANALYTICS_BASE_URL", "https://analyticsapi."+region+"/restapi/v2"),
		TokenURL:     getEnv("ZOHO_TOKEN_URL", "https://accounts."+region+"/oauth/v2/token"),
	}
}

// normalizePrivateKey strips surrounding quotes and expands escaped newlines,
// which is how PEM keys usually arrive through .env files.
func normalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 2 && strings.HasPrefix(key, `"`) && strings.HasSuffix(key, `"`) {
		key = key[1 : len(key)-1]
	}
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
