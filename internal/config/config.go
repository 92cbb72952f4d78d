package config

import (
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env:"ENV" env-default:"production"`
	PGSQL         PQSQL         `yaml:"pgsql"`
	HTTPServer    HTTPServer    `yaml:"http_server"`
	Redis         Redis         `yaml:"redis"`
	Metadata      Metadata      `yaml:"metadata"`
	Supabase      Supabase      `yaml:"supabase"`
	ObjectStorage ObjectStorage `yaml:"object_storage"`
	Media         Media         `yaml:"media"`
	Email         Email         `yaml:"email"`
	Transcode     Transcode     `yaml:"transcode"`
	Sweeper       Sweeper       `yaml:"sweeper"`
	SiteURL       string        `yaml:"site_url" env:"SITE_URL"`
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	// AdminEmails may use the /admin endpoints.
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"5m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
	// AllowedOrigins limits websocket upgrades; empty accepts any origin.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"screencast_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Metadata selects where clip records live.
type Metadata struct {
	Backend string `yaml:"backend" env:"METADATA_BACKEND" env-default:"postgres"`
}

type Supabase struct {
	URL            string `yaml:"url" env:"SUPABASE_URL"`
	ServiceRoleKey string `yaml:"service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	Schema         string `yaml:"schema" env-default:"public"`
}

type ObjectStorage struct {
	Driver          string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"minio"`
	Endpoint        string `yaml:"endpoint" env:"STORAGE_ENDPOINT" env-default:"localhost:9000"`
	Region          string `yaml:"region" env:"STORAGE_REGION" env-default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id" env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"STORAGE_BUCKET" env-default:"videos"`
	UseSSL          bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL"`
	// PublicBaseURL overrides the host used for public object links (CDN).
	PublicBaseURL string `yaml:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`
}

type Media struct {
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"video/webm,video/mp4,video/x-matroska"`
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"524288000"`
	PresignedURLTTL  int      `yaml:"presigned_url_ttl" env-default:"3600"`
}

type Email struct {
	Provider       string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"sendgrid"`
	SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	ResendAPIKey   string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	FromAddress    string `yaml:"from_address" env:"SENDGRID_FROM_EMAIL"`
	FromName       string `yaml:"from_name" env-default:"Screen Recorder"`
	// BaseURL overrides the provider API host.
	BaseURL string `yaml:"base_url" env:"EMAIL_API_BASE_URL"`
}

type Transcode struct {
	Enabled    bool          `yaml:"enabled" env:"TRANSCODE_ENABLED"`
	FFmpegPath string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH" env-default:"ffmpeg"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10m"`
}

type Sweeper struct {
	Interval  time.Duration `yaml:"interval" env-default:"1m"`
	BatchSize int           `yaml:"batch_size" env-default:"100"`
}

var (
	ErrEmailAPIKeyMissing = errors.New("Email service configuration missing")
	ErrEmailSenderMissing = errors.New("Email sender configuration missing")
	ErrSiteURLMissing     = errors.New("Site URL configuration missing")
	ErrSupabaseMissing    = errors.New("Supabase configuration missing")
)

// APIKey returns the key of the configured email provider.
func (e Email) APIKey() string {
	if strings.EqualFold(e.Provider, "resend") {
		return e.ResendAPIKey
	}
	return e.SendGridAPIKey
}

// Validate checks the values required to dispatch an email.
func (e Email) Validate() error {
	if strings.TrimSpace(e.APIKey()) == "" {
		return ErrEmailAPIKeyMissing
	}
	if strings.TrimSpace(e.FromAddress) == "" {
		return ErrEmailSenderMissing
	}
	return nil
}

// Validate checks the values required to reach Supabase.
func (s Supabase) Validate() error {
	if strings.TrimSpace(s.URL) == "" || strings.TrimSpace(s.ServiceRoleKey) == "" {
		return ErrSupabaseMissing
	}
	return nil
}

// PublicSiteURL returns the site base URL without a trailing slash.
func (c *Config) PublicSiteURL() (string, error) {
	site := strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if site == "" {
		return "", ErrSiteURLMissing
	}
	return site, nil
}

// IsLocal reports whether the service runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "dev"
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return cfg
}

// Load reads the YAML file at path and overlays environment variables.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	// the send-upload-email revision reads the site URL from this name
	if cfg.SiteURL == "" {
		cfg.SiteURL = os.Getenv("NEXT_PUBLIC_SITE_URL")
	}

	return &cfg, nil
}
