package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/taskdash/dashboard/internal/pkg/validation"
)

const (
	CredentialStoreMemory = "memory"
	CredentialStoreFile   = "file"
	CredentialStoreRedis  = "redis"

	ClientsSourceStatic = "static"
	ClientsSourceMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend   BackendConfig
	Session   SessionConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Reminders ReminderConfig
}

type BackendConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8000" validate:"required,url"`
	Timeout time.Duration `env:"HTTP_TIMEOUT, default=15s"`
}

type SessionConfig struct {
	// ResolveProfile calls GET /users/me/ after decoding the credential.
	ResolveProfile  bool   `env:"RESOLVE_PROFILE,  default=true"`
	CredentialStore string `env:"CREDENTIAL_STORE, default=memory" validate:"oneof=memory file redis"`
	CredentialFile  string `env:"CREDENTIAL_FILE"`
}

type StoreConfig struct {
	// TaskSync mirrors locally created tasks to POST /tasks/.
	TaskSync      bool   `env:"TASK_SYNC,      default=false"`
	ClientsSource string `env:"CLIENTS_SOURCE, default=static" validate:"oneof=static mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskdash"`
}

type RedisConfig struct {
	Addr          string `env:"REDIS_ADDR,           default=localhost:6379"`
	DB            int    `env:"REDIS_DB,             default=0"`
	CredentialKey string `env:"REDIS_CREDENTIAL_KEY, default=dashboard:credential"`
}

type ReminderConfig struct {
	Interval       time.Duration `env:"REMINDER_INTERVAL, default=1m"`
	DeadlineWindow time.Duration `env:"DEADLINE_WINDOW,   default=24h"`
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}
	if cfg.Session.CredentialFile == "" {
		cfg.Session.CredentialFile = defaultCredentialFile()
	}
	return &cfg, nil
}

func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "taskdash", "credential.json")
}
