package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	appErrors "medreminder/internal/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

const (
	// RolePrimary owns the reminder triggers.
	RolePrimary = "primary"
	// RoleReplica serves reads and the change stream only.
	RoleReplica = "replica"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port     int
	LogMode  string
	Role     string
	DBDriver string
	DBURL    string
	RedisURL string

	Location      *time.Location
	ReminderTitle string

	LineChannelSecret string
	LineChannelToken  string
	PushoverAPIToken  string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		LogMode:           getenv("LOG_MODE", "dev"),
		Role:              strings.ToLower(getenv("NODE_ROLE", RolePrimary)),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBURL:             getenv("DB_URL", "medreminder.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ReminderTitle:     getenv("REMINDER_TITLE", "Medication Reminder"),
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		PushoverAPIToken:  os.Getenv("PUSHOVER_API_TOKEN"),
		Location:          time.Local,
	}

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: PORT must be a valid port number", appErrors.ErrInvalidConfig)
	}
	cfg.Port = port

	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres, DriverBadger:
	default:
		return nil, fmt.Errorf("%w: unsupported DB_DRIVER %q", appErrors.ErrInvalidConfig, cfg.DBDriver)
	}

	switch cfg.Role {
	case RolePrimary:
	case RoleReplica:
		// A replica learns about writes through Redis and reads the primary's database.
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("%w: NODE_ROLE=replica requires REDIS_URL", appErrors.ErrInvalidConfig)
		}
		if cfg.DBDriver == DriverBadger {
			return nil, fmt.Errorf("%w: NODE_ROLE=replica cannot share a badger store", appErrors.ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported NODE_ROLE %q", appErrors.ErrInvalidConfig, cfg.Role)
	}

	if tz := os.Getenv("REMINDER_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: REMINDER_TZ: %v", appErrors.ErrInvalidConfig, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// LineEnabled reports whether both LINE credentials are present.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != ""
}

// IsReplica reports whether this node runs without reminder triggers.
func (c *Config) IsReplica() bool {
	return c.Role == RoleReplica
}

// PushoverEnabled reports whether a Pushover application token is present.
func (c *Config) PushoverEnabled() bool {
	return c.PushoverAPIToken != ""
}

func getenv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
