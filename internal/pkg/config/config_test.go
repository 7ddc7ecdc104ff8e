package config

import (
	"errors"
	"testing"

	appErrors "medreminder/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_MODE", "NODE_ROLE", "DB_DRIVER", "DB_URL", "REDIS_URL", "REMINDER_TZ", "REMINDER_TITLE",
		"LINE_CHANNEL_SECRET", "LINE_CHANNEL_ACCESS_TOKEN", "PUSHOVER_API_TOKEN"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "medreminder.db", cfg.DBURL)
	assert.Equal(t, "Medication Reminder", cfg.ReminderTitle)
	assert.Equal(t, RolePrimary, cfg.Role)
	assert.False(t, cfg.IsReplica())
	assert.False(t, cfg.LineEnabled())
	assert.False(t, cfg.PushoverEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Badger")
	t.Setenv("REMINDER_TZ", "UTC")
	t.Setenv("PUSHOVER_API_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverBadger, cfg.DBDriver)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.True(t, cfg.PushoverEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad port":   {"PORT", "eighty"},
		"bad driver": {"DB_DRIVER", "mongo"},
		"bad zone":   {"REMINDER_TZ", "Mars/Olympus"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidConfig))
		})
	}
}

func TestLoad_ReplicaRole(t *testing.T) {
	t.Run("needs redis", func(t *testing.T) {
		t.Setenv("NODE_ROLE", "replica")
		t.Setenv("REDIS_URL", "")
		t.Setenv("DB_DRIVER", "postgres")
		_, err := Load()
		assert.ErrorIs(t, err, appErrors.ErrInvalidConfig)
	})

	t.Run("rejects badger", func(t *testing.T) {
		t.Setenv("NODE_ROLE", "replica")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("DB_DRIVER", "badger")
		_, err := Load()
		assert.ErrorIs(t, err, appErrors.ErrInvalidConfig)
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Setenv("NODE_ROLE", "leader")
		_, err := Load()
		assert.ErrorIs(t, err, appErrors.ErrInvalidConfig)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("NODE_ROLE", "Replica")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("DB_DRIVER", "postgres")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsReplica())
	})
}
