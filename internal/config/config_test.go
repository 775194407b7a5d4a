package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultsWithSQLite(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/chat.db")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "/api", cfg.PublicBasePath)
	assert.Equal(t, QueueLocal, cfg.JobQueue)
	assert.Equal(t, 15*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 800, cfg.ChatMaxTokens)
	assert.Equal(t, 1000, cfg.AnalyzeMaxTokens)
	assert.True(t, cfg.HasDatastore())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestParseRequiresDatastore(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Parse()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "")
	_, err = Parse()
	assert.ErrorContains(t, err, "SQLITE_PATH")

	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err = Parse()
	assert.ErrorContains(t, err, "DATABASE_DRIVER")
}

func TestParseRejectsUnknownQueue(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("JOB_QUEUE", "kafka")

	_, err := Parse()
	assert.ErrorContains(t, err, "JOB_QUEUE")
}

func TestParseNormalizesBasePath(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("PUBLIC_BASE_PATH", "widget/api/")
	t.Setenv("OPENAI_API_KEY", "  sk-test ")
	t.Setenv("APP_ENV", "Production")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "/widget/api", cfg.PublicBasePath)
	assert.True(t, cfg.HasOpenAIKey())
	assert.True(t, cfg.IsProduction())
}

func TestParseRejectsBadTimezone(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Parse()
	assert.ErrorContains(t, err, "timezone")
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("LLM_TIMEOUT", "soon")

	_, err := Parse()
	assert.ErrorContains(t, err, "parse env config")
}
