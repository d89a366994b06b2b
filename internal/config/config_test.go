package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takak2166/notionmigrate/internal/models"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"NOTION_TOKEN", "NOTION_API_KEY", "TARGET_DB_ID", "RATE_SLEEP", "DRY_RUN", "LIMIT", "LOG_LEVEL", "VERBOSE", "PAGES_FILE", "REPORT"} {
		t.Setenv(key, "")
	}
}

func TestFromViperDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromViper(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Token)
	assert.Equal(t, DefaultPagesFile, cfg.PagesFile)
	assert.Equal(t, 350*time.Millisecond, cfg.RateSleep)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, 0, cfg.Limit)
	assert.Equal(t, DefaultLogLevel, cfg.Level)
}

func TestFromViperEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTION_API_KEY", "secret_fallback")
	t.Setenv("TARGET_DB_ID", " db ")
	t.Setenv("RATE_SLEEP", "0.5")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("LIMIT", "3")
	t.Setenv("VERBOSE", "true")

	cfg, err := FromViper(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "secret_fallback", cfg.Token)
	assert.Equal(t, "db", cfg.DatabaseID)
	assert.Equal(t, 500*time.Millisecond, cfg.RateSleep)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, "debug", cfg.Level)

	t.Setenv("NOTION_TOKEN", "secret_primary")
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = FromViper(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "secret_primary", cfg.Token)
	assert.Equal(t, "warn", cfg.Level)
}

func TestReadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "notionmigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_db_id: from-file\nlimit: 7\nrate_sleep: 1s\n"), 0644))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DatabaseID)
	assert.Equal(t, 7, cfg.Limit)
	assert.Equal(t, time.Second, cfg.RateSleep)

	assert.NoError(t, ReadFile(v, ""))
	err = ReadFile(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, models.IsKind(err, models.KindConfiguration))
}

func TestParseRateSleep(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 350 * time.Millisecond, false},
		{"350ms", 350 * time.Millisecond, false},
		{"0.35", 350 * time.Millisecond, false},
		{"2", 2 * time.Second, false},
		{"0", 0, false},
		{"-1s", 0, true},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRateSleep(tt.in)
			if tt.wantErr {
				assert.True(t, models.IsKind(err, models.KindConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMigrate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{Notion: Notion{Token: "t", DatabaseID: "db"}}, false},
		{"dry-run without database", Config{Notion: Notion{Token: "t"}, Run: Run{DryRun: true}}, false},
		{"missing token", Config{Notion: Notion{DatabaseID: "db"}}, true},
		{"missing token in dry-run", Config{Run: Run{DryRun: true}}, true},
		{"missing database", Config{Notion: Notion{Token: "t"}}, true},
		{"negative limit", Config{Notion: Notion{Token: "t", DatabaseID: "db"}, Run: Run{Limit: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateMigrate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.IsKind(err, models.KindConfiguration))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	const key = "NOTIONMIGRATE_DOTENV_TEST"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv(key))
}
