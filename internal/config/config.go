package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/ratelimit"
)

const (
	DefaultPagesFile = "pages.txt"
	DefaultLogLevel  = "info"
)

type (
	Config struct {
		Notion
		Run
		Log
	}

	Notion struct {
		Token      string
		DatabaseID string
	}
	Run struct {
		PagesFile string
		RateSleep time.Duration
		DryRun    bool
		Limit     int
		Report    string // Optional report file, .json or .yaml
	}
	Log struct {
		Level   string
		Verbose bool
	}
)

// LoadDotEnv loads variables from a .env file. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// NewViper returns a viper instance with every default and environment binding
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = v.BindEnv("notion_token", "NOTION_TOKEN", "NOTION_API_KEY")
	_ = v.BindEnv("target_db_id", "TARGET_DB_ID")

	v.SetDefault("pages_file", DefaultPagesFile)
	v.SetDefault("rate_sleep", ratelimit.DefaultInterval.String())
	v.SetDefault("dry_run", false)
	v.SetDefault("limit", 0)
	v.SetDefault("verbose", false)
	v.SetDefault("report", "")
	return v
}

// ReadFile merges a config file in any format viper understands
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return models.NewError(models.KindConfiguration, "read config", err)
	}
	return nil
}

// FromViper builds a Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	rateSleep, err := ParseRateSleep(v.GetString("rate_sleep"))
	if err != nil {
		return nil, err
	}

	// An explicit log level wins over --verbose
	verbose := v.GetBool("verbose")
	level := v.GetString("log_level")
	if level == "" {
		level = DefaultLogLevel
		if verbose {
			level = "debug"
		}
	}

	return &Config{
		Notion: Notion{
			Token:      strings.TrimSpace(v.GetString("notion_token")),
			DatabaseID: strings.TrimSpace(v.GetString("target_db_id")),
		},
		Run: Run{
			PagesFile: v.GetString("pages_file"),
			RateSleep: rateSleep,
			DryRun:    v.GetBool("dry_run"),
			Limit:     v.GetInt("limit"),
			Report:    v.GetString("report"),
		},
		Log: Log{
			Level:   level,
			Verbose: verbose,
		},
	}, nil
}

// ParseRateSleep accepts a duration ("350ms") or a number of seconds ("0.35")
func ParseRateSleep(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ratelimit.DefaultInterval, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, models.Errorf(models.KindConfiguration, "rate sleep", "invalid rate sleep %q", s)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d < 0 {
		return 0, models.Errorf(models.KindConfiguration, "rate sleep", "rate sleep must not be negative, got %s", s)
	}
	return d, nil
}

// ValidateMigrate checks the settings the migrate command needs
func (c *Config) ValidateMigrate() error {
	if err := c.ValidateToken(); err != nil {
		return err
	}
	if c.DatabaseID == "" && !c.DryRun {
		return models.Errorf(models.KindConfiguration, "config", "TARGET_DB_ID is required unless running with --dry-run")
	}
	if c.Limit < 0 {
		return models.Errorf(models.KindConfiguration, "config", "limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// ValidateToken checks that a Notion token is configured
func (c *Config) ValidateToken() error {
	if c.Token == "" {
		return models.Errorf(models.KindConfiguration, "config", "NOTION_TOKEN is required")
	}
	return nil
}
