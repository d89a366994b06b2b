// Package cli implements the command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/takak2166/notionmigrate/internal/config"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/notion"
	"github.com/takak2166/notionmigrate/internal/ratelimit"
)

var (
	// Global flags
	configPath string
	envFile    string

	v   = config.NewViper()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "notionmigrate",
	Short: "Copy Notion pages into entries of a Notion database",
	Long: `notionmigrate copies the content of individual Notion pages into new
entries of a target database, keeping rich text, nesting and basic metadata.

Use 'notionmigrate list' to build a pages file, then 'notionmigrate migrate'
to copy every page it names. Run with --dry-run first to preview.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		if err := config.ReadFile(v, configPath); err != nil {
			return err
		}

		var err error
		if cfg, err = config.FromViper(v); err != nil {
			return err
		}
		return logger.Init(cfg.Level)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config file (yaml, toml or json)")
	flags.StringVar(&envFile, "env-file", ".env", "Path to .env file")
	flags.StringP("notion-token", "t", "", "Notion integration token (env NOTION_TOKEN)")
	flags.StringP("rate-sleep", "r", "", "Delay before every API call, e.g. 350ms or 0.35 (env RATE_SLEEP)")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("log-level", "", "Log level: debug, info, warn or error (env LOG_LEVEL)")

	bindFlag("notion_token", flags.Lookup("notion-token"))
	bindFlag("rate_sleep", flags.Lookup("rate-sleep"))
	bindFlag("verbose", flags.Lookup("verbose"))
	bindFlag("log_level", flags.Lookup("log-level"))
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the run between pages.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", err)
		return err
	}
	return nil
}

// newClient creates the Notion client shared by every store call of a run
func newClient() (*notion.Client, error) {
	pacer := ratelimit.NewPacer(ratelimit.SystemClock(), cfg.RateSleep)
	return notion.New(cfg.Token, pacer)
}
