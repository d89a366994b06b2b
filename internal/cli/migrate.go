package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/metadata"
	"github.com/takak2166/notionmigrate/internal/migrate"
	"github.com/takak2166/notionmigrate/internal/parser"
	"github.com/takak2166/notionmigrate/internal/report"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every page in the pages file into the target database",
	Long: `Migrate reads one page URL or id per line from the pages file and creates
one entry in the target database for each page, with the page's blocks
appended to it.

The database must define Title (title), Date (date) and Archived (checkbox).
With --dry-run nothing is written; the run reports what would be created.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateMigrate(); err != nil {
			return err
		}

		entries, err := parser.ParseFile(cfg.PagesFile)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		if cfg.DryRun {
			logger.Info("[DRY-RUN MODE] No write operations will be performed")
		}

		m := migrate.New(client, metadata.NewExtractor(nil), migrate.Options{
			DatabaseID: cfg.DatabaseID,
			DryRun:     cfg.DryRun,
			Limit:      cfg.Limit,
		})
		rep, err := m.Run(cmd.Context(), entries)
		if err != nil {
			return err
		}

		if err := report.Print(rep); err != nil {
			return err
		}
		if cfg.Report != "" {
			if err := report.WriteFile(cfg.Report, rep); err != nil {
				return err
			}
			logger.Info("Report saved", map[string]interface{}{
				"filepath": cfg.Report,
			})
		}

		if rep.Summary.Failed > 0 {
			return fmt.Errorf("%d of %d attempted pages failed", rep.Summary.Failed, rep.Summary.Attempted)
		}
		return nil
	},
}

func init() {
	flags := migrateCmd.Flags()
	flags.StringP("pages-file", "f", "", "File with one page URL or id per line (default pages.txt)")
	flags.StringP("target-db-id", "d", "", "Target database id (env TARGET_DB_ID)")
	flags.Bool("dry-run", false, "Simulate the run without writing to Notion")
	flags.IntP("limit", "n", 0, "Process at most this many pages")
	flags.String("report", "", "Write a report of every page to this .yaml or .json file")

	bindFlag("pages_file", flags.Lookup("pages-file"))
	bindFlag("target_db_id", flags.Lookup("target-db-id"))
	bindFlag("dry_run", flags.Lookup("dry-run"))
	bindFlag("limit", flags.Lookup("limit"))
	bindFlag("report", flags.Lookup("report"))

	rootCmd.AddCommand(migrateCmd)
}
