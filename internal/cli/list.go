package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takak2166/notionmigrate/internal/discover"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/parser"
)

var (
	listMode      string
	listParentID  string
	listDatabase  string
	listQuery     string
	listOutput    string
	listRecursive bool
	listLimit     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Write the ids of pages to migrate to a pages file",
	Long: `List collects page ids and writes one per line, ready for migrate.

Modes:
  parent    child pages of --parent-id, searched recursively by default
  database  every entry of --database-id
  search    pages matching --query across the workspace`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateToken(); err != nil {
			return err
		}

		mode, err := discover.ParseMode(listMode)
		if err != nil {
			return err
		}
		source, err := listSource(mode)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		ids, err := discover.NewLister(client).List(cmd.Context(), discover.Options{
			Mode:      mode,
			Source:    source,
			Recursive: listRecursive,
			Limit:     listLimit,
		})
		if err != nil {
			return err
		}

		if err := parser.WriteFile(listOutput, ids); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Wrote %d page ids", len(ids)), map[string]interface{}{
			"filepath": listOutput,
		})
		return nil
	},
}

func listSource(mode discover.Mode) (string, error) {
	var source, flag string
	switch mode {
	case discover.ModeParent:
		source, flag = listParentID, "--parent-id"
	case discover.ModeDatabase:
		source, flag = listDatabase, "--database-id"
	case discover.ModeSearch:
		source, flag = listQuery, "--query"
	}
	if source == "" {
		return "", models.Errorf(models.KindConfiguration, "list", "%s is required for mode=%s", flag, mode)
	}
	return source, nil
}

func init() {
	flags := listCmd.Flags()
	flags.StringVarP(&listMode, "mode", "m", "", "Mode: parent, database or search")
	flags.StringVarP(&listParentID, "parent-id", "p", "", "Parent page id or URL (mode=parent)")
	flags.StringVar(&listDatabase, "database-id", "", "Database id or URL (mode=database)")
	flags.StringVarP(&listQuery, "query", "q", "", "Search query (mode=search)")
	flags.StringVarP(&listOutput, "output", "o", "pages.txt", "Output file, one page id per line")
	flags.BoolVar(&listRecursive, "recursive", true, "Search nested blocks for child pages (mode=parent)")
	flags.IntVar(&listLimit, "limit", 0, "Collect at most this many pages")
	_ = listCmd.MarkFlagRequired("mode")

	rootCmd.AddCommand(listCmd)
}
