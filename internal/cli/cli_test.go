package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takak2166/notionmigrate/internal/discover"
	"github.com/takak2166/notionmigrate/internal/models"
)

func TestListSource(t *testing.T) {
	listParentID, listDatabase, listQuery = "parent", "", "journal"
	t.Cleanup(func() { listParentID, listDatabase, listQuery = "", "", "" })

	source, err := listSource(discover.ModeParent)
	require.NoError(t, err)
	assert.Equal(t, "parent", source)

	source, err = listSource(discover.ModeSearch)
	require.NoError(t, err)
	assert.Equal(t, "journal", source)

	_, err = listSource(discover.ModeDatabase)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
	assert.Contains(t, err.Error(), "--database-id is required")
}

func TestMigrateRequiresToken(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_API_KEY", "")

	rootCmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), ".env"), "--dry-run"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
	assert.True(t, cfg.DryRun)
}
