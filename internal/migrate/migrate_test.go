package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takak2166/notionmigrate/internal/metadata"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/parser"
)

const (
	pageA = "1f2e3d4c-5b6a-4978-8a1b-2c3d4e5f6a7b"
	pageB = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	dbID  = "99999999-8888-4777-8666-555555555555"
)

// fakeStore serves pages with a flat list of paragraphs and records every call
type fakeStore struct {
	database   *notionapi.Database
	children   map[string][]notionapi.Block
	getPageErr map[string]error
	createErr  error
	appendErr  error
	// cancel is called when the named page is fetched
	cancelOn string
	cancel   context.CancelFunc

	getPages   []string
	creates    []notionapi.Properties
	appends    []string
	getDBCalls int
	created    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		database: validDatabase(),
		children: map[string][]notionapi.Block{},
	}
}

func validDatabase() *notionapi.Database {
	return &notionapi.Database{Properties: notionapi.PropertyConfigs{
		"Title":    notionapi.TitlePropertyConfig{Type: "title"},
		"Date":     notionapi.DatePropertyConfig{Type: "date"},
		"Archived": notionapi.CheckboxPropertyConfig{Type: "checkbox"},
	}}
}

func (s *fakeStore) GetPage(_ context.Context, id string) (*notionapi.Page, error) {
	s.getPages = append(s.getPages, id)
	if id == s.cancelOn && s.cancel != nil {
		s.cancel()
	}
	if err := s.getPageErr[id]; err != nil {
		return nil, err
	}
	return &notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Name": &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "Page " + id[:4]}}},
		},
	}, nil
}

func (s *fakeStore) ListChildren(_ context.Context, id string, _ string) ([]notionapi.Block, string, error) {
	return s.children[id], "", nil
}

func (s *fakeStore) GetDatabase(_ context.Context, _ string) (*notionapi.Database, error) {
	s.getDBCalls++
	if s.database == nil {
		return nil, errors.New("object_not_found")
	}
	return s.database, nil
}

func (s *fakeStore) CreateDatabaseEntry(_ context.Context, _ string, properties notionapi.Properties) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.creates = append(s.creates, properties)
	s.created++
	return fmt.Sprintf("entry-%d", s.created), nil
}

func (s *fakeStore) AppendChildren(_ context.Context, blockID string, blocks []notionapi.Block) ([]string, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.appends = append(s.appends, blockID)
	ids := make([]string, len(blocks))
	for i := range blocks {
		ids[i] = fmt.Sprintf("%s/%d", blockID, i)
	}
	return ids, nil
}

func paragraphs(n int) []notionapi.Block {
	out := make([]notionapi.Block, n)
	for i := range out {
		text := fmt.Sprintf("line %d", i)
		out[i] = &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{ID: notionapi.BlockID(fmt.Sprintf("b%d", i)), Type: notionapi.BlockTypeParagraph},
			Paragraph: notionapi.Paragraph{
				RichText: []notionapi.RichText{{PlainText: text, Text: &notionapi.Text{Content: text}}},
			},
		}
	}
	return out
}

// pageWithNestedToDo has two paragraphs, the first holding a to-do
func pageWithNestedToDo(store *fakeStore, id string) {
	paras := paragraphs(2)
	paras[0].(*notionapi.ParagraphBlock).HasChildren = true
	store.children[id] = paras
	store.children["b0"] = []notionapi.Block{&notionapi.ToDoBlock{
		BasicBlock: notionapi.BasicBlock{ID: "todo", Type: notionapi.BlockTypeToDo},
		ToDo: notionapi.ToDo{
			RichText: []notionapi.RichText{{PlainText: "follow up", Text: &notionapi.Text{Content: "follow up"}}},
		},
	}}
}

func entries(lines ...string) []parser.Entry {
	out := make([]parser.Entry, len(lines))
	for i, l := range lines {
		out[i] = parser.Entry{Line: i + 1, Raw: l}
	}
	return out
}

func newMigrator(store Store, opts Options) *Migrator {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(store, metadata.NewExtractor(func() time.Time { return now }), opts)
}

func TestRunDryRunMixedInput(t *testing.T) {
	store := newFakeStore()
	store.children[pageA] = paragraphs(3)
	pageWithNestedToDo(store, pageB)

	m := newMigrator(store, Options{DatabaseID: dbID, DryRun: true})
	report, err := m.Run(context.Background(), entries(
		"https://www.notion.so/workspace/Weekly-notes-"+strings.ReplaceAll(pageA, "-", ""),
		"not a page",
		pageB,
	))
	require.NoError(t, err)

	assert.Equal(t, models.Summary{Total: 3, Attempted: 3, Succeeded: 2, Failed: 1, Skipped: 0}, report.Summary)
	assert.True(t, report.DryRun)
	require.Len(t, report.Results, 3)

	first := report.Results[0]
	assert.Equal(t, models.OutcomeSuccess, first.Outcome)
	assert.Equal(t, pageA, first.PageID)
	assert.Equal(t, models.StageCompleted, first.Stage)
	assert.Regexp(t, `^dryrun-[0-9a-f]{8}$`, first.CreatedEntryID)
	assert.Equal(t, 3, first.Blocks)
	assert.Equal(t, 1, first.AppendCalls)
	assert.Equal(t, "Page "+pageA[:4], first.Title)
	assert.Equal(t, "2024-01-02", first.Date)

	second := report.Results[1]
	assert.Equal(t, models.OutcomeFailed, second.Outcome)
	assert.Equal(t, models.KindMalformedIdentifier, second.ErrorKind)
	assert.Equal(t, 2, second.Line)
	assert.Empty(t, second.CreatedEntryID)

	third := report.Results[2]
	assert.Equal(t, models.OutcomeSuccess, third.Outcome)
	assert.Equal(t, 3, third.Blocks)
	assert.Equal(t, 2, third.AppendCalls)

	assert.Empty(t, store.creates)
	assert.Empty(t, store.appends)
	assert.Equal(t, 1, store.getDBCalls)
}

func TestRunLimit(t *testing.T) {
	store := newFakeStore()
	ids := []string{
		pageA,
		pageB,
		"11111111-2222-4333-8444-555555555555",
		"66666666-7777-4888-8999-aaaaaaaaaaaa",
		"bbbbbbbb-cccc-4ddd-8eee-ffffffffffff",
	}

	m := newMigrator(store, Options{DatabaseID: dbID, Limit: 1})
	report, err := m.Run(context.Background(), entries(ids...))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Attempted)
	assert.Equal(t, 1, report.Summary.Succeeded)
	assert.Equal(t, 4, report.Summary.Skipped)
	assert.Equal(t, []string{pageA}, store.getPages)
	for _, r := range report.Results[1:] {
		assert.Equal(t, models.OutcomeSkipped, r.Outcome)
		assert.Equal(t, models.StageResolved, r.Stage)
		assert.Contains(t, r.Reason, "limit")
	}
}

func TestRunLimitIgnoresMalformedLines(t *testing.T) {
	store := newFakeStore()

	m := newMigrator(store, Options{DatabaseID: dbID, Limit: 1})
	report, err := m.Run(context.Background(), entries("garbage", pageA, pageB))
	require.NoError(t, err)

	assert.Equal(t, models.Summary{Total: 3, Attempted: 2, Succeeded: 1, Failed: 1, Skipped: 1}, report.Summary)
	assert.Equal(t, models.OutcomeSuccess, report.Results[1].Outcome)
}

func TestRunCreatesEntryAndAppendsBlocks(t *testing.T) {
	store := newFakeStore()
	store.children[pageA] = paragraphs(120)

	m := newMigrator(store, Options{DatabaseID: dbID})
	report, err := m.Run(context.Background(), entries(pageA))
	require.NoError(t, err)

	r := report.Results[0]
	assert.Equal(t, models.OutcomeSuccess, r.Outcome)
	assert.Equal(t, "entry-1", r.CreatedEntryID)
	assert.Equal(t, 120, r.Blocks)
	assert.Equal(t, 2, r.AppendCalls)
	assert.Equal(t, []string{"entry-1", "entry-1"}, store.appends)

	require.Len(t, store.creates, 1)
	assert.Contains(t, store.creates[0], "Title")
	assert.Contains(t, store.creates[0], "Date")
	assert.Contains(t, store.creates[0], "Archived")
}

func TestRunSchemaMismatchAborts(t *testing.T) {
	store := newFakeStore()
	store.database = &notionapi.Database{Properties: notionapi.PropertyConfigs{
		"Name": notionapi.TitlePropertyConfig{Type: "title"},
	}}

	m := newMigrator(store, Options{DatabaseID: dbID})
	report, err := m.Run(context.Background(), entries(pageA))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, models.IsKind(err, models.KindConfiguration))
	assert.Empty(t, store.getPages)
}

func TestRunMissingDatabase(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		store := newFakeStore()
		store.database = nil
		_, err := newMigrator(store, Options{DatabaseID: dbID}).Run(context.Background(), entries(pageA))
		assert.True(t, models.IsKind(err, models.KindConfiguration))
	})

	t.Run("no id outside dry-run", func(t *testing.T) {
		store := newFakeStore()
		_, err := newMigrator(store, Options{}).Run(context.Background(), entries(pageA))
		assert.True(t, models.IsKind(err, models.KindConfiguration))
		assert.Equal(t, 0, store.getDBCalls)
	})

	t.Run("no id in dry-run", func(t *testing.T) {
		store := newFakeStore()
		report, err := newMigrator(store, Options{DryRun: true}).Run(context.Background(), entries(pageA))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Summary.Succeeded)
		assert.Equal(t, 0, store.getDBCalls)
	})
}

func TestRunFetchFailureCreatesNothing(t *testing.T) {
	store := newFakeStore()
	store.getPageErr = map[string]error{pageA: errors.New("restricted_resource")}

	report, err := newMigrator(store, Options{DatabaseID: dbID}).Run(context.Background(), entries(pageA, pageB))
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailed, report.Results[0].Outcome)
	assert.Equal(t, models.KindFetch, report.Results[0].ErrorKind)
	assert.Equal(t, models.StageResolved, report.Results[0].Stage)
	assert.Equal(t, models.OutcomeSuccess, report.Results[1].Outcome)
	assert.Len(t, store.creates, 1)
}

func TestRunCreateFailure(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("validation_error")

	report, err := newMigrator(store, Options{DatabaseID: dbID}).Run(context.Background(), entries(pageA))
	require.NoError(t, err)

	r := report.Results[0]
	assert.Equal(t, models.KindCreate, r.ErrorKind)
	assert.Equal(t, models.StageConverted, r.Stage)
	assert.Empty(t, r.OrphanEntryID)
}

func TestRunPartialAppend(t *testing.T) {
	store := newFakeStore()
	store.children[pageA] = paragraphs(2)
	store.appendErr = errors.New("conflict_error")

	report, err := newMigrator(store, Options{DatabaseID: dbID}).Run(context.Background(), entries(pageA))
	require.NoError(t, err)

	r := report.Results[0]
	assert.Equal(t, models.OutcomeFailed, r.Outcome)
	assert.Equal(t, models.KindCreate, r.ErrorKind)
	assert.True(t, strings.HasPrefix(r.Reason, "partial-append: "), r.Reason)
	assert.Equal(t, "entry-1", r.OrphanEntryID)
	assert.Empty(t, r.CreatedEntryID)
	assert.Equal(t, models.StageCreated, r.Stage)
}

func TestRunCancellationSkipsRemainingPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newFakeStore()
	store.children[pageA] = paragraphs(1)
	store.cancelOn = pageA
	store.cancel = cancel

	report, err := newMigrator(store, Options{DatabaseID: dbID}).Run(ctx, entries(pageA, pageB, "garbage"))
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeSuccess, report.Results[0].Outcome)
	assert.Equal(t, []string{"entry-1"}, store.appends)
	for _, r := range report.Results[1:] {
		assert.Equal(t, models.OutcomeSkipped, r.Outcome)
		assert.Equal(t, models.KindCancelled, r.ErrorKind)
	}
	assert.Equal(t, models.Summary{Total: 3, Attempted: 1, Succeeded: 1, Skipped: 2}, report.Summary)
}
