// Package migrate copies source pages into entries of a target database.
//
// Pages are processed one at a time in input order. Each page moves through
// resolve, fetch, convert, create and append; a failure at any step is
// recorded on the page's result and the run moves on to the next line.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/takak2166/notionmigrate/internal/blocks"
	"github.com/takak2166/notionmigrate/internal/logger"
	"github.com/takak2166/notionmigrate/internal/metadata"
	"github.com/takak2166/notionmigrate/internal/models"
	"github.com/takak2166/notionmigrate/internal/notion"
	"github.com/takak2166/notionmigrate/internal/pageid"
	"github.com/takak2166/notionmigrate/internal/parser"
)

// Store is the document store the migrator reads from and writes to
type Store interface {
	blocks.ChildLister
	blocks.ChildAppender
	GetPage(ctx context.Context, id string) (*notionapi.Page, error)
	GetDatabase(ctx context.Context, id string) (*notionapi.Database, error)
	CreateDatabaseEntry(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error)
}

// Options controls a run
type Options struct {
	DatabaseID string
	DryRun     bool
	// Limit caps the number of resolved pages attempted, 0 means no cap
	Limit     int
	ChunkSize int
}

// Report is the outcome of a run
type Report struct {
	DryRun  bool                     `json:"dry_run" yaml:"dry_run"`
	Summary models.Summary           `json:"summary" yaml:"summary"`
	Results []models.MigrationResult `json:"results" yaml:"results"`
}

// Migrator runs migrations against a Store
type Migrator struct {
	store     Store
	opts      Options
	fetcher   *blocks.Fetcher
	appender  *blocks.Appender
	extractor *metadata.Extractor
	dryRunID  func() string
}

// New creates a Migrator
func New(store Store, extractor *metadata.Extractor, opts Options) *Migrator {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = blocks.DefaultChunkSize
	}
	if extractor == nil {
		extractor = metadata.NewExtractor(nil)
	}
	return &Migrator{
		store:     store,
		opts:      opts,
		fetcher:   blocks.NewFetcher(store),
		appender:  blocks.NewAppender(store, opts.ChunkSize),
		extractor: extractor,
		dryRunID:  newDryRunID,
	}
}

func newDryRunID() string {
	return "dryrun-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CheckDatabase verifies the target database has the properties entries are
// created with. A run without a database id passes only in dry-run.
func (m *Migrator) CheckDatabase(ctx context.Context) error {
	if m.opts.DatabaseID == "" {
		if m.opts.DryRun {
			return nil
		}
		return models.Errorf(models.KindConfiguration, "check database", "target database id is not set")
	}

	db, err := m.store.GetDatabase(ctx, m.opts.DatabaseID)
	if err != nil {
		return models.NewError(models.KindConfiguration, "check database", err)
	}
	if err := notion.ValidateSchema(db); err != nil {
		return err
	}

	logger.Info("Target database verified", map[string]interface{}{
		"database_id": m.opts.DatabaseID,
	})
	return nil
}

// Run migrates entries in order. It returns an error only when the run could
// not start; page failures are recorded in the report.
func (m *Migrator) Run(ctx context.Context, entries []parser.Entry) (*Report, error) {
	if err := m.CheckDatabase(ctx); err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Found %d pages to process", len(entries)), map[string]interface{}{
		"dry_run": m.opts.DryRun,
		"limit":   m.opts.Limit,
	})

	report := &Report{DryRun: m.opts.DryRun}
	attempted := 0
	for _, entry := range entries {
		result := models.MigrationResult{
			Line:  entry.Line,
			Input: entry.Raw,
			Stage: models.StagePending,
		}

		if err := ctx.Err(); err != nil {
			skip(&result, models.KindCancelled, "run cancelled before this page")
			logResult(result)
			report.Results = append(report.Results, result)
			continue
		}

		id, err := pageid.Resolve(entry.Raw)
		if err != nil {
			fail(&result, err, models.KindMalformedIdentifier, "")
			logResult(result)
			report.Results = append(report.Results, result)
			continue
		}
		result.PageID = id
		result.Stage = models.StageResolved

		if m.opts.Limit > 0 && attempted >= m.opts.Limit {
			skip(&result, "", fmt.Sprintf("limit of %d pages reached", m.opts.Limit))
			logResult(result)
			report.Results = append(report.Results, result)
			continue
		}
		attempted++

		// A page that has started runs to completion even if the run is cancelled.
		m.migratePage(context.WithoutCancel(ctx), &result)
		logResult(result)
		report.Results = append(report.Results, result)
	}

	report.Summary = models.Summarize(report.Results)
	if err := ctx.Err(); err != nil {
		logger.Warn("Run cancelled, remaining pages skipped", map[string]interface{}{
			"skipped": report.Summary.Skipped,
		})
	}
	logger.Info("Migration completed", map[string]interface{}{
		"total":     report.Summary.Total,
		"attempted": report.Summary.Attempted,
		"succeeded": report.Summary.Succeeded,
		"failed":    report.Summary.Failed,
		"skipped":   report.Summary.Skipped,
	})
	return report, nil
}

func (m *Migrator) migratePage(ctx context.Context, result *models.MigrationResult) {
	id := result.PageID
	logger.Info("Starting migration", map[string]interface{}{
		"page_id": id,
		"line":    result.Line,
	})

	page, err := m.store.GetPage(ctx, id)
	if err != nil {
		fail(result, err, models.KindFetch, "")
		return
	}
	roots, err := m.fetcher.FetchTree(ctx, id)
	if err != nil {
		fail(result, err, models.KindFetch, "")
		return
	}
	result.Stage = models.StageFetched

	meta := m.extractor.Extract(page, roots)
	result.Title = meta.Title
	result.Date = meta.DateString()

	converted, err := blocks.ConvertForest(roots)
	if err != nil {
		fail(result, err, models.KindConversion, "")
		return
	}
	result.Stage = models.StageConverted
	result.Blocks = blocks.CountAppendable(converted)
	result.AppendCalls = blocks.PlanCalls(converted, m.opts.ChunkSize)

	if m.opts.DryRun {
		result.CreatedEntryID = m.dryRunID()
		logger.Info("[DRY-RUN] Would create entry", map[string]interface{}{
			"page_id":      id,
			"title":        meta.Title,
			"date":         result.Date,
			"archived":     meta.Archived,
			"simulated_id": result.CreatedEntryID,
			"blocks":       result.Blocks,
			"append_calls": result.AppendCalls,
		})
		result.Stage = models.StageCompleted
		result.Outcome = models.OutcomeSuccess
		return
	}

	entryID, err := m.store.CreateDatabaseEntry(ctx, m.opts.DatabaseID, notion.EntryProperties(meta))
	if err != nil {
		fail(result, err, models.KindCreate, "")
		return
	}
	result.Stage = models.StageCreated

	calls, err := m.appender.AppendTree(ctx, entryID, converted)
	result.AppendCalls = calls
	if err != nil {
		result.OrphanEntryID = entryID
		fail(result, err, models.KindCreate, "partial-append: ")
		return
	}

	result.CreatedEntryID = entryID
	result.Stage = models.StageCompleted
	result.Outcome = models.OutcomeSuccess
}

// fail marks result failed. The kind carried by err wins over fallback,
// except that create and append failures are always CreateError.
func fail(result *models.MigrationResult, err error, fallback models.ErrorKind, prefix string) {
	kind := fallback
	if fallback != models.KindCreate {
		kind = models.KindOf(err, fallback)
	}
	result.Outcome = models.OutcomeFailed
	result.ErrorKind = kind
	result.Reason = prefix + err.Error()
}

func skip(result *models.MigrationResult, kind models.ErrorKind, reason string) {
	result.Outcome = models.OutcomeSkipped
	result.ErrorKind = kind
	result.Reason = reason
}

func logResult(result models.MigrationResult) {
	fields := map[string]interface{}{
		"line":    result.Line,
		"page_id": result.PageID,
		"stage":   result.Stage,
	}
	switch result.Outcome {
	case models.OutcomeSuccess:
		fields["entry_id"] = result.CreatedEntryID
		fields["blocks"] = result.Blocks
		logger.Info("Page migrated", fields)
	case models.OutcomeFailed:
		fields["input"] = result.Input
		fields["kind"] = result.ErrorKind
		if result.OrphanEntryID != "" {
			fields["orphan_entry_id"] = result.OrphanEntryID
		}
		logger.Error("Failed to migrate page", errors.New(result.Reason), fields)
	case models.OutcomeSkipped:
		fields["reason"] = result.Reason
		logger.Debug("Page skipped", fields)
	}
}
