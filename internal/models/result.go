package models

import "time"

// Outcome is the final state of one input line
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Stage is a step in the per-page migration state machine
type Stage string

const (
	StagePending   Stage = "pending"
	StageResolved  Stage = "resolved"
	StageFetched   Stage = "fetched"
	StageConverted Stage = "converted"
	StageCreated   Stage = "created"
	StageCompleted Stage = "completed"
)

// PageMetadata is the title, date and archived flag of a new entry
type PageMetadata struct {
	Title    string
	Date     time.Time
	Archived bool
}

// DateString formats the entry date the way the store expects it
func (m PageMetadata) DateString() string {
	return m.Date.Format("2006-01-02")
}

// MigrationResult records what happened to one input line
type MigrationResult struct {
	Line           int       `json:"line" yaml:"line"`
	Input          string    `json:"input" yaml:"input"`
	PageID         string    `json:"page_id,omitempty" yaml:"page_id,omitempty"`
	Outcome        Outcome   `json:"outcome" yaml:"outcome"`
	Stage          Stage     `json:"stage" yaml:"stage"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Reason         string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedEntryID string    `json:"created_entry_id,omitempty" yaml:"created_entry_id,omitempty"`
	OrphanEntryID  string    `json:"orphan_entry_id,omitempty" yaml:"orphan_entry_id,omitempty"`
	Title          string    `json:"title,omitempty" yaml:"title,omitempty"`
	Date           string    `json:"date,omitempty" yaml:"date,omitempty"`
	Blocks         int       `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	AppendCalls    int       `json:"append_calls,omitempty" yaml:"append_calls,omitempty"`
}

// Summary holds the counts reported at the end of a run
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Attempted int `json:"attempted" yaml:"attempted"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Summarize counts the outcomes in results
func Summarize(results []MigrationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	s.Attempted = s.Succeeded + s.Failed
	return s
}
