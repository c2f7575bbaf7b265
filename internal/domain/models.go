package domain

import "time"

// Domain contains the core models shared across the extraction pipeline.

// ExtractionJob is one site search request inside a session. SiteURL doubles
// as the configuration lookup key for selectors, date formats and keywords.
type ExtractionJob struct {
	ID       string
	SiteURL  string
	FromDate time.Time
	ToDate   time.Time
}

// PageRef is one resolved listing page produced by the paginator.
type PageRef struct {
	Page int
	URL  string
}

// ArticleRecord holds the parallel-indexed field lists extracted from one
// listing page before filtering. Titles, Links and Dates must stay aligned;
// a length mismatch is recovered by truncating to the shortest of the three.
type ArticleRecord struct {
	Titles  []string
	Bodies  []string
	Links   []string
	Dates   []string
	Authors []string
}

// FilteredRow is one surviving article, written once to the job's staging
// file and never updated afterwards.
type FilteredRow struct {
	PageURL       string
	Date          string
	Title         string
	Author        string
	URL           string
	TitleKeywords string
	BodyKeywords  string
	Site          string
}

// SessionStatus enumerates the lifecycle states recorded for a session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionRecord is the persisted outcome of one extraction session.
type SessionRecord struct {
	ID         string        `json:"id"`
	Status     SessionStatus `json:"status"`
	ReportPath string        `json:"report_path,omitempty"`
	Rows       int           `json:"rows"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
}

// ReportEvent is published to configured sinks when a session report has
// been written.
type ReportEvent struct {
	SessionID   string    `json:"session_id"`
	ReportPath  string    `json:"report_path"`
	Rows        int       `json:"rows"`
	Sites       []string  `json:"sites"`
	GeneratedAt time.Time `json:"generated_at"`
}
