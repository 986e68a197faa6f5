package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusDrafting   RunStatus = "drafting"
	RunStatusLinking    RunStatus = "linking"
	RunStatusExporting  RunStatus = "exporting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// RunInput describes what a run was started with.
type RunInput struct {
	Command      string `json:"command"`
	ListingsPath string `json:"listings_path,omitempty"`
	BrokersPath  string `json:"brokers_path,omitempty"`
	DraftsPath   string `json:"drafts_path,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
}

// Run is a single tracked pipeline invocation.
type Run struct {
	ID        string     `json:"id"`
	Input     RunInput   `json:"input"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Listings  int           `json:"listings"`
	Pending   int           `json:"pending"`
	Extracted int           `json:"extracted"`
	Brokers   int           `json:"brokers"`
	Drafts    int           `json:"drafts"`
	Catalog   int           `json:"catalog"`
	Artifacts []string      `json:"artifacts,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
	Phases    []PhaseResult `json:"phases"`
	Error     string        `json:"error,omitempty"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
