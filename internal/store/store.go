// Package store persists runs, phases, fetched pages and catalog snapshots.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Command string          `json:"command,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the catalog pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Page cache. A miss returns ("", false, nil).
	GetCachedPage(ctx context.Context, url string) (string, bool, error)
	SetCachedPage(ctx context.Context, url, html string, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	// Snapshots
	SaveBrokers(ctx context.Context, runID string, brokers []model.BrokerRecord) error
	ListBrokers(ctx context.Context, runID string) ([]model.BrokerRecord, error)
	SaveCatalog(ctx context.Context, runID string, records []model.CatalogRecord) error
	ListCatalog(ctx context.Context, runID string) ([]model.CatalogRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// ErrNotFound is wrapped by lookups for a missing run or phase.
var ErrNotFound = eris.New("not found")
