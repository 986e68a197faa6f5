package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/broker-catalog/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:     "abc12345-6789-0000-0000-000000000000",
			Input:  model.RunInput{Command: "run"},
			Status: model.RunStatusComplete,
			Result: &model.RunResult{
				Brokers: 12,
				Catalog: 30,
				Errors:  []string{"fetch failed"},
				Phases: []model.PhaseResult{
					{Name: "filter", Status: model.PhaseStatusComplete},
					{Name: "persist", Status: model.PhaseStatusFailed},
				},
			},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Input:     model.RunInput{Command: "brokers"},
			Status:    model.RunStatusExtracting,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "COMMAND")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "1/2 failed:persist")
	assert.Contains(t, out, "extracting")
	assert.Contains(t, out, "2026-03-14 10:30")
	assert.Contains(t, out, "2m0s")
}

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(10 * time.Second),
			Result: &model.RunResult{Brokers: 4, Catalog: 10}},
		{Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(30 * time.Second),
			Result: &model.RunResult{Brokers: 2, Catalog: 5, Errors: []string{"a", "b"}}},
		{Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now.Add(time.Second),
			Result: &model.RunResult{Error: "boom"}},
		{Status: model.RunStatusQueued, CreatedAt: now, UpdatedAt: now},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 6, s.Brokers)
	assert.Equal(t, 15, s.Catalog)
	assert.Equal(t, 2, s.Errors)
	assert.InDelta(t, 20.0, s.AvgDurSecs, 0.001)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.Contains(t, buf.String(), "Avg duration:")
	assert.Contains(t, buf.String(), "20.0s")
}

func TestRunsSince(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "new", CreatedAt: now},
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour)},
	}

	got := runsSince(runs, now.Add(-24*time.Hour))
	assert.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
