package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/lombardo/gridiron/internal/aggregate"
)

// BatchStatus is the outcome of one (season, week) batch.
type BatchStatus string

const (
	StatusOK      BatchStatus = "ok"
	StatusFailed  BatchStatus = "failed"
	StatusSkipped BatchStatus = "skipped"
)

// BatchResult records one season-week batch of a run.
type BatchResult struct {
	Season        int         `json:"season"`
	Week          int         `json:"week"`
	RowsGames     int         `json:"rows_games"`
	RowsTeamStats int         `json:"rows_team_stats"`
	Status        BatchStatus `json:"status"`
	Error         string      `json:"error,omitempty"`
}

// RunReport is the single source of truth for partial success of an
// update run.
type RunReport struct {
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Batches      []BatchResult           `json:"batches"`
	SkippedGames []aggregate.SkippedGame `json:"-"`
}

func (r *RunReport) add(res BatchResult) {
	r.Batches = append(r.Batches, res)
}

// Failed reports whether any batch failed. Skipped batches do not count
// as failures; they never ran.
func (r *RunReport) Failed() bool {
	for _, b := range r.Batches {
		if b.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Counts returns batch totals by status.
func (r *RunReport) Counts() (ok, failed, skipped int) {
	for _, b := range r.Batches {
		switch b.Status {
		case StatusOK:
			ok++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return
}

// Summary renders the concise end-of-run line set.
func (r *RunReport) Summary() string {
	ok, failed, skipped := r.Counts()
	var games, stats int
	for _, b := range r.Batches {
		games += b.RowsGames
		stats += b.RowsTeamStats
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "batches: %d ok, %d failed, %d skipped; rows: %d games, %d team-stats",
		ok, failed, skipped, games, stats)
	if len(r.SkippedGames) > 0 {
		fmt.Fprintf(&sb, "; games skipped during aggregation: %d", len(r.SkippedGames))
	}
	for _, b := range r.Batches {
		if b.Status == StatusFailed {
			fmt.Fprintf(&sb, "\n  %d week %d failed: %s", b.Season, b.Week, b.Error)
		}
	}
	return sb.String()
}
