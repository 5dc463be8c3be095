package update

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/lombardo/gridiron/internal/aggregate"
	"github.com/lombardo/gridiron/internal/config"
	"github.com/lombardo/gridiron/internal/ingest/nflverse"
	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/store/repository"
)

// Source is the upstream dataset contract the orchestrator consumes.
// *nflverse.Client satisfies it; tests substitute a fake.
type Source interface {
	FetchSchedules(ctx context.Context, seasons []int) ([]nflverse.ScheduleRow, error)
	FetchPBP(ctx context.Context, seasons []int) ([]nflverse.PlayRow, error)
}

// Orchestrator chains fetch, aggregation and the batched writes. One
// instance runs one update at a time; there is no intra-run parallelism.
type Orchestrator struct {
	db     *store.Database
	games  *repository.GameRepository
	stats  *repository.StatsRepository
	source Source

	batchSize     int
	batchTimeout  time.Duration
	runSoftCap    time.Duration
	retryAttempts int
}

// NewOrchestrator creates an orchestrator over an open database and source.
func NewOrchestrator(db *store.Database, source Source, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		db:            db,
		games:         repository.NewGameRepository(db),
		stats:         repository.NewStatsRepository(db),
		source:        source,
		batchSize:     cfg.BatchSize,
		batchTimeout:  cfg.BatchTimeout,
		runSoftCap:    cfg.RunSoftCap,
		retryAttempts: cfg.RetryAttempts,
	}
}

// batch is one (season, week) unit of work.
type batch struct {
	season, week int
	games        []*store.Game
	stats        []*store.TeamGameStat
}

// RunUpdate processes the requested seasons (optionally restricted to a
// week subset) and returns the per-batch report. The returned error is
// non-nil only for run-fatal conditions: schema mismatch upstream,
// integrity violation on write, or cancellation.
func (o *Orchestrator) RunUpdate(ctx context.Context, seasons, weeks []int) (*RunReport, error) {
	report := &RunReport{StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	if err := o.db.EnsureSchema(ctx); err != nil {
		return report, fmt.Errorf("ensuring schema: %w", err)
	}

	sort.Ints(seasons)
	deadline := report.StartedAt.Add(o.runSoftCap)

	for _, season := range seasons {
		batches, skippedGames, err := o.prepareSeason(ctx, season, weeks)
		if err != nil {
			var schemaErr *nflverse.SchemaError
			if errors.As(err, &schemaErr) {
				return report, err // cannot produce correct output, abort
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Printf("[update] ❌ season %d fetch failed: %v", season, err)
			failSeason(report, season, weeks, err)
			continue
		}
		report.SkippedGames = append(report.SkippedGames, skippedGames...)

		for _, b := range batches {
			if ctx.Err() != nil {
				report.add(BatchResult{Season: b.season, Week: b.week, Status: StatusSkipped, Error: "run cancelled"})
				continue
			}
			if time.Now().After(deadline) {
				report.add(BatchResult{Season: b.season, Week: b.week, Status: StatusSkipped, Error: "run soft cap exceeded"})
				continue
			}

			res, err := o.writeBatch(ctx, b)
			report.add(res)
			if err != nil {
				return report, err // integrity violations abort the run
			}
		}
	}

	o.refreshViews(ctx)

	log.Printf("[update] ✓ run complete: %s", report.Summary())
	return report, nil
}

// failSeason records a season-level fetch failure. With a week subset
// the failure fans out to one result per requested week so re-run
// accounting stays per (season, week).
func failSeason(report *RunReport, season int, weeks []int, err error) {
	if len(weeks) == 0 {
		report.add(BatchResult{Season: season, Status: StatusFailed, Error: err.Error()})
		return
	}
	for _, w := range weeks {
		report.add(BatchResult{Season: season, Week: w, Status: StatusFailed, Error: err.Error()})
	}
}

// prepareSeason fetches one season and aggregates it into week batches,
// ascending by week. Games dropped during aggregation come back in the
// second return value for the run report.
func (o *Orchestrator) prepareSeason(ctx context.Context, season int, weeks []int) ([]batch, []aggregate.SkippedGame, error) {
	schedules, err := o.source.FetchSchedules(ctx, []int{season})
	if err != nil {
		return nil, nil, err
	}
	plays, err := o.source.FetchPBP(ctx, []int{season})
	if err != nil {
		return nil, nil, err
	}

	games, stats, skipped := aggregate.Aggregate(schedules, plays)
	for _, sg := range skipped {
		log.Printf("[update] skipping game: %v", sg.Err)
	}

	wantWeek := func(int) bool { return true }
	if len(weeks) > 0 {
		set := make(map[int]bool, len(weeks))
		for _, w := range weeks {
			set[w] = true
		}
		wantWeek = func(w int) bool { return set[w] }
	}

	byWeek := make(map[int]*batch)
	for _, g := range games {
		if g.Season != season || !wantWeek(g.Week) {
			continue
		}
		b, ok := byWeek[g.Week]
		if !ok {
			b = &batch{season: season, week: g.Week}
			byWeek[g.Week] = b
		}
		b.games = append(b.games, g)
	}
	for _, s := range stats {
		if s.Season != season || !wantWeek(s.Week) {
			continue
		}
		if b, ok := byWeek[s.Week]; ok {
			b.stats = append(b.stats, s)
		}
	}

	ordered := make([]batch, 0, len(byWeek))
	for _, b := range byWeek {
		ordered = append(ordered, *b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].week < ordered[j].week })
	return ordered, skipped, nil
}

// writeBatch upserts one season-week into both tables inside a single
// transaction, retrying once on transient failure. The returned error is
// non-nil only when the run must abort.
func (o *Orchestrator) writeBatch(ctx context.Context, b batch) (BatchResult, error) {
	res := BatchResult{Season: b.season, Week: b.week}

	var lastErr error
	for attempt := 0; attempt <= o.retryAttempts; attempt++ {
		nGames, nStats, err := o.tryWrite(ctx, b)
		if err == nil {
			res.RowsGames = nGames
			res.RowsTeamStats = nStats
			res.Status = StatusOK
			log.Printf("[update] ✓ %d week %d: %d games, %d team rows", b.season, b.week, nGames, nStats)
			return res, nil
		}
		lastErr = err

		var integrity *store.IntegrityError
		if errors.As(err, &integrity) {
			res.Status = StatusFailed
			res.Error = err.Error()
			return res, err // broken key invariant upstream, never repaired silently
		}
		if ctx.Err() != nil {
			break
		}
		log.Printf("[update] batch %d week %d attempt %d failed: %v", b.season, b.week, attempt+1, err)
	}

	res.Status = StatusFailed
	res.Error = lastErr.Error()
	return res, nil
}

func (o *Orchestrator) tryWrite(ctx context.Context, b batch) (int, int, error) {
	bctx, cancel := context.WithTimeout(ctx, o.batchTimeout)
	defer cancel()

	tx, err := o.db.DB().BeginTx(bctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("beginning batch tx: %w", err)
	}
	defer tx.Rollback()

	nGames := 0
	for _, part := range chunkRows(b.games, o.batchSize) {
		n, err := o.games.UpsertTx(bctx, tx, part)
		if err != nil {
			return 0, 0, err
		}
		nGames += n
	}

	// Cancellation point between the two writes; the open transaction
	// aborts without partial visibility.
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	nStats := 0
	for _, part := range chunkRows(b.stats, o.batchSize) {
		n, err := o.stats.UpsertTx(bctx, tx, part)
		if err != nil {
			return 0, 0, err
		}
		nStats += n
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing batch: %w", err)
	}
	return nGames, nStats, nil
}

// chunkRows splits rows into statement groups of at most size rows.
// size <= 0 means no cap.
func chunkRows[T any](rows []T, size int) [][]T {
	if len(rows) == 0 {
		return nil
	}
	if size <= 0 || len(rows) <= size {
		return [][]T{rows}
	}
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

// refreshViews exists for parity with a materialised deployment. The
// shipped views are plain, so refresh is a logged no-op.
func (o *Orchestrator) refreshViews(ctx context.Context) {
	log.Printf("[update] views are non-materialised; refresh skipped")
}
