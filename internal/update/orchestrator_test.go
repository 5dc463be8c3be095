package update

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lombardo/gridiron/internal/ingest/nflverse"
)

type fakeSource struct {
	schedules    []nflverse.ScheduleRow
	plays        []nflverse.PlayRow
	scheduleErr  error
	pbpErr       error
	fetchedSched [][]int
}

func (f *fakeSource) FetchSchedules(ctx context.Context, seasons []int) ([]nflverse.ScheduleRow, error) {
	f.fetchedSched = append(f.fetchedSched, seasons)
	return f.schedules, f.scheduleErr
}

func (f *fakeSource) FetchPBP(ctx context.Context, seasons []int) ([]nflverse.PlayRow, error) {
	return f.plays, f.pbpErr
}

func ip(v int) *int { return &v }

func schedRow(gameID string, season, week int, home, away string) nflverse.ScheduleRow {
	return nflverse.ScheduleRow{
		GameID: gameID, Season: season, Week: week, GameType: "REG",
		Gameday: "2024-10-06", HomeTeam: home, AwayTeam: away,
		HomeScore: ip(21), AwayScore: ip(14),
	}
}

func rush(gameID string, season, week int, posteam, defteam string) nflverse.PlayRow {
	epa := 0.1
	return nflverse.PlayRow{
		GameID: gameID, Season: season, Week: week,
		Posteam: posteam, Defteam: defteam, PlayType: "run",
		RushAttempt: 1, EPA: &epa,
	}
}

func testOrchestrator(src Source) *Orchestrator {
	return &Orchestrator{
		source:        src,
		batchSize:     1000,
		batchTimeout:  time.Minute,
		runSoftCap:    30 * time.Minute,
		retryAttempts: 1,
	}
}

func TestPrepareSeasonGroupsByWeekAscending(t *testing.T) {
	src := &fakeSource{
		schedules: []nflverse.ScheduleRow{
			schedRow("2024_03_A_B", 2024, 3, "B", "A"),
			schedRow("2024_01_C_D", 2024, 1, "D", "C"),
			schedRow("2024_01_E_F", 2024, 1, "F", "E"),
		},
		plays: []nflverse.PlayRow{
			rush("2024_03_A_B", 2024, 3, "B", "A"),
			rush("2024_01_C_D", 2024, 1, "D", "C"),
		},
	}

	batches, skipped, err := testOrchestrator(src).prepareSeason(context.Background(), 2024, nil)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, batches, 2)

	assert.Equal(t, 1, batches[0].week)
	assert.Len(t, batches[0].games, 2)
	assert.Len(t, batches[0].stats, 4) // E_F has no play-by-play but still gets rows

	assert.Equal(t, 3, batches[1].week)
	assert.Len(t, batches[1].games, 1)
	assert.Len(t, batches[1].stats, 2)
}

func TestPrepareSeasonWeekFilter(t *testing.T) {
	src := &fakeSource{
		schedules: []nflverse.ScheduleRow{
			schedRow("2024_01_C_D", 2024, 1, "D", "C"),
			schedRow("2024_02_A_B", 2024, 2, "B", "A"),
		},
	}

	batches, _, err := testOrchestrator(src).prepareSeason(context.Background(), 2024, []int{2})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].week)
}

func TestPrepareSeasonReturnsSkippedGames(t *testing.T) {
	src := &fakeSource{
		schedules: []nflverse.ScheduleRow{
			schedRow("2024_01_C_D", 2024, 1, "D", "C"),
		},
		plays: []nflverse.PlayRow{
			rush("2024_01_C_D", 2024, 1, "D", "C"),
			rush("2024_01_X_Y", 2024, 1, "Y", "X"), // no schedule entry
		},
	}

	batches, skipped, err := testOrchestrator(src).prepareSeason(context.Background(), 2024, nil)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "2024_01_X_Y", skipped[0].GameID)
}

func TestPrepareSeasonPropagatesSchemaError(t *testing.T) {
	src := &fakeSource{
		scheduleErr: &nflverse.SchemaError{Dataset: "schedules", Missing: []string{"spread_line"}},
	}

	_, _, err := testOrchestrator(src).prepareSeason(context.Background(), 2024, nil)
	var schemaErr *nflverse.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestPrepareSeasonPropagatesUnavailable(t *testing.T) {
	src := &fakeSource{
		pbpErr: fmt.Errorf("%w: connection refused", nflverse.ErrUnavailable),
	}

	_, _, err := testOrchestrator(src).prepareSeason(context.Background(), 2024, nil)
	require.ErrorIs(t, err, nflverse.ErrUnavailable)
}

func TestChunkRows(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	assert.Nil(t, chunkRows([]int{}, 2))
	assert.Equal(t, [][]int{rows}, chunkRows(rows, 0))
	assert.Equal(t, [][]int{rows}, chunkRows(rows, 5))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunkRows(rows, 2))
}

func TestSeasonFetchFailureFansOutToWeeks(t *testing.T) {
	r := &RunReport{}
	failSeason(r, 2024, []int{3, 7}, fmt.Errorf("fetch failed"))

	require.Len(t, r.Batches, 2)
	assert.Equal(t, 3, r.Batches[0].Week)
	assert.Equal(t, 7, r.Batches[1].Week)
	for _, b := range r.Batches {
		assert.Equal(t, 2024, b.Season)
		assert.Equal(t, StatusFailed, b.Status)
	}

	full := &RunReport{}
	failSeason(full, 2024, nil, fmt.Errorf("fetch failed"))
	require.Len(t, full.Batches, 1)
	assert.Equal(t, 0, full.Batches[0].Week)
}

func TestRunReportFailed(t *testing.T) {
	r := &RunReport{}
	r.add(BatchResult{Season: 2024, Week: 1, Status: StatusOK})
	assert.False(t, r.Failed())

	r.add(BatchResult{Season: 2024, Week: 2, Status: StatusSkipped})
	assert.False(t, r.Failed())

	r.add(BatchResult{Season: 2024, Week: 3, Status: StatusFailed, Error: "timeout"})
	assert.True(t, r.Failed())

	ok, failed, skipped := r.Counts()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
}

func TestRunReportSummary(t *testing.T) {
	r := &RunReport{}
	r.add(BatchResult{Season: 2024, Week: 1, RowsGames: 16, RowsTeamStats: 32, Status: StatusOK})
	r.add(BatchResult{Season: 2024, Week: 2, Status: StatusFailed, Error: "batch timeout"})

	s := r.Summary()
	assert.Contains(t, s, "1 ok, 1 failed, 0 skipped")
	assert.Contains(t, s, "16 games, 32 team-stats")
	assert.Contains(t, s, "2024 week 2 failed: batch timeout")
}
