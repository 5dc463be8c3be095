package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lombardo/gridiron/internal/ingest/nflverse"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func sched(gameID string, season, week int, home, away string, homeScore, awayScore *int) nflverse.ScheduleRow {
	return nflverse.ScheduleRow{
		GameID:    gameID,
		Season:    season,
		Week:      week,
		GameType:  "REG",
		Gameday:   "2024-10-06",
		Gametime:  "13:00",
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: homeScore,
		AwayScore: awayScore,
	}
}

func passPlay(gameID string, season, week int, posteam, defteam string, yards, epa float64) nflverse.PlayRow {
	return nflverse.PlayRow{
		GameID: gameID, Season: season, Week: week,
		Posteam: posteam, Defteam: defteam, PlayType: "pass",
		YardsGained: fp(yards), PassAttempt: 1, CompletePass: 1,
		EPA: fp(epa), Success: fp(1), WPA: fp(0.02),
		CPOE: fp(4.5), AirYards: fp(8), YardsAfterCatch: fp(yards - 8),
	}
}

func rushPlay(gameID string, season, week int, posteam, defteam string, yards, epa float64) nflverse.PlayRow {
	return nflverse.PlayRow{
		GameID: gameID, Season: season, Week: week,
		Posteam: posteam, Defteam: defteam, PlayType: "run",
		YardsGained: fp(yards), RushAttempt: 1,
		EPA: fp(epa), Success: fp(0), WPA: fp(-0.01),
	}
}

func TestAggregateSingleGame(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_05_BUF_KC", 2024, 5, "KC", "BUF", ip(27), ip(20)),
	}
	plays := []nflverse.PlayRow{
		passPlay("2024_05_BUF_KC", 2024, 5, "KC", "BUF", 12, 0.8),
		passPlay("2024_05_BUF_KC", 2024, 5, "KC", "BUF", 25, 1.6),
		rushPlay("2024_05_BUF_KC", 2024, 5, "KC", "BUF", 4, 0.1),
		rushPlay("2024_05_BUF_KC", 2024, 5, "KC", "BUF", -2, -0.7),
		passPlay("2024_05_BUF_KC", 2024, 5, "BUF", "KC", 9, 0.3),
		rushPlay("2024_05_BUF_KC", 2024, 5, "BUF", "KC", 11, 0.5),
	}

	games, stats, skipped := Aggregate(schedules, plays)
	require.Empty(t, skipped)
	require.Len(t, games, 1)
	require.Len(t, stats, 2)

	// home side first
	kc, buf := stats[0], stats[1]
	assert.Equal(t, "KC", kc.Team)
	assert.True(t, kc.IsHome)
	assert.Equal(t, "BUF", kc.Opponent)
	assert.Equal(t, "BUF", buf.Team)
	assert.False(t, buf.IsHome)

	assert.Equal(t, int32(27), kc.Points.Int32)
	assert.Equal(t, int32(20), kc.PointsAllowed.Int32)
	assert.Equal(t, "W", kc.Result.String)
	assert.Equal(t, "L", buf.Result.String)

	assert.Equal(t, int32(4), kc.Plays.Int32)
	assert.Equal(t, int32(2), kc.PassAttempts.Int32)
	assert.Equal(t, int32(2), kc.RushAttempts.Int32)
	assert.Equal(t, int32(2), kc.Completions.Int32)
	assert.Equal(t, int32(37), kc.PassingYards.Int32)
	assert.Equal(t, int32(2), kc.RushingYards.Int32)
	assert.Equal(t, int32(39), kc.TotalYards.Int32)
	assert.Equal(t, int32(4*40), kc.TimeOfPossessionSec.Int32)

	require.True(t, kc.EPAPerPlay.Valid)
	assert.InDelta(t, (0.8+1.6+0.1-0.7)/4, kc.EPAPerPlay.Float64, 1e-9)
	assert.InDelta(t, 1.8, kc.TotalEPA.Float64, 1e-9)
	assert.InDelta(t, 2.4, kc.PassEPA.Float64, 1e-9)
	assert.InDelta(t, -0.6, kc.RushEPA.Float64, 1e-9)
	assert.InDelta(t, 0.5, kc.SuccessRate.Float64, 1e-9)
	assert.InDelta(t, 1.0, kc.PassSuccessRate.Float64, 1e-9)
	assert.InDelta(t, 0.0, kc.RushSuccessRate.Float64, 1e-9)
	assert.InDelta(t, 4.5, kc.CPOE.Float64, 1e-9)
	assert.InDelta(t, 100.0, kc.CompletionPct.Float64, 1e-9)

	// one 25-yard pass out of four plays
	assert.InDelta(t, 25.0, kc.ExplosivePlayPct.Float64, 1e-9)
	// one of two rushes went for no gain or less
	assert.InDelta(t, 50.0, kc.StuffRate.Float64, 1e-9)

	g := games[0]
	assert.Equal(t, "2024_05_BUF_KC", g.GameID)
	assert.False(t, g.IsPostseason)
	assert.True(t, g.GameDate.Valid)
	assert.True(t, g.KickoffTimeUTC.Valid)
}

func TestAggregateTie(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_03_DET_SEA", 2024, 3, "SEA", "DET", ip(24), ip(24)),
	}
	plays := []nflverse.PlayRow{
		rushPlay("2024_03_DET_SEA", 2024, 3, "SEA", "DET", 5, 0.2),
		rushPlay("2024_03_DET_SEA", 2024, 3, "DET", "SEA", 3, 0.1),
	}

	_, stats, _ := Aggregate(schedules, plays)
	require.Len(t, stats, 2)
	assert.Equal(t, "T", stats[0].Result.String)
	assert.Equal(t, "T", stats[1].Result.String)
}

func TestZeroPlaySideHasNullRates(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_07_NYJ_NE", 2024, 7, "NE", "NYJ", ip(10), ip(3)),
	}
	plays := []nflverse.PlayRow{
		rushPlay("2024_07_NYJ_NE", 2024, 7, "NE", "NYJ", 6, 0.2),
	}

	_, stats, _ := Aggregate(schedules, plays)
	require.Len(t, stats, 2)

	nyj := stats[1]
	require.Equal(t, "NYJ", nyj.Team)

	// volume is zero, not null
	assert.True(t, nyj.Plays.Valid)
	assert.Equal(t, int32(0), nyj.Plays.Int32)
	assert.Equal(t, int32(0), nyj.TotalYards.Int32)
	assert.Equal(t, int32(0), nyj.Turnovers.Int32)

	// rates and EPA are null, not zero
	assert.False(t, nyj.YardsPerPlay.Valid)
	assert.False(t, nyj.CompletionPct.Valid)
	assert.False(t, nyj.PassingYardsPerGame.Valid)
	assert.False(t, nyj.EPAPerPlay.Valid)
	assert.False(t, nyj.SuccessRate.Valid)
	assert.False(t, nyj.ExplosivePlayPct.Valid)
	assert.False(t, nyj.StuffRate.Valid)

	// result still resolves from the schedule
	assert.Equal(t, "L", nyj.Result.String)
}

func TestMissingCPOEYieldsNull(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2004_02_GB_CHI", 2004, 2, "CHI", "GB", ip(21), ip(10)),
	}
	play := passPlay("2004_02_GB_CHI", 2004, 2, "CHI", "GB", 15, 0.9)
	play.CPOE = nil

	_, stats, _ := Aggregate(schedules, []nflverse.PlayRow{play})
	require.Len(t, stats, 2)
	chi := stats[0]
	assert.False(t, chi.CPOE.Valid)
	assert.True(t, chi.EPAPerPlay.Valid)
}

func TestScheduledGameWithoutPlaysEmitsZeroVolumeRows(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_12_DAL_PHI", 2024, 12, "PHI", "DAL", nil, nil),
	}

	games, stats, skipped := Aggregate(schedules, nil)
	assert.Len(t, games, 1)
	assert.Empty(t, skipped)
	assert.False(t, games[0].HomeScore.Valid)

	// both sides still get a row: zero volume, everything else null
	require.Len(t, stats, 2)
	phi := stats[0]
	assert.Equal(t, "PHI", phi.Team)
	assert.True(t, phi.IsHome)
	assert.True(t, phi.Plays.Valid)
	assert.Equal(t, int32(0), phi.Plays.Int32)
	assert.Equal(t, int32(0), phi.TotalYards.Int32)
	assert.Equal(t, int32(0), phi.Turnovers.Int32)
	assert.False(t, phi.Points.Valid)
	assert.False(t, phi.Result.Valid)
	assert.False(t, phi.YardsPerPlay.Valid)
	assert.False(t, phi.CompletionPct.Valid)
	assert.False(t, phi.EPAPerPlay.Valid)
	assert.Equal(t, "DAL", stats[1].Team)
}

func TestPointsFallBackToRunningScore(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_06_LV_DEN", 2024, 6, "DEN", "LV", nil, nil),
	}
	p1 := rushPlay("2024_06_LV_DEN", 2024, 6, "DEN", "LV", 4, 0.1)
	p1.PosteamScore = ip(14)
	p2 := rushPlay("2024_06_LV_DEN", 2024, 6, "LV", "DEN", 2, -0.2)
	p2.PosteamScore = ip(10)

	_, stats, _ := Aggregate(schedules, []nflverse.PlayRow{p1, p2})
	require.Len(t, stats, 2)

	den := stats[0]
	assert.Equal(t, int32(14), den.Points.Int32)
	assert.Equal(t, int32(10), den.PointsAllowed.Int32)
	// no final score, no result letter
	assert.False(t, den.Result.Valid)
}

func TestUnknownGameInPBPIsSkipped(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_01_BAL_KC", 2024, 1, "KC", "BAL", ip(27), ip(20)),
	}
	plays := []nflverse.PlayRow{
		rushPlay("2024_01_BAL_KC", 2024, 1, "KC", "BAL", 3, 0.1),
		rushPlay("2024_01_XX_YY", 2024, 1, "XX", "YY", 5, 0.2),
	}

	games, stats, skipped := Aggregate(schedules, plays)
	assert.Len(t, games, 1)
	assert.Len(t, stats, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, "2024_01_XX_YY", skipped[0].GameID)
	assert.Contains(t, skipped[0].Err.Error(), "absent from the schedule")
}

func TestForeignPosteamSkipsWholeGame(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_02_CIN_CLE", 2024, 2, "CLE", "CIN", ip(17), ip(13)),
	}
	plays := []nflverse.PlayRow{
		rushPlay("2024_02_CIN_CLE", 2024, 2, "CLE", "CIN", 3, 0.1),
		rushPlay("2024_02_CIN_CLE", 2024, 2, "PIT", "CLE", 5, 0.2),
	}

	games, stats, skipped := Aggregate(schedules, plays)
	assert.Empty(t, games)
	assert.Empty(t, stats)
	require.Len(t, skipped, 1)
	assert.Equal(t, "2024_02_CIN_CLE", skipped[0].GameID)
}

func TestOutputOrderIsDeterministic(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_02_B_A", 2024, 2, "A", "B", ip(20), ip(10)),
		sched("2024_01_D_C", 2024, 1, "C", "D", ip(30), ip(7)),
		sched("2024_01_A_C", 2024, 1, "C", "A", ip(14), ip(21)),
	}

	games, _, _ := Aggregate(schedules, nil)
	require.Len(t, games, 3)
	assert.Equal(t, "2024_01_A_C", games[0].GameID)
	assert.Equal(t, "2024_01_D_C", games[1].GameID)
	assert.Equal(t, "2024_02_B_A", games[2].GameID)
}

func TestAggregateIsIdempotent(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_05_BUF_KC", 2024, 5, "KC", "BUF", ip(27), ip(20)),
	}
	plays := []nflverse.PlayRow{
		passPlay("2024_05_BUF_KC", 2024, 5, "KC", "BUF", 12, 0.8),
		rushPlay("2024_05_BUF_KC", 2024, 5, "BUF", "KC", 7, 0.4),
	}

	games1, stats1, _ := Aggregate(schedules, plays)
	games2, stats2, _ := Aggregate(schedules, plays)
	assert.Equal(t, games1, games2)
	assert.Equal(t, stats1, stats2)
}

func TestTurnoversAreIntsPlusFumbles(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_09_TB_NO", 2024, 9, "NO", "TB", ip(20), ip(23)),
	}
	pick := passPlay("2024_09_TB_NO", 2024, 9, "NO", "TB", 0, -2.1)
	pick.CompletePass = 0
	pick.Interception = 1
	fumble := rushPlay("2024_09_TB_NO", 2024, 9, "NO", "TB", 3, -1.4)
	fumble.FumbleLost = 1

	_, stats, _ := Aggregate(schedules, []nflverse.PlayRow{pick, fumble})
	no := stats[0]
	require.Equal(t, "NO", no.Team)
	assert.Equal(t, int32(1), no.InterceptionsThrown.Int32)
	assert.Equal(t, int32(1), no.FumblesLost.Int32)
	assert.Equal(t, int32(2), no.Turnovers.Int32)
}

func TestPostseasonWeekPreserved(t *testing.T) {
	row := sched("2024_21_KC_BUF", 2024, 21, "BUF", "KC", ip(24), ip(27))
	row.GameType = "CON"

	games, _, _ := Aggregate([]nflverse.ScheduleRow{row}, nil)
	require.Len(t, games, 1)
	assert.Equal(t, 21, games[0].Week)
	assert.True(t, games[0].IsPostseason)
}

func TestSituationalStatsFromOptionalColumns(t *testing.T) {
	schedules := []nflverse.ScheduleRow{
		sched("2024_04_MIA_BUF", 2024, 4, "BUF", "MIA", ip(31), ip(10)),
	}
	opt := nflverse.OptionalColumns{Down: true, FirstDown: true, Penalty: true, PenaltyYards: true}

	third := rushPlay("2024_04_MIA_BUF", 2024, 4, "BUF", "MIA", 6, 0.5)
	third.Down = ip(3)
	third.FirstDown = fp(1)
	third.HasOptional = opt

	thirdFail := passPlay("2024_04_MIA_BUF", 2024, 4, "BUF", "MIA", 2, -0.3)
	thirdFail.Down = ip(3)
	thirdFail.FirstDown = fp(0)
	thirdFail.HasOptional = opt

	flagged := rushPlay("2024_04_MIA_BUF", 2024, 4, "BUF", "MIA", 0, -0.6)
	flagged.Penalty = fp(1)
	flagged.PenaltyYards = fp(10)
	flagged.HasOptional = opt

	_, stats, _ := Aggregate(schedules, []nflverse.PlayRow{third, thirdFail, flagged})
	buf := stats[0]
	require.Equal(t, "BUF", buf.Team)

	assert.Equal(t, int32(1), buf.FirstDowns.Int32)
	assert.Equal(t, int32(2), buf.ThirdDownAttempts.Int32)
	assert.Equal(t, int32(1), buf.ThirdDownConversions.Int32)
	assert.InDelta(t, 50.0, buf.ThirdDownPct.Float64, 1e-9)
	assert.Equal(t, int32(1), buf.Penalties.Int32)
	assert.Equal(t, int32(10), buf.PenaltyYards.Int32)

	// red zone columns absent from this feed, outputs stay null
	assert.False(t, buf.RedZoneAttempts.Valid)
	assert.False(t, buf.RedZonePct.Valid)
}
