package nflverse

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleHeader = "game_id,season,week,game_type,gameday,gametime,home_team,away_team," +
	"home_score,away_score,spread_line,total_line,home_moneyline,away_moneyline," +
	"roof,surface,temp,wind,referee,home_coach,away_coach,home_qb_name,away_qb_name," +
	"home_rest,away_rest,overtime,div_game"

func TestParseSchedulesCanonicalisesSpread(t *testing.T) {
	// Upstream +3.5 means home favoured by 3.5; stored is -3.5.
	csv := scheduleHeader + "\n" +
		"2024_05_BUF_KC,2024,5,REG,2024-10-06,16:25,KC,BUF," +
		"27,20,3.5,47.5,-180,155," +
		"outdoors,grass,72,8,Carl Cheffers,Andy Reid,Sean McDermott,P.Mahomes,J.Allen," +
		"7,6,0,0\n"

	rows, err := ParseSchedules(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "2024_05_BUF_KC", r.GameID)
	assert.Equal(t, 2024, r.Season)
	assert.Equal(t, 5, r.Week)
	require.NotNil(t, r.SpreadLine)
	assert.InDelta(t, -3.5, *r.SpreadLine, 1e-9)
	require.NotNil(t, r.TotalLine)
	assert.InDelta(t, 47.5, *r.TotalLine, 1e-9)
	require.NotNil(t, r.HomeMoneyline)
	assert.Equal(t, -180, *r.HomeMoneyline)
	require.NotNil(t, r.HomeScore)
	assert.Equal(t, 27, *r.HomeScore)
	require.NotNil(t, r.Overtime)
	assert.False(t, *r.Overtime)
	assert.False(t, r.IsPostseason())
}

func TestParseSchedulesBlankFieldsAreNil(t *testing.T) {
	csv := scheduleHeader + "\n" +
		"2024_12_DAL_PHI,2024,12,REG,2024-11-24,,PHI,DAL," +
		",,,,,," +
		"dome,turf,,,,,,,," +
		",,,\n"

	rows, err := ParseSchedules(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Nil(t, r.HomeScore)
	assert.Nil(t, r.SpreadLine)
	assert.Nil(t, r.Temp)
	assert.Nil(t, r.Overtime)
	assert.Equal(t, "dome", r.Roof)
}

func TestParseSchedulesMissingRequiredColumn(t *testing.T) {
	csv := "game_id,season,week\n2024_01_A_B,2024,1\n"

	_, err := ParseSchedules(strings.NewReader(csv))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "schedules", schemaErr.Dataset)
	assert.Contains(t, schemaErr.Missing, "spread_line")
	assert.NotContains(t, schemaErr.Missing, "week")
}

const pbpHeader = "game_id,season,week,posteam,defteam,play_type,yards_gained," +
	"pass_attempt,rush_attempt,complete_pass,sack,interception,fumble_lost," +
	"epa,success,wpa,cpoe,air_yards,yards_after_catch,posteam_score,defteam_score"

func TestParsePBPFiltersNonOffensivePlays(t *testing.T) {
	csv := pbpHeader + "\n" +
		"2024_05_BUF_KC,2024,5,KC,BUF,pass,12,1,0,1,0,0,0,0.81,1,0.03,2.2,8,4,7,3\n" +
		"2024_05_BUF_KC,2024,5,,,kickoff,0,0,0,0,0,0,0,,,,,,,,\n" +
		"2024_05_BUF_KC,2024,5,NA,,timeout,0,0,0,0,0,0,0,,,,,,,,\n"

	rows, err := ParsePBP(strings.NewReader(csv), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	p := rows[0]
	assert.Equal(t, "KC", p.Posteam)
	assert.Equal(t, 1, p.PassAttempt)
	require.NotNil(t, p.EPA)
	assert.InDelta(t, 0.81, *p.EPA, 1e-9)
	require.NotNil(t, p.PosteamScore)
	assert.Equal(t, 7, *p.PosteamScore)
	assert.False(t, p.HasOptional.Down)
}

func TestParsePBPOptionalColumns(t *testing.T) {
	csv := pbpHeader + ",down,ydstogo,first_down\n" +
		"2024_05_BUF_KC,2024,5,KC,BUF,run,6,0,1,0,0,0,0,0.4,1,0.01,,,,14,10,3,2,1\n"

	rows, err := ParsePBP(strings.NewReader(csv), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	p := rows[0]
	assert.True(t, p.HasOptional.Down)
	assert.True(t, p.HasOptional.FirstDown)
	assert.False(t, p.HasOptional.Drive)
	require.NotNil(t, p.Down)
	assert.Equal(t, 3, *p.Down)
	require.NotNil(t, p.FirstDown)
	assert.InDelta(t, 1, *p.FirstDown, 1e-9)
	assert.Nil(t, p.CPOE)
}

func TestParsePBPMissingRequiredColumn(t *testing.T) {
	// drop epa from the header
	header := strings.Replace(pbpHeader, ",epa", "", 1)
	csv := header + "\n"

	_, err := ParsePBP(strings.NewReader(csv), false)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "play_by_play", schemaErr.Dataset)
	assert.Equal(t, []string{"epa"}, schemaErr.Missing)
}

func TestParsePBPGzip(t *testing.T) {
	csv := pbpHeader + "\n" +
		"2024_05_BUF_KC,2024,5,BUF,KC,run,4,0,1,0,0,0,0,0.12,1,0.01,,,,3,7\n"

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	rows, err := ParsePBP(&buf, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BUF", rows[0].Posteam)
}

func TestCanonicalSpread(t *testing.T) {
	// home favoured by 7 upstream becomes -7 stored
	assert.InDelta(t, -7.0, CanonicalSpread(7.0), 1e-9)
	// away favoured: upstream -3 becomes +3
	assert.InDelta(t, 3.0, CanonicalSpread(-3.0), 1e-9)
}
