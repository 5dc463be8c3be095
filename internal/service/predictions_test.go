package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lombardo/gridiron/internal/store"
)

func prediction(winner string, home, away, margin float64) *store.MLPrediction {
	return &store.MLPrediction{
		GameID:             "2024_05_BUF_KC",
		HomeTeam:           "KC",
		AwayTeam:           "BUF",
		PredictedWinner:    sql.NullString{String: winner, Valid: winner != ""},
		PredictedHomeScore: sql.NullFloat64{Float64: home, Valid: true},
		PredictedAwayScore: sql.NullFloat64{Float64: away, Valid: true},
		PredictedMargin:    sql.NullFloat64{Float64: margin, Valid: true},
	}
}

func TestApplyOutcomeCorrectPick(t *testing.T) {
	p := prediction("KC", 27, 21, 6)

	ApplyOutcome(p, 31, 17)

	assert.Equal(t, "KC", p.ActualWinner.String)
	require.True(t, p.WinPredictionCorrect.Valid)
	assert.True(t, p.WinPredictionCorrect.Bool)
	assert.Equal(t, int32(14), p.ActualMargin.Int32)

	// errors are signed: predicted minus actual
	assert.InDelta(t, 27-31, p.ScorePredictionErrorHome.Float64, 1e-9)
	assert.InDelta(t, 21-17, p.ScorePredictionErrorAway.Float64, 1e-9)
	assert.InDelta(t, 6-14, p.MarginPredictionError.Float64, 1e-9)
}

func TestApplyOutcomeWrongPick(t *testing.T) {
	p := prediction("BUF", 20, 24, -4)

	ApplyOutcome(p, 30, 13)

	assert.Equal(t, "KC", p.ActualWinner.String)
	require.True(t, p.WinPredictionCorrect.Valid)
	assert.False(t, p.WinPredictionCorrect.Bool)
	assert.InDelta(t, -4-17, p.MarginPredictionError.Float64, 1e-9)
}

func TestApplyOutcomeTieLeavesCorrectnessNull(t *testing.T) {
	p := prediction("KC", 24, 20, 4)

	ApplyOutcome(p, 24, 24)

	assert.False(t, p.ActualWinner.Valid)
	assert.False(t, p.WinPredictionCorrect.Valid)
	// score and margin errors still fill
	assert.InDelta(t, 0, p.ScorePredictionErrorHome.Float64, 1e-9)
	assert.InDelta(t, 4, p.MarginPredictionError.Float64, 1e-9)
	assert.Equal(t, int32(0), p.ActualMargin.Int32)
}

func TestApplyOutcomeWithoutForecastFields(t *testing.T) {
	p := &store.MLPrediction{GameID: "2024_05_BUF_KC", HomeTeam: "KC", AwayTeam: "BUF"}

	ApplyOutcome(p, 21, 14)

	assert.Equal(t, "KC", p.ActualWinner.String)
	assert.False(t, p.WinPredictionCorrect.Valid)
	assert.False(t, p.ScorePredictionErrorHome.Valid)
	assert.False(t, p.MarginPredictionError.Valid)
}

func TestValidateSeasonBounds(t *testing.T) {
	assert.NoError(t, validateSeason(1999))
	assert.NoError(t, validateSeason(2024))
	assert.ErrorIs(t, validateSeason(1998), ErrBadRequest)
	assert.ErrorIs(t, validateSeason(2100), ErrBadRequest)
}

func TestValidateWeekBounds(t *testing.T) {
	assert.NoError(t, validateWeek(1))
	assert.NoError(t, validateWeek(22))
	assert.ErrorIs(t, validateWeek(0), ErrBadRequest)
	assert.ErrorIs(t, validateWeek(23), ErrBadRequest)
}
