package store

import (
	"database/sql"
	"time"
)

// Game represents one scheduled or completed NFL game. game_id is the
// upstream identifier in SEASON_WEEK_AWAY_HOME form.
type Game struct {
	GameID         string       `json:"game_id" db:"game_id"`
	Season         int          `json:"season" db:"season"`
	Week           int          `json:"week" db:"week"`
	GameDate       sql.NullTime `json:"game_date,omitempty" db:"game_date"`
	KickoffTimeUTC sql.NullTime `json:"kickoff_time_utc,omitempty" db:"kickoff_time_utc"`
	HomeTeam       string       `json:"home_team" db:"home_team"`
	AwayTeam       string       `json:"away_team" db:"away_team"`
	Stadium        sql.NullString `json:"stadium,omitempty" db:"stadium"`
	IsPostseason   bool           `json:"is_postseason" db:"is_postseason"`
	HomeScore      sql.NullInt32  `json:"home_score,omitempty" db:"home_score"`
	AwayScore      sql.NullInt32  `json:"away_score,omitempty" db:"away_score"`

	// Betting context. spread_line is canonical: negative = home favoured.
	SpreadLine     sql.NullFloat64 `json:"spread_line,omitempty" db:"spread_line"`
	TotalLine      sql.NullFloat64 `json:"total_line,omitempty" db:"total_line"`
	HomeMoneyline  sql.NullInt32   `json:"home_moneyline,omitempty" db:"home_moneyline"`
	AwayMoneyline  sql.NullInt32   `json:"away_moneyline,omitempty" db:"away_moneyline"`
	HomeSpreadOdds sql.NullInt32   `json:"home_spread_odds,omitempty" db:"home_spread_odds"`
	AwaySpreadOdds sql.NullInt32   `json:"away_spread_odds,omitempty" db:"away_spread_odds"`
	OverOdds       sql.NullInt32   `json:"over_odds,omitempty" db:"over_odds"`
	UnderOdds      sql.NullInt32   `json:"under_odds,omitempty" db:"under_odds"`

	// Weather / venue
	Roof    sql.NullString  `json:"roof,omitempty" db:"roof"`
	Surface sql.NullString  `json:"surface,omitempty" db:"surface"`
	Temp    sql.NullFloat64 `json:"temp,omitempty" db:"temp"`
	Wind    sql.NullFloat64 `json:"wind,omitempty" db:"wind"`

	// Officials / personnel / rest
	Referee          sql.NullString `json:"referee,omitempty" db:"referee"`
	HomeCoach        sql.NullString `json:"home_coach,omitempty" db:"home_coach"`
	AwayCoach        sql.NullString `json:"away_coach,omitempty" db:"away_coach"`
	HomeQBName       sql.NullString `json:"home_qb_name,omitempty" db:"home_qb_name"`
	AwayQBName       sql.NullString `json:"away_qb_name,omitempty" db:"away_qb_name"`
	HomeRest         sql.NullInt32  `json:"home_rest,omitempty" db:"home_rest"`
	AwayRest         sql.NullInt32  `json:"away_rest,omitempty" db:"away_rest"`
	IsDivisionalGame sql.NullBool   `json:"is_divisional_game,omitempty" db:"is_divisional_game"`
	Overtime         sql.NullBool   `json:"overtime,omitempty" db:"overtime"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasResult reports whether both scores are recorded.
func (g *Game) HasResult() bool {
	return g.HomeScore.Valid && g.AwayScore.Valid
}

// Winner returns the winning team code, or "" for a tie or an unplayed game.
func (g *Game) Winner() string {
	if !g.HasResult() {
		return ""
	}
	switch {
	case g.HomeScore.Int32 > g.AwayScore.Int32:
		return g.HomeTeam
	case g.AwayScore.Int32 > g.HomeScore.Int32:
		return g.AwayTeam
	default:
		return ""
	}
}

// TeamGameStat is one team's side of one game. Exactly two rows exist per
// processed game, keyed by (game_id, team).
type TeamGameStat struct {
	GameID   string `json:"game_id" db:"game_id"`
	Team     string `json:"team" db:"team"`
	Opponent string `json:"opponent" db:"opponent"`
	IsHome   bool   `json:"is_home" db:"is_home"`
	Season   int    `json:"season" db:"season"`
	Week     int    `json:"week" db:"week"`

	// Result
	Points        sql.NullInt32  `json:"points,omitempty" db:"points"`
	PointsAllowed sql.NullInt32  `json:"points_allowed,omitempty" db:"points_allowed"`
	Result        sql.NullString `json:"result,omitempty" db:"result"` // W, L or T

	// Raw volume
	TotalYards            sql.NullInt32 `json:"total_yards,omitempty" db:"total_yards"`
	PassingYards          sql.NullInt32 `json:"passing_yards,omitempty" db:"passing_yards"`
	RushingYards          sql.NullInt32 `json:"rushing_yards,omitempty" db:"rushing_yards"`
	Plays                 sql.NullInt32 `json:"plays,omitempty" db:"plays"`
	PassAttempts          sql.NullInt32 `json:"pass_attempts,omitempty" db:"pass_attempts"`
	RushAttempts          sql.NullInt32 `json:"rush_attempts,omitempty" db:"rush_attempts"`
	Completions           sql.NullInt32 `json:"completions,omitempty" db:"completions"`
	SacksTaken            sql.NullInt32 `json:"sacks_taken,omitempty" db:"sacks_taken"`
	InterceptionsThrown   sql.NullInt32 `json:"interceptions_thrown,omitempty" db:"interceptions_thrown"`
	FumblesLost           sql.NullInt32 `json:"fumbles_lost,omitempty" db:"fumbles_lost"`
	Turnovers             sql.NullInt32 `json:"turnovers,omitempty" db:"turnovers"`
	Penalties             sql.NullInt32 `json:"penalties,omitempty" db:"penalties"`
	PenaltyYards          sql.NullInt32 `json:"penalty_yards,omitempty" db:"penalty_yards"`
	TimeOfPossessionSec   sql.NullInt32 `json:"time_of_possession_sec,omitempty" db:"time_of_possession_sec"`
	FirstDowns            sql.NullInt32 `json:"first_downs,omitempty" db:"first_downs"`
	ThirdDownAttempts     sql.NullInt32 `json:"third_down_attempts,omitempty" db:"third_down_attempts"`
	ThirdDownConversions  sql.NullInt32 `json:"third_down_conversions,omitempty" db:"third_down_conversions"`
	FourthDownAttempts    sql.NullInt32 `json:"fourth_down_attempts,omitempty" db:"fourth_down_attempts"`
	FourthDownConversions sql.NullInt32 `json:"fourth_down_conversions,omitempty" db:"fourth_down_conversions"`
	RedZoneAttempts       sql.NullInt32 `json:"red_zone_attempts,omitempty" db:"red_zone_attempts"`
	RedZoneConversions    sql.NullInt32 `json:"red_zone_conversions,omitempty" db:"red_zone_conversions"`

	// Rates (derived from volume at write time; null when denominator is zero)
	CompletionPct       sql.NullFloat64 `json:"completion_pct,omitempty" db:"completion_pct"`
	ThirdDownPct        sql.NullFloat64 `json:"third_down_pct,omitempty" db:"third_down_pct"`
	FourthDownPct       sql.NullFloat64 `json:"fourth_down_pct,omitempty" db:"fourth_down_pct"`
	RedZonePct          sql.NullFloat64 `json:"red_zone_pct,omitempty" db:"red_zone_pct"`
	YardsPerPlay        sql.NullFloat64 `json:"yards_per_play,omitempty" db:"yards_per_play"`
	PassingYardsPerGame sql.NullFloat64 `json:"passing_yards_per_game,omitempty" db:"passing_yards_per_game"`
	RushingYardsPerGame sql.NullFloat64 `json:"rushing_yards_per_game,omitempty" db:"rushing_yards_per_game"`

	// Advanced / EPA family (taken from play-by-play as-is)
	EPAPerPlay       sql.NullFloat64 `json:"epa_per_play,omitempty" db:"epa_per_play"`
	TotalEPA         sql.NullFloat64 `json:"total_epa,omitempty" db:"total_epa"`
	PassEPA          sql.NullFloat64 `json:"pass_epa,omitempty" db:"pass_epa"`
	RushEPA          sql.NullFloat64 `json:"rush_epa,omitempty" db:"rush_epa"`
	SuccessRate      sql.NullFloat64 `json:"success_rate,omitempty" db:"success_rate"`
	PassSuccessRate  sql.NullFloat64 `json:"pass_success_rate,omitempty" db:"pass_success_rate"`
	RushSuccessRate  sql.NullFloat64 `json:"rush_success_rate,omitempty" db:"rush_success_rate"`
	WPA              sql.NullFloat64 `json:"wpa,omitempty" db:"wpa"`
	CPOE             sql.NullFloat64 `json:"cpoe,omitempty" db:"cpoe"`
	AirYardsPerAtt   sql.NullFloat64 `json:"air_yards_per_att,omitempty" db:"air_yards_per_att"`
	YACPerCompletion sql.NullFloat64 `json:"yac_per_completion,omitempty" db:"yac_per_completion"`
	ExplosivePlayPct sql.NullFloat64 `json:"explosive_play_pct,omitempty" db:"explosive_play_pct"`
	StuffRate        sql.NullFloat64 `json:"stuff_rate,omitempty" db:"stuff_rate"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TeamInfo is one of the 32 static team descriptors.
type TeamInfo struct {
	Team       string    `json:"team" db:"team"`
	FullName   string    `json:"full_name" db:"full_name"`
	Nickname   string    `json:"nickname" db:"nickname"`
	Conference string    `json:"conference" db:"conference"` // AFC or NFC
	Division   string    `json:"division" db:"division"`     // East, West, North, South
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// MLPrediction tracks one model prediction per game. Realised fields and the
// derived correctness flags stay null until the linked game has both scores.
type MLPrediction struct {
	PredictionID int          `json:"prediction_id" db:"prediction_id"`
	GameID       string       `json:"game_id" db:"game_id"`
	Season       int          `json:"season" db:"season"`
	Week         int          `json:"week" db:"week"`
	HomeTeam     string       `json:"home_team" db:"home_team"`
	AwayTeam     string       `json:"away_team" db:"away_team"`
	GameDate     sql.NullTime `json:"game_date,omitempty" db:"game_date"`

	PredictedWinner sql.NullString  `json:"predicted_winner,omitempty" db:"predicted_winner"`
	WinConfidence   sql.NullFloat64 `json:"win_confidence,omitempty" db:"win_confidence"`
	HomeWinProb     sql.NullFloat64 `json:"home_win_prob,omitempty" db:"home_win_prob"`
	AwayWinProb     sql.NullFloat64 `json:"away_win_prob,omitempty" db:"away_win_prob"`

	PredictedHomeScore sql.NullFloat64 `json:"predicted_home_score,omitempty" db:"predicted_home_score"`
	PredictedAwayScore sql.NullFloat64 `json:"predicted_away_score,omitempty" db:"predicted_away_score"`
	PredictedMargin    sql.NullFloat64 `json:"predicted_margin,omitempty" db:"predicted_margin"`
	AISpread           sql.NullFloat64 `json:"ai_spread,omitempty" db:"ai_spread"`

	VegasSpread sql.NullFloat64 `json:"vegas_spread,omitempty" db:"vegas_spread"`
	VegasTotal  sql.NullFloat64 `json:"vegas_total,omitempty" db:"vegas_total"`

	ActualWinner    sql.NullString `json:"actual_winner,omitempty" db:"actual_winner"`
	ActualHomeScore sql.NullInt32  `json:"actual_home_score,omitempty" db:"actual_home_score"`
	ActualAwayScore sql.NullInt32  `json:"actual_away_score,omitempty" db:"actual_away_score"`
	ActualMargin    sql.NullInt32  `json:"actual_margin,omitempty" db:"actual_margin"`

	WinPredictionCorrect     sql.NullBool    `json:"win_prediction_correct,omitempty" db:"win_prediction_correct"`
	ScorePredictionErrorHome sql.NullFloat64 `json:"score_prediction_error_home,omitempty" db:"score_prediction_error_home"`
	ScorePredictionErrorAway sql.NullFloat64 `json:"score_prediction_error_away,omitempty" db:"score_prediction_error_away"`
	MarginPredictionError    sql.NullFloat64 `json:"margin_prediction_error,omitempty" db:"margin_prediction_error"`

	PredictedAt      time.Time    `json:"predicted_at" db:"predicted_at"`
	ResultRecordedAt sql.NullTime `json:"result_recorded_at,omitempty" db:"result_recorded_at"`
}
