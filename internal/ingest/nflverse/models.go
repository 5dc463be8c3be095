package nflverse

// SpreadConvention documents the sign of the stored spread_line. The
// upstream feed reports a positive line when the home side is favoured;
// the parser negates it so negative always means home favoured.
const SpreadConvention = "negative=home-favoured"

// ScheduleRow is one game from the schedules feed, columns already
// canonicalised (spread sign inverted, pointers nil where upstream is
// blank).
type ScheduleRow struct {
	GameID   string
	Season   int
	Week     int
	GameType string
	Gameday  string // YYYY-MM-DD
	Gametime string // HH:MM eastern, may be blank
	HomeTeam string
	AwayTeam string

	HomeScore *int
	AwayScore *int

	SpreadLine    *float64 // canonical: negative = home favoured
	TotalLine     *float64
	HomeMoneyline *int
	AwayMoneyline *int

	// Extended odds, present on recent seasons only.
	HomeSpreadOdds *int
	AwaySpreadOdds *int
	OverOdds       *int
	UnderOdds      *int

	Stadium string
	Roof    string
	Surface string
	Temp    *float64
	Wind    *float64

	Referee    string
	HomeCoach  string
	AwayCoach  string
	HomeQBName string
	AwayQBName string

	HomeRest *int
	AwayRest *int
	Overtime *bool
	DivGame  *bool
}

// IsPostseason reports whether the row is a playoff game.
func (s *ScheduleRow) IsPostseason() bool {
	if s.GameType != "" {
		return s.GameType != "REG"
	}
	return s.Week > 18
}

// PlayRow is one offensive play from the play-by-play feed. Indicator
// columns (pass_attempt, sack, ...) arrive as 0/1 and stay ints; metric
// columns are nil when upstream has no value for that play or season.
type PlayRow struct {
	GameID   string
	Season   int
	Week     int
	Posteam  string
	Defteam  string
	PlayType string

	YardsGained *float64

	PassAttempt  int
	RushAttempt  int
	CompletePass int
	Sack         int
	Interception int
	FumbleLost   int

	EPA     *float64
	Success *float64
	WPA     *float64
	CPOE    *float64

	AirYards        *float64
	YardsAfterCatch *float64

	PosteamScore *int
	DefteamScore *int

	// Optional columns; nil/zero when the feed omits them.
	Down         *int
	YdsToGo      *int
	FirstDown    *float64
	Yardline100  *int
	Drive        *int
	Penalty      *float64
	PenaltyYards *float64
	HasOptional  OptionalColumns
}

// OptionalColumns records which optional pbp columns the fetched dataset
// actually carried, so the aggregator can null dependent outputs instead
// of emitting zeros for missing data.
type OptionalColumns struct {
	Down         bool
	YdsToGo      bool
	FirstDown    bool
	Yardline100  bool
	Drive        bool
	Penalty      bool
	PenaltyYards bool
}
