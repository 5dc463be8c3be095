package aggregate

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lombardo/gridiron/internal/ingest/nflverse"
	"github.com/lombardo/gridiron/internal/store"
)

// GameError marks an invariant broken for a single game during
// aggregation. The game is skipped; the run continues.
type GameError struct {
	GameID string
	Reason string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("game %s: %s", e.GameID, e.Reason)
}

// SkippedGame records a game dropped from the output and why.
type SkippedGame struct {
	GameID string
	Err    *GameError
}

// explosive play thresholds and the per-snap possession estimate.
const (
	explosivePassYards = 20.0
	explosiveRushYards = 10.0
	secondsPerSnap     = 40
)

type partitionKey struct {
	gameID string
	team   string
}

// Aggregate folds schedule and play-by-play rows into Game and
// TeamGameStat rows, two stat rows per scheduled game. Games without
// play-by-play still get their stat rows, zero volume and null rates.
// It is a pure function: no I/O, deterministic output order (season,
// week, game_id, home side first).
func Aggregate(schedules []nflverse.ScheduleRow, plays []nflverse.PlayRow) ([]*store.Game, []*store.TeamGameStat, []SkippedGame) {
	schedByID := make(map[string]*nflverse.ScheduleRow, len(schedules))
	for i := range schedules {
		schedByID[schedules[i].GameID] = &schedules[i]
	}

	// Partition offensive plays by (game_id, posteam), preserving feed order.
	parts := make(map[partitionKey][]*nflverse.PlayRow)
	var skipped []SkippedGame
	badGames := make(map[string]bool)

	for i := range plays {
		p := &plays[i]
		sched, ok := schedByID[p.GameID]
		if !ok {
			if !badGames[p.GameID] {
				badGames[p.GameID] = true
				skipped = append(skipped, SkippedGame{
					GameID: p.GameID,
					Err:    &GameError{GameID: p.GameID, Reason: "play-by-play references a game absent from the schedule"},
				})
			}
			continue
		}
		if p.Posteam != sched.HomeTeam && p.Posteam != sched.AwayTeam {
			if !badGames[p.GameID] {
				badGames[p.GameID] = true
				skipped = append(skipped, SkippedGame{
					GameID: p.GameID,
					Err:    &GameError{GameID: p.GameID, Reason: fmt.Sprintf("posteam %s is neither side of the game", p.Posteam)},
				})
			}
			continue
		}
		parts[partitionKey{p.GameID, p.Posteam}] = append(parts[partitionKey{p.GameID, p.Posteam}], p)
	}

	// Emit a Game row and two stat rows per schedule entry.
	var games []*store.Game
	var stats []*store.TeamGameStat

	ordered := make([]*nflverse.ScheduleRow, 0, len(schedules))
	for i := range schedules {
		ordered = append(ordered, &schedules[i])
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.GameID < b.GameID
	})

	for _, sched := range ordered {
		if badGames[sched.GameID] {
			continue
		}

		games = append(games, buildGame(sched))

		homePlays := parts[partitionKey{sched.GameID, sched.HomeTeam}]
		awayPlays := parts[partitionKey{sched.GameID, sched.AwayTeam}]

		stats = append(stats,
			buildTeamStat(sched, sched.HomeTeam, sched.AwayTeam, true, homePlays, awayPlays),
			buildTeamStat(sched, sched.AwayTeam, sched.HomeTeam, false, awayPlays, homePlays),
		)
	}

	return games, stats, skipped
}

func buildGame(s *nflverse.ScheduleRow) *store.Game {
	g := &store.Game{
		GameID:       s.GameID,
		Season:       s.Season,
		Week:         s.Week,
		HomeTeam:     s.HomeTeam,
		AwayTeam:     s.AwayTeam,
		IsPostseason: s.IsPostseason(),

		HomeScore: nullIntPtr(s.HomeScore),
		AwayScore: nullIntPtr(s.AwayScore),

		SpreadLine:    nullFloatPtr(s.SpreadLine),
		TotalLine:     nullFloatPtr(s.TotalLine),
		HomeMoneyline: nullIntPtr(s.HomeMoneyline),
		AwayMoneyline: nullIntPtr(s.AwayMoneyline),

		HomeSpreadOdds: nullIntPtr(s.HomeSpreadOdds),
		AwaySpreadOdds: nullIntPtr(s.AwaySpreadOdds),
		OverOdds:       nullIntPtr(s.OverOdds),
		UnderOdds:      nullIntPtr(s.UnderOdds),

		Stadium: nullString(s.Stadium),
		Roof:    nullString(s.Roof),
		Surface: nullString(s.Surface),
		Temp:    nullFloatPtr(s.Temp),
		Wind:    nullFloatPtr(s.Wind),

		Referee:    nullString(s.Referee),
		HomeCoach:  nullString(s.HomeCoach),
		AwayCoach:  nullString(s.AwayCoach),
		HomeQBName: nullString(s.HomeQBName),
		AwayQBName: nullString(s.AwayQBName),

		HomeRest:         nullIntPtr(s.HomeRest),
		AwayRest:         nullIntPtr(s.AwayRest),
		IsDivisionalGame: nullBoolPtr(s.DivGame),
		Overtime:         nullBoolPtr(s.Overtime),
	}

	if d, err := time.Parse("2006-01-02", s.Gameday); err == nil {
		g.GameDate = sql.NullTime{Time: d, Valid: true}
		if kickoff, ok := kickoffUTC(d, s.Gametime); ok {
			g.KickoffTimeUTC = sql.NullTime{Time: kickoff, Valid: true}
		}
	}

	return g
}

// easternTime resolves lazily so a missing tz database degrades to UTC
// instead of failing the whole run.
var easternTime = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// kickoffUTC combines the schedule's local date and HH:MM eastern
// kickoff into a UTC timestamp.
func kickoffUTC(day time.Time, gametime string) (time.Time, bool) {
	t, err := time.Parse("15:04", gametime)
	if err != nil {
		return time.Time{}, false
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, easternTime)
	return local.UTC(), true
}

func buildTeamStat(sched *nflverse.ScheduleRow, team, opponent string, isHome bool, own, opp []*nflverse.PlayRow) *store.TeamGameStat {
	s := &store.TeamGameStat{
		GameID:   sched.GameID,
		Team:     team,
		Opponent: opponent,
		IsHome:   isHome,
		Season:   sched.Season,
		Week:     sched.Week,
	}

	fillPoints(s, sched, isHome, own, opp)
	fillVolume(s, own)
	fillRates(s)
	fillAdvanced(s, own)
	fillSituational(s, own)

	return s
}

// fillPoints takes the final score from the schedule when present, else
// falls back to the running score inside play-by-play. The result letter
// is only set once the schedule confirms the game final.
func fillPoints(s *store.TeamGameStat, sched *nflverse.ScheduleRow, isHome bool, own, opp []*nflverse.PlayRow) {
	if sched.HomeScore != nil && sched.AwayScore != nil {
		pf, pa := *sched.HomeScore, *sched.AwayScore
		if !isHome {
			pf, pa = pa, pf
		}
		s.Points = nullInt(pf)
		s.PointsAllowed = nullInt(pa)
		switch {
		case pf > pa:
			s.Result = sql.NullString{String: "W", Valid: true}
		case pf < pa:
			s.Result = sql.NullString{String: "L", Valid: true}
		default:
			s.Result = sql.NullString{String: "T", Valid: true}
		}
		return
	}

	if pf, ok := maxScore(own); ok {
		s.Points = nullInt(pf)
	}
	if pa, ok := maxScore(opp); ok {
		s.PointsAllowed = nullInt(pa)
	}
}

func maxScore(plays []*nflverse.PlayRow) (int, bool) {
	best, found := 0, false
	for _, p := range plays {
		if p.PosteamScore != nil && (!found || *p.PosteamScore > best) {
			best, found = *p.PosteamScore, true
		}
	}
	return best, found
}

// fillVolume computes the counting stats. Volume is zero, not null, for
// a side with no offensive plays.
func fillVolume(s *store.TeamGameStat, plays []*nflverse.PlayRow) {
	var passAtt, rushAtt, comp, sacks, ints, fumbles int
	var passYds, rushYds float64

	for _, p := range plays {
		passAtt += p.PassAttempt
		rushAtt += p.RushAttempt
		comp += p.CompletePass
		sacks += p.Sack
		fumbles += p.FumbleLost
		if p.PassAttempt == 1 {
			ints += p.Interception
		}

		yds := 0.0
		if p.YardsGained != nil {
			yds = *p.YardsGained
		}
		if p.PassAttempt == 1 {
			passYds += yds
		}
		if p.RushAttempt == 1 {
			rushYds += yds
		}
	}

	s.Plays = nullInt(len(plays))
	s.PassAttempts = nullInt(passAtt)
	s.RushAttempts = nullInt(rushAtt)
	s.Completions = nullInt(comp)
	s.SacksTaken = nullInt(sacks)
	s.InterceptionsThrown = nullInt(ints)
	s.FumblesLost = nullInt(fumbles)
	s.Turnovers = nullInt(ints + fumbles)

	s.PassingYards = nullInt(int(passYds))
	s.RushingYards = nullInt(int(rushYds))
	s.TotalYards = nullInt(int(passYds) + int(rushYds))

	s.TimeOfPossessionSec = nullInt(len(plays) * secondsPerSnap)
}

// fillRates derives the stored rate columns from volume. Zero
// denominators produce null, never zero.
func fillRates(s *store.TeamGameStat) {
	s.CompletionPct = pct(s.Completions, s.PassAttempts)
	s.YardsPerPlay = ratio(float64(s.TotalYards.Int32), float64(s.Plays.Int32))
	if s.Plays.Int32 > 0 {
		s.PassingYardsPerGame = sql.NullFloat64{Float64: float64(s.PassingYards.Int32), Valid: true}
		s.RushingYardsPerGame = sql.NullFloat64{Float64: float64(s.RushingYards.Int32), Valid: true}
	}
}

// fillAdvanced computes the EPA family. Every field is a mean or sum
// over the plays that actually carry the metric; a season where the
// upstream column is absent (cpoe before 2006) yields null.
func fillAdvanced(s *store.TeamGameStat, plays []*nflverse.PlayRow) {
	var (
		epaSum, passEpaSum, rushEpaSum          float64
		epaN, passEpaN, rushEpaN                int
		succSum, passSuccSum, rushSuccSum       float64
		succN, passSuccN, rushSuccN             int
		wpaSum                                  float64
		wpaN                                    int
		cpoeSum                                 float64
		cpoeN                                   int
		airSum                                  float64
		airN                                    int
		yacSum                                  float64
		yacN                                    int
		explosive, stuffs, rushes               int
	)

	for _, p := range plays {
		if p.EPA != nil {
			epaSum += *p.EPA
			epaN++
			if p.PassAttempt == 1 {
				passEpaSum += *p.EPA
				passEpaN++
			}
			if p.RushAttempt == 1 {
				rushEpaSum += *p.EPA
				rushEpaN++
			}
		}
		if p.Success != nil {
			succSum += *p.Success
			succN++
			if p.PassAttempt == 1 {
				passSuccSum += *p.Success
				passSuccN++
			}
			if p.RushAttempt == 1 {
				rushSuccSum += *p.Success
				rushSuccN++
			}
		}
		if p.WPA != nil {
			wpaSum += *p.WPA
			wpaN++
		}
		if p.CompletePass == 1 && p.CPOE != nil {
			cpoeSum += *p.CPOE
			cpoeN++
		}
		if p.PassAttempt == 1 && p.AirYards != nil {
			airSum += *p.AirYards
			airN++
		}
		if p.CompletePass == 1 && p.YardsAfterCatch != nil {
			yacSum += *p.YardsAfterCatch
			yacN++
		}

		yds := 0.0
		if p.YardsGained != nil {
			yds = *p.YardsGained
		}
		if (p.PassAttempt == 1 && yds >= explosivePassYards) ||
			(p.RushAttempt == 1 && yds >= explosiveRushYards) {
			explosive++
		}
		if p.RushAttempt == 1 {
			rushes++
			if yds <= 0 {
				stuffs++
			}
		}
	}

	s.EPAPerPlay = mean(epaSum, epaN)
	if epaN > 0 {
		s.TotalEPA = sql.NullFloat64{Float64: epaSum, Valid: true}
	}
	if passEpaN > 0 {
		s.PassEPA = sql.NullFloat64{Float64: passEpaSum, Valid: true}
	}
	if rushEpaN > 0 {
		s.RushEPA = sql.NullFloat64{Float64: rushEpaSum, Valid: true}
	}

	s.SuccessRate = mean(succSum, succN)
	s.PassSuccessRate = mean(passSuccSum, passSuccN)
	s.RushSuccessRate = mean(rushSuccSum, rushSuccN)

	if wpaN > 0 {
		s.WPA = sql.NullFloat64{Float64: wpaSum, Valid: true}
	}
	s.CPOE = mean(cpoeSum, cpoeN)
	s.AirYardsPerAtt = mean(airSum, airN)

	if yacN > 0 && s.Completions.Int32 > 0 {
		s.YACPerCompletion = ratio(yacSum, float64(s.Completions.Int32))
	}

	s.ExplosivePlayPct = ratio(float64(explosive)*100, float64(len(plays)))
	s.StuffRate = ratio(float64(stuffs)*100, float64(rushes))
}

// fillSituational derives down-and-distance, red zone and penalty fields
// from the optional play-by-play columns; each stays null when its
// source columns are absent from the fetched season.
func fillSituational(s *store.TeamGameStat, plays []*nflverse.PlayRow) {
	if len(plays) == 0 {
		return
	}
	opt := plays[0].HasOptional

	if opt.FirstDown {
		fd := 0
		for _, p := range plays {
			if p.FirstDown != nil && *p.FirstDown == 1 {
				fd++
			}
		}
		s.FirstDowns = nullInt(fd)
	}

	if opt.Down && opt.FirstDown {
		var thirdAtt, thirdConv, fourthAtt, fourthConv int
		for _, p := range plays {
			if p.Down == nil || (p.PassAttempt != 1 && p.RushAttempt != 1) {
				continue
			}
			converted := p.FirstDown != nil && *p.FirstDown == 1
			switch *p.Down {
			case 3:
				thirdAtt++
				if converted {
					thirdConv++
				}
			case 4:
				fourthAtt++
				if converted {
					fourthConv++
				}
			}
		}
		s.ThirdDownAttempts = nullInt(thirdAtt)
		s.ThirdDownConversions = nullInt(thirdConv)
		s.FourthDownAttempts = nullInt(fourthAtt)
		s.FourthDownConversions = nullInt(fourthConv)
		s.ThirdDownPct = pct(s.ThirdDownConversions, s.ThirdDownAttempts)
		s.FourthDownPct = pct(s.FourthDownConversions, s.FourthDownAttempts)
	}

	if opt.Drive && opt.Yardline100 {
		att, conv := redZoneTrips(plays)
		s.RedZoneAttempts = nullInt(att)
		s.RedZoneConversions = nullInt(conv)
		s.RedZonePct = pct(s.RedZoneConversions, s.RedZoneAttempts)
	}

	if opt.Penalty {
		pen := 0
		for _, p := range plays {
			if p.Penalty != nil && *p.Penalty == 1 {
				pen++
			}
		}
		s.Penalties = nullInt(pen)
	}
	if opt.PenaltyYards {
		yds := 0.0
		for _, p := range plays {
			if p.PenaltyYards != nil {
				yds += *p.PenaltyYards
			}
		}
		s.PenaltyYards = nullInt(int(yds))
	}
}

// redZoneTrips counts drives that reached the opponent 20 and how many
// of them ended in a touchdown, detected as a score jump of 6+ between
// red-zone entry and the team's next possession.
func redZoneTrips(plays []*nflverse.PlayRow) (attempts, conversions int) {
	type trip struct {
		drive      int
		entryScore int
		hasEntry   bool
	}

	var trips []trip
	seen := make(map[int]bool)

	for _, p := range plays {
		if p.Drive == nil || p.Yardline100 == nil {
			continue
		}
		if *p.Yardline100 > 20 || seen[*p.Drive] {
			continue
		}
		seen[*p.Drive] = true
		t := trip{drive: *p.Drive}
		if p.PosteamScore != nil {
			t.entryScore = *p.PosteamScore
			t.hasEntry = true
		}
		trips = append(trips, t)
	}

	for _, t := range trips {
		attempts++
		if !t.hasEntry {
			continue
		}
		// Score at the first play of any later drive.
		for _, p := range plays {
			if p.Drive == nil || *p.Drive <= t.drive || p.PosteamScore == nil {
				continue
			}
			if *p.PosteamScore-t.entryScore >= 6 {
				conversions++
			}
			break
		}
	}
	return attempts, conversions
}

func nullInt(v int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(v), Valid: true}
}

func nullIntPtr(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return nullInt(*p)
}

func nullFloatPtr(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBoolPtr(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

// ratio returns num/den, null when the denominator is zero.
func ratio(num, den float64) sql.NullFloat64 {
	if den == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: num / den, Valid: true}
}

// pct returns 100*num/den over two nullable counts.
func pct(num, den sql.NullInt32) sql.NullFloat64 {
	if !num.Valid || !den.Valid || den.Int32 == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: 100 * float64(num.Int32) / float64(den.Int32), Valid: true}
}

func mean(sum float64, n int) sql.NullFloat64 {
	if n == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: sum / float64(n), Valid: true}
}
