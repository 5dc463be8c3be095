package nflverse

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CanonicalSpread converts the upstream spread (positive = home favoured,
// i.e. the expected home margin) into the stored convention where
// negative = home favoured.
func CanonicalSpread(upstream float64) float64 {
	return -upstream
}

var requiredScheduleColumns = []string{
	"game_id", "season", "week", "gameday", "gametime",
	"home_team", "away_team", "home_score", "away_score",
	"spread_line", "total_line", "home_moneyline", "away_moneyline",
	"roof", "surface", "temp", "wind",
	"referee", "home_coach", "away_coach", "home_qb_name", "away_qb_name",
	"home_rest", "away_rest", "overtime", "div_game",
}

var requiredPBPColumns = []string{
	"game_id", "season", "week", "posteam", "defteam", "play_type",
	"yards_gained", "pass_attempt", "rush_attempt", "complete_pass",
	"sack", "interception", "fumble_lost",
	"epa", "success", "wpa", "cpoe", "air_yards", "yards_after_catch",
	"posteam_score", "defteam_score",
}

// header maps column names to record indexes and validates the pinned
// required set. Unknown columns are ignored.
type header struct {
	idx map[string]int
}

func newHeader(record []string, required []string, dataset string) (*header, error) {
	h := &header{idx: make(map[string]int, len(record))}
	for i, name := range record {
		h.idx[name] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := h.idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Dataset: dataset, Missing: missing}
	}
	return h, nil
}

func (h *header) has(name string) bool {
	_, ok := h.idx[name]
	return ok
}

func (h *header) str(record []string, name string) string {
	i, ok := h.idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (h *header) intVal(record []string, name string) int {
	n, err := strconv.Atoi(h.str(record, name))
	if err != nil {
		return 0
	}
	return n
}

func (h *header) intPtr(record []string, name string) *int {
	raw := h.str(record, name)
	if raw == "" || raw == "NA" {
		return nil
	}
	// Some count columns arrive as "3.0".
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

func (h *header) floatPtr(record []string, name string) *float64 {
	raw := h.str(record, name)
	if raw == "" || raw == "NA" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// flag reads a 0/1 indicator column, treating blank and NA as 0.
func (h *header) flag(record []string, name string) int {
	p := h.intPtr(record, name)
	if p == nil {
		return 0
	}
	return *p
}

func (h *header) boolPtr(record []string, name string) *bool {
	p := h.intPtr(record, name)
	if p == nil {
		return nil
	}
	b := *p != 0
	return &b
}

// ParseSchedules decodes the schedules CSV into canonical rows. The
// spread sign is inverted here so everything downstream sees
// negative = home favoured.
func ParseSchedules(r io.Reader) ([]ScheduleRow, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading schedules header: %w", err)
	}
	h, err := newHeader(head, requiredScheduleColumns, "schedules")
	if err != nil {
		return nil, err
	}

	var rows []ScheduleRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading schedules row: %w", err)
		}

		row := ScheduleRow{
			GameID:   h.str(record, "game_id"),
			Season:   h.intVal(record, "season"),
			Week:     h.intVal(record, "week"),
			GameType: h.str(record, "game_type"),
			Gameday:  h.str(record, "gameday"),
			Gametime: h.str(record, "gametime"),
			HomeTeam: h.str(record, "home_team"),
			AwayTeam: h.str(record, "away_team"),

			HomeScore: h.intPtr(record, "home_score"),
			AwayScore: h.intPtr(record, "away_score"),

			TotalLine:     h.floatPtr(record, "total_line"),
			HomeMoneyline: h.intPtr(record, "home_moneyline"),
			AwayMoneyline: h.intPtr(record, "away_moneyline"),

			HomeSpreadOdds: h.intPtr(record, "home_spread_odds"),
			AwaySpreadOdds: h.intPtr(record, "away_spread_odds"),
			OverOdds:       h.intPtr(record, "over_odds"),
			UnderOdds:      h.intPtr(record, "under_odds"),

			Stadium: h.str(record, "stadium"),
			Roof:    h.str(record, "roof"),
			Surface: h.str(record, "surface"),
			Temp:    h.floatPtr(record, "temp"),
			Wind:    h.floatPtr(record, "wind"),

			Referee:    h.str(record, "referee"),
			HomeCoach:  h.str(record, "home_coach"),
			AwayCoach:  h.str(record, "away_coach"),
			HomeQBName: h.str(record, "home_qb_name"),
			AwayQBName: h.str(record, "away_qb_name"),

			HomeRest: h.intPtr(record, "home_rest"),
			AwayRest: h.intPtr(record, "away_rest"),
			Overtime: h.boolPtr(record, "overtime"),
			DivGame:  h.boolPtr(record, "div_game"),
		}

		if upstream := h.floatPtr(record, "spread_line"); upstream != nil {
			canonical := CanonicalSpread(*upstream)
			row.SpreadLine = &canonical
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// ParsePBP decodes a play-by-play CSV (optionally gzipped), keeping only
// offensive plays (posteam non-empty).
func ParsePBP(r io.Reader, gzipped bool) ([]PlayRow, error) {
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: opening gzip stream: %v", ErrUnavailable, err)
		}
		defer gz.Close()
		r = gz
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading pbp header: %w", err)
	}
	h, err := newHeader(head, requiredPBPColumns, "play_by_play")
	if err != nil {
		return nil, err
	}

	optional := OptionalColumns{
		Down:         h.has("down"),
		YdsToGo:      h.has("ydstogo"),
		FirstDown:    h.has("first_down"),
		Yardline100:  h.has("yardline_100"),
		Drive:        h.has("drive"),
		Penalty:      h.has("penalty"),
		PenaltyYards: h.has("penalty_yards"),
	}

	var rows []PlayRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading pbp row: %w", err)
		}

		posteam := h.str(record, "posteam")
		if posteam == "" || posteam == "NA" {
			continue
		}

		rows = append(rows, PlayRow{
			GameID:   h.str(record, "game_id"),
			Season:   h.intVal(record, "season"),
			Week:     h.intVal(record, "week"),
			Posteam:  posteam,
			Defteam:  h.str(record, "defteam"),
			PlayType: h.str(record, "play_type"),

			YardsGained: h.floatPtr(record, "yards_gained"),

			PassAttempt:  h.flag(record, "pass_attempt"),
			RushAttempt:  h.flag(record, "rush_attempt"),
			CompletePass: h.flag(record, "complete_pass"),
			Sack:         h.flag(record, "sack"),
			Interception: h.flag(record, "interception"),
			FumbleLost:   h.flag(record, "fumble_lost"),

			EPA:     h.floatPtr(record, "epa"),
			Success: h.floatPtr(record, "success"),
			WPA:     h.floatPtr(record, "wpa"),
			CPOE:    h.floatPtr(record, "cpoe"),

			AirYards:        h.floatPtr(record, "air_yards"),
			YardsAfterCatch: h.floatPtr(record, "yards_after_catch"),

			PosteamScore: h.intPtr(record, "posteam_score"),
			DefteamScore: h.intPtr(record, "defteam_score"),

			Down:         h.intPtr(record, "down"),
			YdsToGo:      h.intPtr(record, "ydstogo"),
			FirstDown:    h.floatPtr(record, "first_down"),
			Yardline100:  h.intPtr(record, "yardline_100"),
			Drive:        h.intPtr(record, "drive"),
			Penalty:      h.floatPtr(record, "penalty"),
			PenaltyYards: h.floatPtr(record, "penalty_yards"),
			HasOptional:  optional,
		})
	}
	return rows, nil
}
