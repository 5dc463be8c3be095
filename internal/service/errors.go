package service

import (
	"errors"
	"fmt"

	"github.com/lombardo/gridiron/internal/config"
)

// ErrNotFound marks a lookup of an entity that does not exist.
var ErrNotFound = errors.New("not found")

// ErrBadRequest marks invalid caller input (unknown team code, season
// out of range).
var ErrBadRequest = errors.New("bad request")

const (
	minSeason = 1999
	minWeek   = 1
	maxWeek   = 22
)

func validateSeason(season int) error {
	if season < minSeason || season > config.CurrentSeason()+1 {
		return fmt.Errorf("%w: season %d out of range", ErrBadRequest, season)
	}
	return nil
}

func validateWeek(week int) error {
	if week < minWeek || week > maxWeek {
		return fmt.Errorf("%w: week %d out of range (1-22)", ErrBadRequest, week)
	}
	return nil
}
