package nflverse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks network and HTTP failures against the upstream
// dataset. Callers match it with errors.Is and mark the batch failed.
var ErrUnavailable = errors.New("nflverse unavailable")

// SchemaError reports a required column missing from a fetched dataset.
// It is fatal to the whole run: without the pinned columns the output
// would be silently wrong.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("nflverse %s: missing required columns: %s",
		e.Dataset, strings.Join(e.Missing, ", "))
}
