package nflverse

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const DefaultBaseURL = "https://github.com/nflverse/nflverse-data/releases/download"

// Client fetches schedule and play-by-play CSV assets from the nflverse
// release mirror. Transient failures are retried with exponential backoff;
// a circuit breaker makes a dead upstream fail fast instead of burning the
// retry budget on every batch.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a client against baseURL, or the nflverse mirror when
// baseURL is empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "nflverse",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[nflverse] circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 45 * time.Second},
		breaker: cb,
	}
}

// FetchSchedules returns schedule rows for the requested seasons. The
// schedules asset covers all seasons in one file; rows outside the
// requested set are dropped after parsing.
func (c *Client) FetchSchedules(ctx context.Context, seasons []int) ([]ScheduleRow, error) {
	url := fmt.Sprintf("%s/schedules/schedules.csv", c.baseURL)

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, err := ParseSchedules(body)
	if err != nil {
		return nil, err
	}

	want := make(map[int]bool, len(seasons))
	for _, s := range seasons {
		want[s] = true
	}

	var out []ScheduleRow
	for _, r := range rows {
		if want[r.Season] {
			out = append(out, r)
		}
	}
	log.Printf("[nflverse] ✓ schedules: %d rows for %d season(s)", len(out), len(seasons))
	return out, nil
}

// FetchPBP returns play-by-play rows for the requested seasons. Each
// season is a separate gzipped asset.
func (c *Client) FetchPBP(ctx context.Context, seasons []int) ([]PlayRow, error) {
	var out []PlayRow
	for _, season := range seasons {
		url := fmt.Sprintf("%s/pbp/play_by_play_%d.csv.gz", c.baseURL, season)

		body, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		rows, err := ParsePBP(body, true)
		body.Close()
		if err != nil {
			return nil, err
		}

		log.Printf("[nflverse] ✓ pbp %d: %d offensive plays", season, len(rows))
		out = append(out, rows...)
	}
	return out, nil
}

// fetch GETs a URL with up to 3 attempts (1s, 2s, 4s backoff) behind the
// circuit breaker. All failures come back wrapped in ErrUnavailable.
func (c *Client) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			log.Printf("[nflverse] retry %d for %s in %s", attempt, url, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, url)
		})
		if err == nil {
			return result.(io.ReadCloser), nil
		}
		lastErr = err

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: fetching %s: %v", ErrUnavailable, url, lastErr)
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
