package teamrankings

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const BaseURL = "https://www.teamrankings.com/nfl/stat"

// TeamStat is one team's value for a single scraped statistic.
type TeamStat struct {
	Team   string
	Season int
	Value  float64
}

// StatFetcher is the fallback contract for per-team season statistics.
// The primary pipeline aggregates everything from play-by-play; this
// exists for stats the feed cannot produce.
type StatFetcher interface {
	FetchStat(ctx context.Context, stat string, season int) ([]TeamStat, error)
}

// Scraper pulls a stat table from teamrankings.com.
type Scraper struct {
	baseURL string
	http    *http.Client
}

// NewScraper creates a scraper against baseURL, or the live site when empty.
func NewScraper(baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Scraper{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchStat scrapes one stat page, e.g. stat "yards-per-play".
func (s *Scraper) FetchStat(ctx context.Context, stat string, season int) ([]TeamStat, error) {
	url := fmt.Sprintf("%s/%s?date=%d-03-01", s.baseURL, stat, season+1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; gridiron/1.0)")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	return parseStatTable(doc, season)
}

// parseStatTable extracts (team, value) pairs from the main datatable.
// Column 1 is the team name, column 2 the current-season value.
func parseStatTable(doc *goquery.Document, season int) ([]TeamStat, error) {
	var stats []TeamStat

	doc.Find("table.datatable tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		team := strings.TrimSpace(cells.Eq(1).Text())
		raw := strings.TrimSpace(cells.Eq(2).Text())
		raw = strings.TrimSuffix(raw, "%")
		if team == "" || raw == "" || raw == "--" {
			return
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return
		}

		stats = append(stats, TeamStat{Team: team, Season: season, Value: value})
	})

	if len(stats) == 0 {
		return nil, fmt.Errorf("no stat rows found in table")
	}
	return stats, nil
}
