package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lombardo/gridiron/internal/config"
	"github.com/lombardo/gridiron/internal/update"
)

// Scheduler runs the nightly data refresh: one update of the current
// season on a cron spec. There is never more than one run in flight.
type Scheduler struct {
	cron    *cron.Cron
	orch    *update.Orchestrator
	spec    string
	running chan struct{}
}

// New creates a scheduler over an orchestrator. spec is a standard
// 5-field cron expression, e.g. "0 4 * * *" for 04:00 daily.
func New(orch *update.Orchestrator, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		orch:    orch,
		spec:    spec,
		running: make(chan struct{}, 1),
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		return fmt.Errorf("invalid refresh cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("[scheduler] ✓ nightly refresh scheduled (%s)", s.spec)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) refresh() {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		log.Printf("[scheduler] previous refresh still running, skipping")
		return
	}

	season := config.CurrentSeason()
	log.Printf("[scheduler] → nightly refresh: season %d", season)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Minute)
	defer cancel()

	report, err := s.orch.RunUpdate(ctx, []int{season}, nil)
	if err != nil {
		log.Printf("[scheduler] ❌ refresh aborted: %v", err)
		return
	}
	if report.Failed() {
		log.Printf("[scheduler] refresh finished with failures: %s", report.Summary())
		return
	}
	log.Printf("[scheduler] ✓ refresh complete: %s", report.Summary())
}
