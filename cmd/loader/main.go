package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lombardo/gridiron/internal/config"
	"github.com/lombardo/gridiron/internal/ingest/nflverse"
	"github.com/lombardo/gridiron/internal/service"
	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/update"
)

const usage = `Usage: loader <command> [flags]

Commands:
  ensure-schema    create or migrate the target schema
  update           fetch, aggregate and upsert season data
  reconcile-predictions
                   grade predictions whose games have final scores
  rebuild          DROP and recreate the target schema (destructive)

Flags per command:
  ensure-schema          [--target prod|test]
  update                 [--target prod|test] [--seasons 2023,2024] [--weeks 1,2,3]
  reconcile-predictions  [--target prod|test] [--season S] [--week W]
  rebuild                [--target prod|test] --yes
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch command {
	case "ensure-schema":
		exitCode = runEnsureSchema(cfg, args)
	case "update":
		exitCode = runUpdate(cfg, args)
	case "reconcile-predictions":
		exitCode = runReconcile(cfg, args)
	case "rebuild":
		exitCode = runRebuild(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		exitCode = 1
	}
	os.Exit(exitCode)
}

// targetFlag overrides SCHEMA_TARGET from the command line.
func targetFlag(fs *flag.FlagSet, cfg *config.Config) {
	fs.Func("target", "schema target: prod or test", func(v string) error {
		switch v {
		case "prod":
			cfg.SchemaTarget = config.TargetProd
		case "test":
			cfg.SchemaTarget = config.TargetTest
		default:
			return fmt.Errorf("want prod or test, got %q", v)
		}
		return nil
	})
}

func openDatabase(cfg config.Config) (*store.Database, error) {
	db, err := store.NewDatabase(cfg.DSN(), cfg.SchemaTarget.SchemaName())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	log.Printf("✓ Connected to database (schema %s)", db.Schema())
	return db, nil
}

// signalContext cancels on SIGINT/SIGTERM so a run stops cleanly between
// batches.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runEnsureSchema(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("ensure-schema", flag.ExitOnError)
	targetFlag(fs, &cfg)
	fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Printf("❌ ensure-schema failed: %v", err)
		return 1
	}
	log.Printf("✓ Schema %s ensured", db.Schema())
	return 0
}

func runUpdate(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	targetFlag(fs, &cfg)
	seasonsFlag := fs.String("seasons", "", "comma-separated seasons (default: config)")
	weeksFlag := fs.String("weeks", "", "comma-separated week subset (default: all)")
	fs.Parse(args)

	seasons := cfg.UpdateSeasons
	if *seasonsFlag != "" {
		parsed, err := parseIntList(*seasonsFlag)
		if err != nil {
			log.Printf("❌ invalid --seasons: %v", err)
			return 1
		}
		seasons = parsed
	}
	weeks := cfg.UpdateWeeks
	if *weeksFlag != "" {
		parsed, err := parseIntList(*weeksFlag)
		if err != nil {
			log.Printf("❌ invalid --weeks: %v", err)
			return 1
		}
		weeks = parsed
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	orchestrator := update.NewOrchestrator(db, nflverse.NewClient(cfg.NFLVerseBaseURL), cfg)
	report, err := orchestrator.RunUpdate(ctx, seasons, weeks)
	if report != nil {
		fmt.Println(report.Summary())
	}
	if err != nil {
		log.Printf("❌ update aborted: %v", err)
		return 1
	}
	if report.Failed() {
		return 1
	}
	return 0
}

func runReconcile(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("reconcile-predictions", flag.ExitOnError)
	targetFlag(fs, &cfg)
	season := fs.Int("season", 0, "restrict to one season (0 = all)")
	week := fs.Int("week", 0, "restrict to one week (0 = all)")
	fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	graded, err := service.NewPredictionService(db).Reconcile(ctx, *season, *week)
	if err != nil {
		log.Printf("❌ reconcile failed: %v", err)
		return 1
	}
	fmt.Printf("reconciled %d prediction(s)\n", graded)
	return 0
}

func runRebuild(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	targetFlag(fs, &cfg)
	yes := fs.Bool("yes", false, "confirm the destructive rebuild")
	fs.Parse(args)

	schema := cfg.SchemaTarget.SchemaName()
	if !*yes {
		log.Printf("❌ rebuild drops schema %s and all its data; re-run with --yes to confirm", schema)
		return 1
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.Rebuild(ctx); err != nil {
		log.Printf("❌ rebuild failed: %v", err)
		return 1
	}
	log.Printf("✓ Schema %s rebuilt", schema)
	return 0
}

func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
