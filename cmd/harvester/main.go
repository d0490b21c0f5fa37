package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgomez/bid-harvester/internal/db"
	"github.com/dgomez/bid-harvester/internal/harvest"
	"github.com/dgomez/bid-harvester/internal/scrape"
)

const usage = `Usage:
  harvester collect   -source <id> [-today | -date-range FROM,TO] [-out DIR] [-db]
  harvester transform -source <id> -dir SESSION_DIR -date-range FROM,TO [-db]
  harvester run       -source <id> [-today | -date-range FROM,TO] [-out DIR] [-db]

The window defaults to yesterday (UTC). Dates are YYYY-MM-DD.
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	sourceID := flags.String("source", "", "source id from the registry")
	today := flags.Bool("today", false, "harvest the current UTC day")
	dateRange := flags.String("date-range", "", "window as YYYY-MM-DD,YYYY-MM-DD")
	outRoot := flags.String("out", "harvest_output", "parent directory for session output")
	sessionDir := flags.String("dir", "", "existing session directory (transform only)")
	useDB := flags.Bool("db", false, "record runs and load aggregates into Postgres")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if *sourceID == "" {
		fmt.Fprintln(os.Stderr, "-source is required")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	window := harvest.Yesterday(time.Now())
	switch {
	case *today && *dateRange != "":
		fmt.Fprintln(os.Stderr, "-today and -date-range are mutually exclusive")
		os.Exit(2)
	case *today:
		window = harvest.Today(time.Now())
	case *dateRange != "":
		parsed, err := harvest.ParseWindow(*dateRange)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		window = parsed
	}

	registry, err := scrape.LoadRegistry("internal/scrape/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbStore *db.Store
	if *useDB {
		pool, err := db.Connect(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		dbStore = db.NewStore(pool)
	}

	pipeline := harvest.NewPipeline(registry, *outRoot, dbStore)

	switch command {
	case "collect":
		result, err := pipeline.Collect(ctx, *sourceID, window)
		if err != nil {
			log.Fatalf("Collection failed: %v", err)
		}
		log.Printf("[%s] done: %d pages, %d admitted, %d skipped, %d errors -> %s",
			*sourceID, result.Stats.PagesFetched, result.Stats.ItemsAdmitted,
			result.Stats.ItemsSkipped, result.Stats.ItemErrors, result.Dir)

	case "transform":
		if *sessionDir == "" {
			fmt.Fprintln(os.Stderr, "-dir is required for transform")
			os.Exit(2)
		}
		if *dateRange == "" {
			fmt.Fprintln(os.Stderr, "-date-range is required for transform")
			os.Exit(2)
		}
		agg, err := pipeline.Transform(ctx, *sessionDir, *sourceID, window)
		if err != nil {
			log.Fatalf("Transform failed: %v", err)
		}
		log.Printf("[%s] transformed %d contracts", *sourceID, agg.Metadata.TotalContracts)

	case "run":
		result, agg, err := pipeline.Run(ctx, *sourceID, window)
		if err != nil {
			log.Fatalf("Harvest failed: %v", err)
		}
		contracts := 0
		if agg != nil {
			contracts = agg.Metadata.TotalContracts
		}
		log.Printf("[%s] done: %d admitted, %d contracts -> %s",
			*sourceID, result.Stats.ItemsAdmitted, contracts, result.Dir)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
