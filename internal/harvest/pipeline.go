package harvest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dgomez/bid-harvester/internal/db"
	"github.com/dgomez/bid-harvester/internal/models"
	"github.com/dgomez/bid-harvester/internal/scrape"
	"github.com/dgomez/bid-harvester/internal/store"
	"github.com/dgomez/bid-harvester/internal/transform"
)

// Pipeline wires collection, transformation and loading together. The DB
// store is optional: with a nil Store the pipeline still produces session
// directories and aggregate files, which is all the CLI needs offline.
type Pipeline struct {
	Registry *scrape.Registry
	Root     string // parent directory for session output
	Store    *db.Store
}

func NewPipeline(registry *scrape.Registry, root string, dbStore *db.Store) *Pipeline {
	if root == "" {
		root = "harvest_output"
	}
	return &Pipeline{Registry: registry, Root: root, Store: dbStore}
}

// CollectResult reports where a collection run landed and what it saw.
type CollectResult struct {
	Session *store.Session `json:"-"`
	Dir     string         `json:"dir"`
	Stats   scrape.Stats   `json:"stats"`
}

// Collect harvests one source over one window into a fresh session
// directory. A harvest_runs row brackets the run when a DB store is
// attached.
func (p *Pipeline) Collect(ctx context.Context, sourceID string, window scrape.DateWindow) (*CollectResult, error) {
	cfg, err := p.Registry.Find(sourceID)
	if err != nil {
		return nil, err
	}

	session, err := store.NewSession(p.Root, sourceID, window)
	if err != nil {
		return nil, err
	}

	var downloader *scrape.Downloader
	if cfg.Documents.Download {
		docDir, err := session.DocumentsDir()
		if err != nil {
			return nil, err
		}
		downloader = scrape.NewDownloader(docDir, cfg.Fetch)
	}

	accessor := scrape.NewStaticAccessor(scrape.NewCollyFetcher(cfg.Fetch))
	collector := scrape.NewCollector(*cfg, accessor, store.NewBatchWriter(session), window, downloader)

	runID, tracked := p.startRun(ctx, sourceID, window)

	stats, runErr := collector.Run(ctx)
	if tracked {
		if err := p.Store.FinishRun(ctx, runID, stats, runErr); err != nil {
			log.Printf("[%s] record run: %v", sourceID, err)
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	return &CollectResult{Session: session, Dir: session.Dir, Stats: stats}, nil
}

// Transform reads every batch in a session directory, normalizes it, and
// writes output.json next to the batches. With a DB store attached the
// aggregate is also upserted into Postgres. Validation failure is fatal:
// a broken aggregate is never written or loaded.
func (p *Pipeline) Transform(ctx context.Context, sessionDir, sourceID string, window scrape.DateWindow) (*models.Aggregate, error) {
	batches, err := store.ReadSession(sessionDir)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no batches in %s", sessionDir)
	}

	tr := transform.NewTransformer(sourceID)
	for _, b := range batches {
		tr.AddBatch(b)
	}
	agg := tr.Aggregate(window)

	if err := transform.Validate(agg); err != nil {
		return nil, fmt.Errorf("aggregate validation: %w", err)
	}

	outPath := filepath.Join(sessionDir, "output.json")
	if err := store.WriteJSON(outPath, agg); err != nil {
		return nil, err
	}
	log.Printf("[%s] wrote %s: %d contracts, %d agencies, %d people, %d documents",
		sourceID, outPath, agg.Metadata.TotalContracts, agg.Metadata.TotalAgencies,
		agg.Metadata.TotalPeople, agg.Metadata.TotalDocuments)

	if p.Store != nil {
		if err := p.Store.UpsertAggregate(ctx, agg); err != nil {
			return nil, fmt.Errorf("load aggregate: %w", err)
		}
		log.Printf("[%s] aggregate loaded into database", sourceID)
	}
	return &agg, nil
}

// Run collects and immediately transforms one source.
func (p *Pipeline) Run(ctx context.Context, sourceID string, window scrape.DateWindow) (*CollectResult, *models.Aggregate, error) {
	collected, err := p.Collect(ctx, sourceID, window)
	if err != nil {
		return nil, nil, err
	}
	if collected.Stats.BatchesWritten == 0 {
		log.Printf("[%s] nothing admitted, skipping transform", sourceID)
		return collected, nil, nil
	}
	agg, err := p.Transform(ctx, collected.Dir, sourceID, window)
	if err != nil {
		return collected, nil, err
	}
	return collected, agg, nil
}

func (p *Pipeline) startRun(ctx context.Context, sourceID string, window scrape.DateWindow) (uuid.UUID, bool) {
	if p.Store == nil {
		return uuid.Nil, false
	}
	id, err := p.Store.StartRun(ctx, sourceID, window)
	if err != nil {
		log.Printf("[%s] record run start: %v", sourceID, err)
		return uuid.Nil, false
	}
	return id, true
}

// Yesterday returns the default one-day window: the previous UTC day.
func Yesterday(now time.Time) scrape.DateWindow {
	day := now.UTC().AddDate(0, 0, -1)
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return scrape.DateWindow{From: d, To: d}
}
