package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgomez/bid-harvester/internal/scrape"
)

// BatchMetadata describes the provenance of one raw batch file.
type BatchMetadata struct {
	ScrapedAt  string    `json:"scrapedAt"`
	Source     string    `json:"source"`
	SourceURL  string    `json:"sourceUrl"`
	DateRange  DateRange `json:"dateRange"`
	TotalItems int       `json:"totalItems"`
}

type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Batch is the raw persistence envelope. Items are stored exactly as
// extracted; normalization happens in a later pass that reads these files
// back.
type Batch struct {
	Metadata BatchMetadata `json:"metadata"`
	Items    []scrape.Item `json:"items"`
}

// BatchWriter appends numbered batch files to a session directory. It
// implements the sink the collector writes page results through.
type BatchWriter struct {
	session *Session
	seq     int
}

func NewBatchWriter(session *Session) *BatchWriter {
	return &BatchWriter{session: session}
}

// WriteBatch persists one page of items as the next numbered batch file.
// Files are write-once: an existing file with the same sequence number is
// an error, not an overwrite.
func (w *BatchWriter) WriteBatch(sourceURL string, items []scrape.Item) (int, error) {
	w.seq++
	batch := Batch{
		Metadata: BatchMetadata{
			ScrapedAt: time.Now().UTC().Format(time.RFC3339),
			Source:    w.session.SourceID,
			SourceURL: sourceURL,
			DateRange: DateRange{
				From: w.session.Window.From.Format("2006-01-02"),
				To:   w.session.Window.To.Format("2006-01-02"),
			},
			TotalItems: len(items),
		},
		Items: items,
	}

	path := filepath.Join(w.session.Dir, fmt.Sprintf("batch_%03d.json", w.seq))
	if _, err := os.Stat(path); err == nil {
		return w.seq, fmt.Errorf("batch file already exists: %s", path)
	}

	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return w.seq, fmt.Errorf("encode batch %d: %w", w.seq, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return w.seq, fmt.Errorf("write batch %d: %w", w.seq, err)
	}
	return w.seq, nil
}

// Count reports how many batches have been written so far.
func (w *BatchWriter) Count() int { return w.seq }

// ReadSession loads every batch file in a session directory, in sequence
// order.
func ReadSession(dir string) ([]Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "batch_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	batches := make([]Batch, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var b Batch
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// WriteJSON writes any document (typically the normalized aggregate) as
// indented JSON.
func WriteJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
