package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dgomez/bid-harvester/internal/store"
)

// Prints a per-batch summary of one harvest session directory, handy for
// eyeballing a run before transforming it.
func main() {
	dir := flag.String("dir", "", "session directory containing batch_NNN.json files")
	flag.Parse()

	if *dir == "" {
		log.Fatal("Please provide a session directory using -dir flag")
	}

	batches, err := store.ReadSession(*dir)
	if err != nil {
		log.Fatal(err)
	}
	if len(batches) == 0 {
		log.Fatalf("No batch files in %s", *dir)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Batch", "Scraped At", "Items", "Documents", "Source URL"})

	totalItems, totalDocs := 0, 0
	for i, b := range batches {
		docs := 0
		for _, item := range b.Items {
			docs += len(item.Documents)
		}
		totalItems += len(b.Items)
		totalDocs += docs
		t.AppendRow(table.Row{i + 1, b.Metadata.ScrapedAt, len(b.Items), docs, b.Metadata.SourceURL})
	}
	t.AppendFooter(table.Row{"", "Total", totalItems, totalDocs, ""})
	t.Render()

	meta := batches[0].Metadata
	fmt.Printf("\nSource: %s  Window: %s..%s\n", meta.Source, meta.DateRange.From, meta.DateRange.To)
}
