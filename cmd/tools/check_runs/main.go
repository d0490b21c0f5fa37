package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dgomez/bid-harvester/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := db.NewStore(pool).ListRuns(ctx, "", 10)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Window", "Status", "Seen", "Admitted", "Errors", "Batches", "Docs", "Duration", "Started At"})

	for _, r := range runs {
		duration := "Running..."
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		window := r.WindowFrom.Format("2006-01-02") + ".." + r.WindowTo.Format("2006-01-02")
		t.AppendRow(table.Row{
			r.Source, window, r.Status,
			r.Stats.ItemsSeen, r.Stats.ItemsAdmitted, r.Stats.ItemErrors, r.Stats.BatchesWritten,
			r.Stats.DocumentsFound, duration, r.StartedAt.Format("15:04:05"),
		})
	}
	t.Render()
}
