package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jpalmerr/listingwatch"
	"github.com/jpalmerr/listingwatch/kvstore"
)

func main() {
	// start mock listing site (see mock_server.go)
	go StartMockListingServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	flats, err := listingwatch.NewMonitor("centre-flats", "Centre flats", listingwatch.Flat,
		"http://localhost:9999/flats/",
		listingwatch.WithMaxPages(2),
		listingwatch.WithDistrict("Centrs"),
		listingwatch.WithRecipients("me@example.com"),
		listingwatch.WithCriteria(listingwatch.Criteria{
			Rooms:      listingwatch.AtLeast(2),
			TotalPrice: listingwatch.AtMost(200000),
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	// grid: one house monitor per district from a single declaration
	houses, err := listingwatch.NewMonitorGrid("houses", "Houses", listingwatch.House,
		listingwatch.WithURLTemplate("http://localhost:9999/houses/{{.district}}/"),
		listingwatch.WithDimensions(map[string][]string{
			"district": {"agenskalns", "mezaparks"},
		}),
		listingwatch.WithGridMonitorOptions(
			listingwatch.WithCriteria(listingwatch.Criteria{LandArea: listingwatch.AtLeast(500)}),
		),
	)
	if err != nil {
		slog.Error("failed to create monitor grid", "error", err)
		os.Exit(1)
	}

	outDir := filepath.Join(os.TempDir(), "listingwatch-example")
	seen, err := kvstore.NewFile(filepath.Join(outDir, "seen"))
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	w, err := listingwatch.New(
		listingwatch.WithMonitor(flats),
		listingwatch.WithMonitors(houses...),
		listingwatch.WithStore(seen),
		listingwatch.WithNotifyMode(listingwatch.NotifyPreview),
		listingwatch.WithBaseURL("http://localhost:9999"),
		listingwatch.WithRequestDelay(200*time.Millisecond),
		listingwatch.WithLogger(logger),
		listingwatch.WithResultCallback(func(r listingwatch.MonitorRunResult) {
			if r.EmailPreviewHTML == "" {
				return
			}
			path := filepath.Join(outDir, r.MonitorID+".html")
			if err := os.WriteFile(path, []byte(r.EmailPreviewHTML), 0o644); err != nil {
				logger.Error("failed to write preview", "error", err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	fmt.Println()
	fmt.Println("  listingwatch demo")
	fmt.Println()
	fmt.Println("  Monitors: 1 flat source (2 pages) + 2 house districts via grid")
	fmt.Println("  A new flat is published every 20s; each run reports only unseen ones.")
	fmt.Printf("  Previews are written to %s\n", outDir)
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		batch := w.RunAll(ctx)
		for _, r := range batch.Results {
			fmt.Printf("  %-22s %-8s matching=%d new=%d\n", r.MonitorID, r.Status, r.ListingsMatchingCriteria, r.NewListingCount)
		}
		fmt.Println()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
