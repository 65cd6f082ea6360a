// Command monitor follows one user's document processing live: it syncs the
// document list, subscribes to status pushes and prints every change as it
// lands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmarchuk/legalintel/pkg/dashclient"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	userID := flag.Int64("user", 0, "user id to follow")
	resync := flag.Duration("resync", time.Minute, "periodic full resync interval")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "monitor: -user is required")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := dashclient.New(dashclient.Options{
		BaseURL:        *baseURL,
		UserID:         *userID,
		ResyncInterval: *resync,
		Logger:         logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Resync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: initial sync: %v\n", err)
		os.Exit(1)
	}
	printCounts(client.Cache())

	client.OnUpdate(func(update dashclient.StatusUpdate) {
		doc, known := client.Cache().Get(update.DocumentID)
		name := fmt.Sprintf("document %d", update.DocumentID)
		if known {
			name = doc.Filename
		}
		switch {
		case update.ProcessingError != nil:
			fmt.Printf("%s  FAILED  %s\n", name, *update.ProcessingError)
		case update.Processed:
			fmt.Printf("%s  processed\n", name)
		default:
			fmt.Printf("%s  pending\n", name)
		}
		printCounts(client.Cache())
	})

	client.Connect(ctx)
	defer client.Disconnect()

	<-ctx.Done()
}

func printCounts(cache *dashclient.DocumentCache) {
	total, processed, pending, failed := cache.Counts()
	fmt.Printf("  %d documents: %d processed, %d pending, %d failed\n",
		total, processed, pending, failed)
}
