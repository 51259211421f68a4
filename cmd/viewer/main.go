// Command viewer subscribes to a running server's comment stream and prints
// each comment as it appears and expires, mirroring what the on-screen
// display shows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/logging"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/viewer"
)

func main() {
	url := flag.String("url", "ws://localhost:3001/ws/comments", "websocket stream URL")
	logLevel := flag.String("log-level", "warn", "log level (debug/info/warn/error)")
	flag.Parse()

	logging.InitLogger(*logLevel, "text")

	display := viewer.NewDisplay()
	session := viewer.NewSession(*url, display)
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	fmt.Printf("Connected to %s\n", *url)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seen := make(map[string]bool)

	for {
		select {
		case <-sigChan:
			slog.Info("Shutting down viewer")
			return
		case <-ticker.C:
			current := make(map[string]bool)
			for _, bubble := range display.Visible() {
				id := bubble.Comment.ID.String()
				current[id] = true
				if !seen[id] {
					fmt.Printf("[%s] %s (score %.2f, top %.0f%%, left %.0f%%)\n",
						bubble.Bucket(), bubble.Comment.Content,
						bubble.Comment.SentimentScore,
						bubble.Position.Top, bubble.Position.Left)
				}
			}
			for id := range seen {
				if !current[id] {
					fmt.Printf("expired %s\n", id)
				}
			}
			seen = current
		}
	}
}
