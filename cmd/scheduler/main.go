// The scheduler is the external collaborator that fires the engine's
// trigger endpoints on a cadence. The engine itself owns no timers; in
// production this binary (or an equivalent cron/orchestrator) is the
// only thing that calls /api/v1/triggers/*.
package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
)

type trigger struct {
	name     string
	schedule string
	path     string
}

func main() {
	baseURL := getenv("ENGINE_BASE_URL", "http://localhost:8080")
	secret := os.Getenv("SCHEDULER_SECRET")
	if secret == "" {
		log.Fatal("SCHEDULER_SECRET is required")
	}

	triggers := []trigger{
		{name: "drain", schedule: getenv("DRAIN_SCHEDULE", "*/5 * * * *"), path: "/api/v1/triggers/drain"},
		{name: "overdue", schedule: getenv("OVERDUE_SCHEDULE", "30 0 * * *"), path: "/api/v1/triggers/overdue"},
		{name: "analyze", schedule: getenv("ANALYSIS_SCHEDULE", "0 1 * * *"), path: "/api/v1/triggers/analyze"},
		{name: "snapshots", schedule: getenv("SNAPSHOT_SCHEDULE", "0 2 * * 1"), path: "/api/v1/triggers/snapshots"},
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	runner := cron.New()
	for _, t := range triggers {
		t := t
		if _, err := runner.AddFunc(t.schedule, func() {
			fire(client, baseURL, secret, t)
		}); err != nil {
			log.Fatalf("invalid schedule for %s (%q): %v", t.name, t.schedule, err)
		}
		log.Printf("scheduled %s (cron: %s) -> %s", t.name, t.schedule, t.path)
	}
	runner.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx := runner.Stop()
	<-ctx.Done()
}

func fire(client *http.Client, baseURL, secret string, t trigger) {
	req, err := http.NewRequest(http.MethodPost, baseURL+t.path, bytes.NewReader([]byte("{}")))
	if err != nil {
		log.Printf("%s request build failed: %v", t.name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Scheduler-Secret", secret)

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("%s trigger failed: %v", t.name, err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		log.Printf("%s trigger returned %d: %s", t.name, resp.StatusCode, body)
		return
	}
	log.Printf("%s trigger complete: %s", t.name, body)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
