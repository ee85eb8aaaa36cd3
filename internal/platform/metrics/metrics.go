package metrics

import (
	"sync/atomic"
	"time"
)

// Collector counts what the scheduled triggers do so the /metrics
// endpoint can expose a cheap operational snapshot.
type Collector struct {
	triggerRuns     uint64
	triggerFailures uint64
	itemsProcessed  uint64
	itemErrors      uint64
	totalDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordRun(failed bool, processed, itemErrors int, duration time.Duration) {
	atomic.AddUint64(&c.triggerRuns, 1)
	if failed {
		atomic.AddUint64(&c.triggerFailures, 1)
	}
	atomic.AddUint64(&c.itemsProcessed, uint64(processed))
	atomic.AddUint64(&c.itemErrors, uint64(itemErrors))
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	runs := atomic.LoadUint64(&c.triggerRuns)
	failures := atomic.LoadUint64(&c.triggerFailures)
	processed := atomic.LoadUint64(&c.itemsProcessed)
	errs := atomic.LoadUint64(&c.itemErrors)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if runs > 0 {
		avg = float64(totalMs) / float64(runs)
	}
	return map[string]any{
		"triggerRunsTotal":     runs,
		"triggerFailuresTotal": failures,
		"itemsProcessedTotal":  processed,
		"itemErrorsTotal":      errs,
		"avgRunDurationMs":     avg,
	}
}
