package mapper

import "sync"

// Stats is a point-in-time copy of the engine counters. Counters cover the
// lifetime of the process, not a single cycle.
type Stats struct {
	// TotalProcessed counts every event a cycle picked up.
	TotalProcessed int64 `json:"total_processed"`

	// TotalAssociated counts events that ended with a task written.
	TotalAssociated int64 `json:"total_associated"`

	// TotalSkipped counts every other terminal outcome: below-threshold,
	// no projects, no candidate tasks, classification or persistence failure.
	TotalSkipped int64 `json:"total_skipped"`

	// LastRunTime is the Unix timestamp of the last completed cycle,
	// 0 before the first one.
	LastRunTime int64 `json:"last_run_time"`

	// LastError is the most recent cycle-level error, empty if the last
	// cycle was clean.
	LastError string `json:"last_error,omitempty"`
}

type statsCollector struct {
	mu sync.Mutex
	s  Stats
}

func (c *statsCollector) addProcessed() {
	c.mu.Lock()
	c.s.TotalProcessed++
	c.mu.Unlock()
}

func (c *statsCollector) addAssociated() {
	c.mu.Lock()
	c.s.TotalAssociated++
	c.mu.Unlock()
}

func (c *statsCollector) addSkipped() {
	c.mu.Lock()
	c.s.TotalSkipped++
	c.mu.Unlock()
}

func (c *statsCollector) finishRun(when int64, err error) {
	c.mu.Lock()
	c.s.LastRunTime = when
	if err != nil {
		c.s.LastError = err.Error()
	} else {
		c.s.LastError = ""
	}
	c.mu.Unlock()
}

func (c *statsCollector) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
