package metrics

import (
	"sort"
	"sync"

	"github.com/influxdata/tdigest"
)

// DurationStats summarizes the run durations of one script, in seconds.
type DurationStats struct {
	Runs int     `json:"runs"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P99  float64 `json:"p99"`
}

type scriptDigest struct {
	mu     sync.Mutex // TDigest is not thread-safe
	digest *tdigest.TDigest
	runs   int
}

var (
	digests   = make(map[string]*scriptDigest)
	digestsMu sync.RWMutex
)

func observeDuration(script string, seconds float64) {
	digestsMu.Lock()
	d, ok := digests[script]
	if !ok {
		d = &scriptDigest{digest: tdigest.NewWithCompression(100)}
		digests[script] = d
	}
	digestsMu.Unlock()

	d.mu.Lock()
	d.digest.Add(seconds, 1)
	d.runs++
	d.mu.Unlock()
}

// GetDurationStats returns quantiles for a script, or nil if it never finished a run.
func GetDurationStats(script string) *DurationStats {
	digestsMu.RLock()
	d, ok := digests[script]
	digestsMu.RUnlock()
	if !ok {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return &DurationStats{
		Runs: d.runs,
		P50:  d.digest.Quantile(0.50),
		P90:  d.digest.Quantile(0.90),
		P99:  d.digest.Quantile(0.99),
	}
}

// DurationScripts lists scripts that have duration data, sorted.
func DurationScripts() []string {
	digestsMu.RLock()
	defer digestsMu.RUnlock()
	names := make([]string, 0, len(digests))
	for name := range digests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetDurations drops every digest.
func ResetDurations() {
	digestsMu.Lock()
	digests = make(map[string]*scriptDigest)
	digestsMu.Unlock()
}
