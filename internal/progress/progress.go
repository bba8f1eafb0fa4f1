// Package progress implements the progress_cb sideband: a fan-out reporter
// that lets each cutengine worker report its own fractional completion
// without knowing about the others or about whatever sink the caller of
// render() actually wants (stdout, a channel, an SSE stream).
package progress

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Reporter is the interface cutengine workers report through. Implementations
// must be safe for concurrent use: the four workers call it from separate
// goroutines.
type Reporter interface {
	// Report reports stage's fractional completion, 0.0 to 1.0.
	Report(stage string, fraction float64)
}

// NilReporter is a no-op Reporter for callers that don't want progress
// tracking.
type NilReporter struct{}

// Report is a no-op.
func (NilReporter) Report(string, float64) {}

// fanOut serializes calls from concurrent workers and forwards each one to
// every registered sink, the Go analogue of the original's
// std::osyncstream-protected diagnostic output: workers may call Report
// concurrently, but sinks observe one call at a time.
type fanOut struct {
	mu    sync.Mutex
	runID string
	sinks []func(runID, stage string, fraction float64)
}

// NewReporter builds a Reporter identified by a freshly minted run ID
// (oklog/ulid), forwarding every report to each sink in order.
func NewReporter(entropy ulid.MonotonicReader, sinks ...func(runID, stage string, fraction float64)) Reporter {
	id := ulid.MustNew(ulid.Now(), entropy)
	return &fanOut{runID: id.String(), sinks: sinks}
}

// Report implements Reporter.
func (f *fanOut) Report(stage string, fraction float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sink := range f.sinks {
		sink(f.runID, stage, fraction)
	}
}

var (
	_ Reporter = NilReporter{}
	_ Reporter = (*fanOut)(nil)
)
