package cutengine

import (
	"sync"

	"github.com/finnhorvath/cutterd/internal/observability"
	"github.com/finnhorvath/cutterd/internal/version"
)

// Argument describes one recognised render() option, the Go analogue of the
// spec's C-ABI `struct Argument`.
type Argument struct {
	ShortName   string
	LongName    string
	Description string
	Default     string
	Required    bool
	IsFlag      bool
}

// Arguments returns the recognised options table. Only one option is
// defined by the spec: the quality knob forwarded to the optional
// re-encoder.
func Arguments() []Argument {
	return []Argument{
		{
			ShortName:   "q",
			LongName:    "quality",
			Description: "quality knob forwarded to re-encoder",
			Default:     "23",
			Required:    false,
			IsFlag:      false,
		},
	}
}

// Version returns a build identifier, delegating to internal/version.
func Version() string {
	return version.String()
}

var initOnce sync.Once

// Init performs process-wide, one-shot initialization: it sets the global
// log verbosity and is safe to call more than once (later calls are no-ops),
// matching the spec's requirement that init() be idempotent within a
// process.
func Init(logLevel string) {
	initOnce.Do(func() {
		observability.SetLogLevel(logLevel)
	})
}
