package cutengine

import (
	"log/slog"

	"github.com/finnhorvath/cutterd/internal/observability"
)

// Output is the narrow mux contract the Muxer worker drives, mirrored from
// internal/container.Output to avoid cutengine depending on the concrete
// adapter package.
type Output interface {
	Create(path string, meta SessionMetadata) error
	WriteSegment(seg *Segment) error
	Close() error
}

// Muxer consumes segments from the join queue (fed by both cutters, in
// FIFO arrival order) and writes them to the output container.
type Muxer struct {
	Output Output
	Join   *SegmentQueue
	Log    *slog.Logger

	// WroteTrailer reports whether Close completed successfully. The
	// orchestrator's overall return value reflects this.
	WroteTrailer bool
}

// Run waits for the session metadata, creates the output container, writes
// every segment popped from the join queue, and writes the trailer once the
// queue closes.
func (m *Muxer) Run(path string) error {
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	log = observability.WithWorker(log, "muxer")

	session, ok := m.Join.GetSpecial()
	if !ok {
		log.Info("no metadata published, nothing to mux")
		return nil
	}

	if err := m.Output.Create(path, *session); err != nil {
		werr := NewWorkerError("muxer", ErrOutputOpenFailed, err)
		log.Error("create output failed", slog.Any("error", werr))
		return werr
	}

	segments, packets := 0, 0
	for {
		seg, ok := m.Join.Pop()
		if !ok {
			break
		}
		if err := m.Output.WriteSegment(seg); err != nil {
			werr := NewWorkerError("muxer", ErrPacketWriteFailed, err)
			log.Error("write segment failed", slog.Any("error", werr))
			return werr
		}
		for _, p := range seg.Packets {
			p.Release()
		}
		segments++
		packets += len(seg.Packets)
	}

	if err := m.Output.Close(); err != nil {
		werr := NewWorkerError("muxer", ErrHeaderWriteFailed, err)
		log.Error("close output failed", slog.Any("error", werr))
		return werr
	}
	m.WroteTrailer = true
	log.Info("mux complete", slog.Int("segments", segments), slog.Int("packets", packets))
	return nil
}
