// Package cuttest provides fixed-rate synthetic packet streams and an
// in-memory container pair for exercising the cutengine pipeline end to
// end without a real MPEG-TS file, mirroring the end-to-end scenarios
// fabricated against a time_base = 1/1000 stream.
package cuttest

import (
	"fmt"
	"io"
	"sync"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

// TimeBase is the fixed-rate fixture's native time base: milliseconds.
var TimeBase = cutengine.Rational{Num: 1, Den: 1000}

const (
	videoStreamID = 1
	audioStreamID = 2
)

// StreamSpec describes one fixed-rate synthetic elementary stream.
type StreamSpec struct {
	PacketDurationMS int64
	KeyframeEveryMS  int64
}

// BuildVideo returns durationMS worth of video packets at spec's rate, with
// a keyframe on the first packet whose PTS reaches each multiple of
// spec.KeyframeEveryMS (PacketDurationMS need not divide it evenly).
func BuildVideo(durationMS int64, spec StreamSpec) []*cutengine.Packet {
	var out []*cutengine.Packet
	nextKey := int64(0)
	for pts := int64(0); pts < durationMS; pts += spec.PacketDurationMS {
		var flags cutengine.PacketFlags
		if pts >= nextKey {
			flags |= cutengine.FlagKey
			nextKey += spec.KeyframeEveryMS
		}
		out = append(out, cutengine.NewPacket(videoStreamID, pts, pts, spec.PacketDurationMS, flags, []byte(fmt.Sprintf("v%d", pts))))
	}
	return out
}

// BuildAudio returns durationMS worth of audio packets at spec's rate.
func BuildAudio(durationMS int64, spec StreamSpec) []*cutengine.Packet {
	var out []*cutengine.Packet
	for pts := int64(0); pts < durationMS; pts += spec.PacketDurationMS {
		out = append(out, cutengine.NewPacket(audioStreamID, pts, pts, spec.PacketDurationMS, 0, []byte(fmt.Sprintf("a%d", pts))))
	}
	return out
}

// Input is an in-memory cutengine.Input fixture that replays a pre-built
// packet slice in the order given (it does not interleave video and audio
// itself) and a fixed SessionMetadata.
type Input struct {
	Packets []*cutengine.Packet
	Meta    cutengine.SessionMetadata

	pos int
}

func (in *Input) Open(path string) error { return nil }

func (in *Input) Metadata() cutengine.SessionMetadata { return in.Meta }

func (in *Input) ReadPacket() (*cutengine.Packet, error) {
	if in.pos >= len(in.Packets) {
		return nil, io.EOF
	}
	p := in.Packets[in.pos]
	in.pos++
	return p, nil
}

func (in *Input) Close() error { return nil }

// DefaultMeta returns the SessionMetadata matching BuildVideo/BuildAudio's
// stream IDs and TimeBase, with no reported start offset.
func DefaultMeta() cutengine.SessionMetadata {
	return cutengine.SessionMetadata{
		Video: cutengine.StreamMetadata{Kind: cutengine.StreamVideo, StreamID: videoStreamID, TimeBase: TimeBase, StartTime: cutengine.PTSUnset, CodecName: "fake264"},
		Audio: cutengine.StreamMetadata{Kind: cutengine.StreamAudio, StreamID: audioStreamID, TimeBase: TimeBase, StartTime: cutengine.PTSUnset, CodecName: "fakeaac"},
	}
}

// Output is an in-memory cutengine.Output fixture that records every
// segment written, in arrival order, safe for concurrent WriteSegment calls
// from the muxer's single goroutine (the mutex guards against future
// multi-writer use in tests).
type Output struct {
	mu      sync.Mutex
	Created bool
	Meta    cutengine.SessionMetadata
	Closed  bool
	Video   []*cutengine.Packet
	Audio   []*cutengine.Packet
}

func (out *Output) Create(path string, meta cutengine.SessionMetadata) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.Created = true
	out.Meta = meta
	return nil
}

func (out *Output) WriteSegment(seg *cutengine.Segment) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	switch seg.Stream {
	case cutengine.StreamVideo:
		out.Video = append(out.Video, seg.Packets...)
	case cutengine.StreamAudio:
		out.Audio = append(out.Audio, seg.Packets...)
	}
	return nil
}

func (out *Output) Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.Closed = true
	return nil
}
