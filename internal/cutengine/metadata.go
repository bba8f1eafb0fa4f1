package cutengine

import "fmt"

// Rational is a num/den time base, the Go analogue of AVRational.
type Rational struct {
	Num int64
	Den int64
}

// Rescale converts ts, expressed in r's base, into the base dst, rounding
// toward zero. Mirrors av_rescale_q for the whole-number arithmetic the
// cutters need; if either base has a zero denominator (or dst a zero
// numerator), ts is returned unchanged.
func (r Rational) Rescale(ts int64, dst Rational) int64 {
	if r.Den == 0 || dst.Den == 0 {
		return ts
	}
	// ts * r.Num/r.Den * dst.Den/dst.Num
	num := ts * r.Num * dst.Den
	den := r.Den * dst.Num
	if den == 0 {
		return ts
	}
	return num / den
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// CutListBase is the fixed reference time base the wire-format CutList is
// expressed in: centiseconds, i.e. 1/100 s.
var CutListBase = Rational{Num: 1, Den: 100}

// StreamMetadata describes one selected elementary stream's codec parameters
// as discovered by the Demuxer and consumed write-once by every downstream
// worker via Queue.GetSpecial.
type StreamMetadata struct {
	Kind       StreamKind
	StreamID   int
	TimeBase   Rational
	StartTime  int64 // PTSUnset if the container reported none; treated as 0
	CodecName  string
	// CodecParams is an opaque, container-format-specific blob (e.g. SPS/PPS,
	// AudioSpecificConfig). The built-in mpegts adapter neither fills nor
	// reads it: its Output picks the output codec from CodecName alone.
	CodecParams []byte
}

// StartOffset returns StartTime, or 0 if it is unset.
func (m StreamMetadata) StartOffset() int64 {
	if m.StartTime == PTSUnset {
		return 0
	}
	return m.StartTime
}

// SessionMetadata bundles the two selected streams' metadata, published once
// by the Demuxer to both the video and audio queues, and relayed unchanged
// by each Cutter to the join queue so the Muxer can create both output
// streams from a single special value.
type SessionMetadata struct {
	Video StreamMetadata
	Audio StreamMetadata
}
