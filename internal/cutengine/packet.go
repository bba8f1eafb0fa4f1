package cutengine

// PTSUnset is the sentinel value meaning "no presentation timestamp", mirroring
// the container library's AV_NOPTS_VALUE. Packets carrying it are skipped by
// any arithmetic that compares against a real timestamp.
const PTSUnset = int64(-1) << 62

// PacketFlags is a bit set of the packet-level flags the cutters manipulate.
type PacketFlags uint8

const (
	// FlagKey marks a packet as a keyframe (random access point).
	FlagKey PacketFlags = 1 << iota
	// FlagDiscard marks a packet to be decoded but not displayed. The muxer
	// still receives it (the decoder may need it as a reference) but its PTS
	// is rewritten to PTSUnset before emission so players don't place it on
	// the seek bar.
	FlagDiscard
	// FlagDisposable marks a packet to be dropped entirely before mux.
	FlagDisposable
)

// Has reports whether f contains all bits of other.
func (f PacketFlags) Has(other PacketFlags) bool { return f&other == other }

// StreamKind distinguishes the two elementary streams the engine operates on.
type StreamKind int

const (
	// StreamVideo is the single selected video elementary stream.
	StreamVideo StreamKind = iota
	// StreamAudio is the single selected audio elementary stream.
	StreamAudio
)

func (k StreamKind) String() string {
	if k == StreamVideo {
		return "video"
	}
	return "audio"
}

// Packet is an opaque encoded frame, ref-counted by the container adapter
// that produced it. Exactly one goroutine owns a Packet at any time; the
// owner transfers by handing it across a Queue and must not touch it again
// afterward.
type Packet struct {
	StreamID int
	PTS      int64
	DTS      int64
	Duration int64
	Flags    PacketFlags
	// Payload is the encoded frame bytes. Release returns it (and any
	// container-library-owned backing buffer) to its origin.
	Payload []byte
	// release is set by the container adapter that allocated Payload; nil
	// for packets that own their own slice (e.g. test fixtures).
	release func()
}

// NewPacket builds an owned Packet around payload, with no release hook.
func NewPacket(streamID int, pts, dts, duration int64, flags PacketFlags, payload []byte) *Packet {
	return &Packet{StreamID: streamID, PTS: pts, DTS: dts, Duration: duration, Flags: flags, Payload: payload}
}

// WithRelease attaches a release callback invoked by Release, and returns p
// for chaining at construction time.
func (p *Packet) WithRelease(release func()) *Packet {
	p.release = release
	return p
}

// HasPTS reports whether the packet carries a real presentation timestamp.
func (p *Packet) HasPTS() bool { return p.PTS != PTSUnset }

// Clone returns a deep copy of p that owns its own payload buffer, used by
// the demuxer to detach a packet from a transient, library-owned buffer
// before it crosses a Queue.
func (p *Packet) Clone() *Packet {
	payload := make([]byte, len(p.Payload))
	copy(payload, p.Payload)
	return &Packet{
		StreamID: p.StreamID,
		PTS:      p.PTS,
		DTS:      p.DTS,
		Duration: p.Duration,
		Flags:    p.Flags,
		Payload:  payload,
	}
}

// Release returns the packet's backing resources to its origin. Safe to call
// on a packet with no release hook (a no-op).
func (p *Packet) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
}
