package cutengine

import (
	"log/slog"
	"sort"

	"github.com/finnhorvath/cutterd/internal/observability"
)

// KeyframeReencoder is the optional alternative to the DISCARD-based path:
// given the packets of a GOP straddled by a cut boundary, it may re-encode
// just the kept span at the given quality and return a replacement packet
// set. The zero value Cutter never calls it; DiscardOnly is the explicit
// no-op implementation used when a caller wants the interface satisfied
// without opting into re-encoding.
type KeyframeReencoder interface {
	Reencode(packets []*Packet, quality int) ([]*Packet, error)
}

// DiscardOnly is the primary, lossless path: it never re-encodes, leaving
// Cutter's DISCARD/DISPOSABLE flagging as the only mechanism for handling a
// straddled GOP.
type DiscardOnly struct{}

// Reencode returns packets unchanged.
func (DiscardOnly) Reencode(packets []*Packet, quality int) ([]*Packet, error) {
	return packets, nil
}

// Cutter consumes segments of one elementary stream, rewrites PTS/DTS/flags
// according to a CutList, and emits the retained packets to a shared join
// queue. Video and audio share this skeleton; video additionally sorts by
// PTS (B-frames), repairs monotonic DTS and may hand DISCARD runs to the
// Reencoder, and marks out-of-cut packets DISCARD where audio marks them
// DISPOSABLE (see droppedFlag).
type Cutter struct {
	Kind      StreamKind
	Input     *SegmentQueue
	Output    *SegmentQueue
	CutList   CutList
	Reencoder KeyframeReencoder
	Quality   int
	Log       *slog.Logger

	localCuts           []localCut
	nativeBase          Rational
	firstCutIdx         int
	exitIdx             int
	csKeptBeforeSegment int64
	delayCarry          int64
	dtsPrev             int64
	dtsPrevSet          bool
}

// Run pulls the session metadata via Input.GetSpecial, relays it to Output,
// localizes the cut list into this stream's native time base, and processes
// segments until Input closes.
func (c *Cutter) Run() error {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log = observability.WithWorker(log, c.Kind.String()+"_cutter")

	producerID := c.Output.RegisterProducer()
	defer c.Output.MarkDone(producerID)

	session, ok := c.Input.GetSpecial()
	if !ok {
		log.Info("no metadata published, nothing to cut")
		return nil
	}
	c.Output.SetSpecial(session)

	var meta StreamMetadata
	if c.Kind == StreamVideo {
		meta = session.Video
	} else {
		meta = session.Audio
	}
	c.nativeBase = meta.TimeBase
	c.localCuts = localize(c.CutList, c.nativeBase, meta.StartOffset())
	c.dtsPrev = PTSUnset
	log.Info("cut list localized", slog.Int("cuts", len(c.localCuts)), slog.String("timebase", c.nativeBase.String()))

	segments := 0
	for {
		seg, ok := c.Input.Pop()
		if !ok {
			break
		}
		out := c.processSegment(seg)
		if out != nil {
			c.Output.Push(out)
		}
		segments++
	}
	log.Info("cutting complete", slog.Int64("centiseconds_kept_before_last_segment", c.csKeptBeforeSegment), slog.Int("segments_seen", segments))
	return nil
}

func segmentRange(packets []*Packet) (start, end int64) {
	start, end = PTSUnset, PTSUnset
	for _, p := range packets {
		if !p.HasPTS() {
			continue
		}
		if start == PTSUnset || p.PTS < start {
			start = p.PTS
		}
		if e := p.PTS + p.Duration; end == PTSUnset || e > end {
			end = e
		}
	}
	return start, end
}

// advanceRetirement grows segmentCuts' worth of overlapping localCuts and
// advances the retirement pointer, accumulating retired cuts' centisecond
// length into csKeptBeforeSegment. Returns the indices (into c.localCuts) of
// every cut overlapping [segStart, segEnd).
func (c *Cutter) advanceRetirement(segStart, segEnd int64) []int {
	var idxs []int
	for c.firstCutIdx < len(c.localCuts) && c.localCuts[c.firstCutIdx].Start < segEnd {
		idxs = append(idxs, c.firstCutIdx)
		for c.exitIdx < len(c.localCuts) && c.localCuts[c.exitIdx].End <= segStart {
			cc := c.CutList.Cuts[c.exitIdx]
			c.csKeptBeforeSegment += cc.End - cc.Start
			c.exitIdx++
		}
		if c.localCuts[c.firstCutIdx].End > segEnd {
			break
		}
		c.firstCutIdx++
	}
	return idxs
}

func (c *Cutter) processSegment(seg *Segment) *Segment {
	packets := seg.Packets
	if len(packets) == 0 {
		return nil
	}
	segStart, segEnd := segmentRange(packets)
	cutIdxs := c.advanceRetirement(segStart, segEnd)

	switch {
	case len(cutIdxs) == 0:
		// Case A: entirely outside every cut.
		return nil
	case len(cutIdxs) == 1 &&
		c.localCuts[cutIdxs[0]].Start <= segStart &&
		c.localCuts[cutIdxs[0]].End >= segEnd:
		return c.caseB(packets, cutIdxs[0])
	default:
		return c.caseC(packets, cutIdxs, segEnd)
	}
}

// caseB shifts every packet in a segment fully contained in one cut by a
// constant offset.
func (c *Cutter) caseB(packets []*Packet, cutIdx int) *Segment {
	cut := c.localCuts[cutIdx]
	shift := cut.Start - CutListBase.Rescale(c.csKeptBeforeSegment, c.nativeBase) + c.delayCarry

	out := make([]*Packet, len(packets))
	for i, p := range packets {
		np := *p
		np.DTS -= shift
		if np.HasPTS() {
			np.PTS -= shift
		} else {
			np.Flags |= FlagDiscard
		}
		out[i] = &np
	}
	if c.Kind == StreamVideo {
		c.applyMonotonicDTS(out)
		out = c.reencodeDiscardRuns(out)
	}
	return &Segment{Stream: c.Kind, Packets: out}
}

// reencodeDiscardRuns replaces each contiguous run of DISCARD-flagged
// packets with the result of c.Reencoder.Reencode, letting the caller turn
// decode-only reference frames into an independent, droppable keyframe span
// instead of shipping them to the muxer at all. A no-op when no reencoder is
// configured (c.Reencoder is nil or DiscardOnly) or for the audio stream.
func (c *Cutter) reencodeDiscardRuns(packets []*Packet) []*Packet {
	if c.Kind != StreamVideo || c.Reencoder == nil {
		return packets
	}
	if _, ok := c.Reencoder.(DiscardOnly); ok {
		return packets
	}

	var result []*Packet
	var run []*Packet
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		encoded, err := c.Reencoder.Reencode(run, c.Quality)
		if err != nil {
			result = append(result, run...)
			run = nil
			return
		}
		for _, p := range encoded {
			p.Flags &^= FlagDiscard
			p.Flags |= FlagKey
		}
		result = append(result, encoded...)
		run = nil
	}
	for _, p := range packets {
		if p.Flags.Has(FlagDiscard) && !p.Flags.Has(FlagDisposable) {
			run = append(run, p)
			continue
		}
		flushRun()
		result = append(result, p)
	}
	flushRun()
	return result
}

// droppedFlag returns the flag used to mark an out-of-cut packet for this
// stream: DISCARD for video (the decoder may still need it as a reference),
// DISPOSABLE for audio (dropped outright before mux).
func (c *Cutter) droppedFlag() PacketFlags {
	if c.Kind == StreamVideo {
		return FlagDiscard
	}
	return FlagDisposable
}

// caseC handles a segment straddling one or more cut edges. Bucketing and
// the shift/backOfCutTrim math below need the PTS-sorted view (video's
// B-frames decode out of presentation order), but work holds the same
// packets in their original decode order; re-assembly at the end walks
// work, not the sorted view, so the monotonic-DTS repair and the emitted
// segment both preserve decode order per §4.3 step 7 / §5.
func (c *Cutter) caseC(packets []*Packet, cutIdxs []int, segEnd int64) *Segment {
	work := make([]*Packet, len(packets))
	for i, p := range packets {
		np := *p
		work[i] = &np
	}
	sorted := append([]*Packet(nil), work...)
	if c.Kind == StreamVideo {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PTS < sorted[j].PTS })
	}

	// bucket[i] holds the packets chunked to cutIdxs[i]; tail holds packets
	// past the last cut in the segment.
	buckets := make([][]*Packet, len(cutIdxs))
	var tail []*Packet

	lastCut := c.localCuts[cutIdxs[len(cutIdxs)-1]]
	for _, p := range sorted {
		if p.HasPTS() && p.PTS > lastCut.End {
			p.Flags |= c.droppedFlag()
			tail = append(tail, p)
			continue
		}
		idx := -1
		for i, ci := range cutIdxs {
			cut := c.localCuts[ci]
			if p.HasPTS() && p.PTS+p.Duration > cut.Start && p.PTS < cut.End {
				idx = i
				break
			}
		}
		if idx == -1 {
			// Out-of-cut packet within the segment's span: attach to the
			// nearest preceding cut's bucket so it shares that bucket's
			// offset, and flag it dropped.
			p.Flags |= c.droppedFlag()
			idx = 0
			for i, ci := range cutIdxs {
				if p.HasPTS() && c.localCuts[ci].Start <= p.PTS {
					idx = i
				}
			}
		}
		buckets[idx] = append(buckets[idx], p)
	}

	basePrefix := CutListBase.Rescale(c.csKeptBeforeSegment, c.nativeBase)
	var prefixSum int64

	for i, ci := range cutIdxs {
		cut := c.localCuts[ci]
		timeDiscardedBeforeCi := cut.Start - (basePrefix + prefixSum)
		prefixSum += cut.End - cut.Start

		bucket := buckets[i]
		firstDisplayable, lastDisplayable := firstLastDisplayable(bucket)

		var delayBeforeCi int64
		if firstDisplayable != nil && firstDisplayable.PTS < cut.Start {
			delayBeforeCi = c.delayCarry + (firstDisplayable.PTS - cut.Start)
		}

		shift := timeDiscardedBeforeCi + delayBeforeCi
		for _, p := range bucket {
			p.DTS -= shift
			if p.HasPTS() {
				p.PTS -= shift
			} else {
				p.Flags |= FlagDiscard
			}
		}

		if cut.End <= segEnd {
			if lastDisplayable != nil {
				c.delayCarry = cut.End - (lastDisplayable.PTS + lastDisplayable.Duration)
			}
			backOfCutTrim(bucket, c.delayCarry, c.droppedFlag())
		}
	}

	// tail and every bucket share pointers with work, so the shift/flag
	// mutations above already landed on work's decode-order packets; out is
	// just work re-read in that order, not the PTS order used for bucketing.
	out := work
	if c.Kind == StreamVideo {
		c.applyMonotonicDTS(out)
		out = c.reencodeDiscardRuns(out)
	}

	final := out[:0]
	for _, p := range out {
		if p.Flags.Has(FlagDisposable) {
			continue
		}
		if p.Flags.Has(FlagDiscard) {
			p.PTS = PTSUnset
		}
		final = append(final, p)
	}
	if len(final) == 0 {
		return nil
	}
	return &Segment{Stream: c.Kind, Packets: final}
}

// firstLastDisplayable returns the first and last packets in bucket that
// are neither DISPOSABLE nor DISCARD and carry a set PTS ("displayable").
func firstLastDisplayable(bucket []*Packet) (first, last *Packet) {
	for _, p := range bucket {
		if p.Flags.Has(FlagDisposable) || p.Flags.Has(FlagDiscard) || !p.HasPTS() {
			continue
		}
		if first == nil {
			first = p
		}
		last = p
	}
	return first, last
}

// backOfCutTrim walks bucket backwards, trimming tail packets whose
// presentation would land past the cut's nominal end: while
// |delay - duration| < |delay|, subtract duration from delay and mark the
// packet dropped.
func backOfCutTrim(bucket []*Packet, delay int64, dropFlag PacketFlags) {
	absI64 := func(v int64) int64 {
		if v < 0 {
			return -v
		}
		return v
	}
	for i := len(bucket) - 1; i >= 0; i-- {
		p := bucket[i]
		if p.Flags.Has(FlagDisposable) || p.Flags.Has(FlagDiscard) {
			continue
		}
		if absI64(delay-p.Duration) >= absI64(delay) {
			break
		}
		delay -= p.Duration
		p.Flags |= dropFlag
	}
}

// applyMonotonicDTS repairs decode-timestamp monotonicity across packets in
// their decode order, per §4.4: video only.
func (c *Cutter) applyMonotonicDTS(packets []*Packet) {
	for _, p := range packets {
		if c.dtsPrevSet && p.DTS <= c.dtsPrev {
			p.DTS = c.dtsPrev + 1
			if p.HasPTS() && p.PTS < p.DTS {
				p.PTS = p.DTS
			}
		}
		c.dtsPrev = p.DTS
		c.dtsPrevSet = true
	}
}
