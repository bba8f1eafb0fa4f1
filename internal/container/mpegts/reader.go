// Package mpegts is the built-in internal/container adapter, backed by two
// pack libraries: astits for a lightweight PAT/PMT walk that discovers the
// input's elementary streams and their PIDs before any codec-level framing
// is attempted, and mediacommon for the actual per-codec access-unit
// framing and MPEG-TS read/write.
package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/asticode/go-astits"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

// timeBase90k is the MPEG-TS PTS/DTS clock, a fixed 90 kHz tick.
var timeBase90k = cutengine.Rational{Num: 1, Den: 90000}

// discoverStreams performs a fast astits PAT/PMT walk over path, returning
// the elementary stream PIDs and astits stream-type codes for the first
// video and first audio stream, without framing a single access unit. This
// mirrors the early stream-discovery step of a classical demuxer
// (avformat_find_stream_info), done here with astits instead of mediacommon
// so the PMT is inspected independently of the codec-specific reader below.
func discoverStreams(path string) (videoPID, audioPID uint16, videoType, audioType astits.StreamType, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dmx := astits.NewDemuxer(ctx, f)
	for {
		data, derr := dmx.NextData()
		if derr != nil {
			if errors.Is(derr, io.EOF) || errors.Is(derr, astits.ErrNoMorePackets) {
				break
			}
			return 0, 0, 0, 0, fmt.Errorf("walking PAT/PMT: %w", derr)
		}
		if data.PMT == nil {
			continue
		}
		for _, es := range data.PMT.ElementaryStreams {
			switch es.StreamType {
			case astits.StreamTypeH264Video, astits.StreamTypeH265Video:
				if videoPID == 0 {
					videoPID, videoType = es.ElementaryPID, es.StreamType
				}
			case astits.StreamTypeAACAudio, astits.StreamTypeAC3Audio,
				astits.StreamTypeMPEG1Audio, astits.StreamTypeMPEG2Audio:
				if audioPID == 0 {
					audioPID, audioType = es.ElementaryPID, es.StreamType
				}
			}
		}
		if videoPID != 0 && audioPID != 0 {
			break
		}
	}
	return videoPID, audioPID, videoType, audioType, nil
}

// packetBuffer is an unbounded FIFO of decoded packets, fed by the
// mediacommon reader's callbacks (invoked synchronously from Read, which
// Input runs on its own goroutine) and drained by ReadPacket.
type packetBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*cutengine.Packet
	closed bool
	err    error
}

func newPacketBuffer() *packetBuffer {
	b := &packetBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *packetBuffer) push(p *cutengine.Packet) {
	b.mu.Lock()
	b.items = append(b.items, p)
	b.mu.Unlock()
	b.cond.Signal()
}

func (b *packetBuffer) closeWith(err error) {
	b.mu.Lock()
	b.closed = true
	b.err = err
	b.mu.Unlock()
	b.cond.Broadcast()
}

func (b *packetBuffer) pop() (*cutengine.Packet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.items) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.items) == 0 {
		if b.err != nil {
			return nil, b.err
		}
		return nil, io.EOF
	}
	p := b.items[0]
	b.items = b.items[1:]
	return p, nil
}

// Input is the mpegts container.Input implementation.
type Input struct {
	Log *slog.Logger

	meta   cutengine.SessionMetadata
	buf    *packetBuffer
	pr     *io.PipeReader
	pw     *io.PipeWriter
	reader *mpegts.Reader

	// pendingVideo/pendingAudio hold the most recently decoded packet of
	// each stream, not yet pushed to buf: mediacommon's callbacks hand us a
	// PTS/DTS but no duration, so each packet's duration is only knowable
	// once the next same-stream packet's PTS arrives.
	pendingVideo *cutengine.Packet
	pendingAudio *cutengine.Packet
}

// Open discovers the input's video/audio streams (via astits), then starts
// a mediacommon mpegts.Reader over the file's bytes, fed through an
// io.Pipe, with per-codec callbacks converting access units into owned
// cutengine.Packets.
func (in *Input) Open(path string) error {
	log := in.Log
	if log == nil {
		log = slog.Default()
	}

	videoPID, audioPID, _, _, err := discoverStreams(path)
	if err != nil {
		return cutengine.NewWorkerError("demuxer", cutengine.ErrStreamInfoFailed, err)
	}
	if videoPID == 0 || audioPID == 0 {
		return cutengine.NewWorkerError("demuxer", cutengine.ErrMissingStream,
			fmt.Errorf("need one video and one audio stream, found video_pid=%d audio_pid=%d", videoPID, audioPID))
	}

	f, err := os.Open(path)
	if err != nil {
		return cutengine.NewWorkerError("demuxer", cutengine.ErrInputOpenFailed, err)
	}

	in.buf = newPacketBuffer()
	in.pr, in.pw = io.Pipe()
	in.reader = &mpegts.Reader{R: in.pr}

	// The byte feed and the reader's own Initialize (which blocks reading
	// until it has seen PAT/PMT) must run concurrently: Initialize can't
	// return until bytes start flowing through the pipe.
	go func() {
		if _, err := io.Copy(in.pw, f); err != nil {
			in.pw.CloseWithError(err)
		}
	}()

	initErr := make(chan error, 1)
	go in.runReader(f, initErr)

	if err := <-initErr; err != nil {
		return err
	}

	log.Debug("mpegts input opened",
		slog.Int("video_pid", int(in.meta.Video.StreamID)),
		slog.Int("audio_pid", int(in.meta.Audio.StreamID)))
	return nil
}

// runReader initializes the mediacommon reader (discovering tracks and
// wiring per-codec callbacks), reports the outcome on initErr, then loops
// Read until the pipe closes, pushing decoded packets into in.buf.
func (in *Input) runReader(f *os.File, initErr chan<- error) {
	defer f.Close()
	defer in.pw.Close()

	if err := in.reader.Initialize(); err != nil {
		initErr <- cutengine.NewWorkerError("demuxer", cutengine.ErrStreamInfoFailed, err)
		return
	}

	var videoTrack, audioTrack *mpegts.Track
	var videoCodecName, audioCodecName string
	for _, track := range in.reader.Tracks() {
		switch codec := track.Codec.(type) {
		case *mpegts.CodecH264:
			videoTrack, videoCodecName = track, "h264"
			in.reader.OnDataH264(track, func(pts, dts int64, au [][]byte) error {
				return in.onVideoAU(h264.IsRandomAccess(au), pts, dts, au)
			})
		case *mpegts.CodecH265:
			videoTrack, videoCodecName = track, "h265"
			in.reader.OnDataH265(track, func(pts, dts int64, au [][]byte) error {
				return in.onVideoAU(h265.IsRandomAccess(au), pts, dts, au)
			})
		case *mpegts.CodecMPEG4Audio:
			audioTrack, audioCodecName = track, "aac"
			in.reader.OnDataMPEG4Audio(track, func(pts int64, aus [][]byte) error {
				return in.onAudioAUs(pts, aus)
			})
			_ = codec
		case *mpegts.CodecAC3:
			audioTrack, audioCodecName = track, "ac3"
			in.reader.OnDataAC3(track, func(pts int64, frame []byte) error {
				return in.onAudioAUs(pts, [][]byte{frame})
			})
		}
	}
	if videoTrack == nil || audioTrack == nil {
		initErr <- cutengine.NewWorkerError("demuxer", cutengine.ErrMissingStream,
			fmt.Errorf("mediacommon did not resolve both tracks (video=%v audio=%v)", videoTrack != nil, audioTrack != nil))
		return
	}

	in.meta = cutengine.SessionMetadata{
		Video: cutengine.StreamMetadata{Kind: cutengine.StreamVideo, StreamID: int(videoTrack.PID), TimeBase: timeBase90k, StartTime: cutengine.PTSUnset, CodecName: videoCodecName},
		Audio: cutengine.StreamMetadata{Kind: cutengine.StreamAudio, StreamID: int(audioTrack.PID), TimeBase: timeBase90k, StartTime: cutengine.PTSUnset, CodecName: audioCodecName},
	}
	initErr <- nil

	for {
		if err := in.reader.Read(); err != nil {
			in.flushPending()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				in.buf.closeWith(io.EOF)
			} else {
				in.buf.closeWith(cutengine.NewWorkerError("demuxer", cutengine.ErrDecodeFailed, err))
			}
			return
		}
	}
}

// flushPending pushes any packet still held back for duration look-ahead.
// The very last packet of each stream never gets a successor to derive a
// duration from, so it is pushed with whatever duration it already carries
// (zero, from NewPacket).
func (in *Input) flushPending() {
	if in.pendingVideo != nil {
		in.buf.push(in.pendingVideo)
		in.pendingVideo = nil
	}
	if in.pendingAudio != nil {
		in.buf.push(in.pendingAudio)
		in.pendingAudio = nil
	}
}

func (in *Input) onVideoAU(isKey bool, pts, dts int64, au [][]byte) error {
	payload, err := h264.AnnexB(au).Marshal()
	if err != nil || len(payload) == 0 {
		return nil
	}
	var flags cutengine.PacketFlags
	if isKey {
		flags |= cutengine.FlagKey
	}
	p := cutengine.NewPacket(int(in.videoStreamID()), pts, dts, 0, flags, payload)
	if in.pendingVideo != nil {
		in.pendingVideo.Duration = pts - in.pendingVideo.PTS
		in.buf.push(in.pendingVideo)
	}
	in.pendingVideo = p
	return nil
}

func (in *Input) onAudioAUs(pts int64, aus [][]byte) error {
	for i, au := range aus {
		if len(au) == 0 {
			continue
		}
		p := cutengine.NewPacket(int(in.audioStreamID()), pts, pts, 0, 0, au)
		if i < len(aus)-1 {
			// Interior frames of one batch share mediacommon's single
			// per-call timestamp, so there's no per-frame spacing to derive
			// a duration from; push them immediately as before.
			in.buf.push(p)
			continue
		}
		if in.pendingAudio != nil {
			in.pendingAudio.Duration = pts - in.pendingAudio.PTS
			in.buf.push(in.pendingAudio)
		}
		in.pendingAudio = p
	}
	return nil
}

func (in *Input) videoStreamID() int { return in.meta.Video.StreamID }
func (in *Input) audioStreamID() int { return in.meta.Audio.StreamID }

// Metadata returns the discovered session metadata.
func (in *Input) Metadata() cutengine.SessionMetadata { return in.meta }

// ReadPacket returns the next decoded packet, or io.EOF.
func (in *Input) ReadPacket() (*cutengine.Packet, error) {
	return in.buf.pop()
}

// Close releases the pipe reader.
func (in *Input) Close() error {
	if in.pr != nil {
		return in.pr.Close()
	}
	return nil
}
