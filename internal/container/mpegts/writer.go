package mpegts

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

const (
	tsVideoPID uint16 = 0x0100
	tsAudioPID uint16 = 0x0101
)

// Output is the mpegts container.Output implementation.
type Output struct {
	Log *slog.Logger

	f      *os.File
	writer *mpegts.Writer
	video  *mpegts.Track
	audio  *mpegts.Track
	meta   cutengine.SessionMetadata
}

// Create opens path and writes an output whose video/audio tracks are chosen
// from meta's CodecName values only. No other codec parameters are copied
// from meta: an AAC or AC-3 output track is always declared as 48 kHz
// stereo, whatever the input's own parameters were.
func (out *Output) Create(path string, meta cutengine.SessionMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return cutengine.NewWorkerError("muxer", cutengine.ErrOutputOpenFailed, err)
	}

	out.meta = meta
	out.video = &mpegts.Track{PID: tsVideoPID, Codec: videoCodec(meta.Video.CodecName)}
	out.audio = &mpegts.Track{PID: tsAudioPID, Codec: audioCodec(meta.Audio.CodecName)}

	out.writer = &mpegts.Writer{W: f, Tracks: []*mpegts.Track{out.video, out.audio}}
	if err := out.writer.Initialize(); err != nil {
		f.Close()
		return cutengine.NewWorkerError("muxer", cutengine.ErrStreamCreateFailed, err)
	}
	if err := out.writer.WriteTables(); err != nil {
		f.Close()
		return cutengine.NewWorkerError("muxer", cutengine.ErrHeaderWriteFailed, err)
	}

	out.f = f
	return nil
}

func videoCodec(name string) mpegts.Codec {
	if name == "h265" || name == "hevc" {
		return &mpegts.CodecH265{}
	}
	return &mpegts.CodecH264{}
}

func audioCodec(name string) mpegts.Codec {
	switch name {
	case "ac3":
		return &mpegts.CodecAC3{SampleRate: 48000, ChannelCount: 2}
	default:
		return &mpegts.CodecMPEG4Audio{Config: mpeg4audio.AudioSpecificConfig{
			Type:         mpeg4audio.ObjectTypeAACLC,
			SampleRate:   48000,
			ChannelCount: 2,
		}}
	}
}

// WriteSegment writes every non-DISPOSABLE packet in seg to the matching
// output track.
func (out *Output) WriteSegment(seg *cutengine.Segment) error {
	for _, p := range seg.Packets {
		if p.Flags.Has(cutengine.FlagDisposable) {
			continue
		}
		var err error
		switch seg.Stream {
		case cutengine.StreamVideo:
			err = out.writeVideo(p)
		case cutengine.StreamAudio:
			err = out.writeAudio(p)
		}
		if err != nil {
			return cutengine.NewWorkerError("muxer", cutengine.ErrPacketWriteFailed, err)
		}
	}
	return nil
}

func (out *Output) writeVideo(p *cutengine.Packet) error {
	au, err := dataToAccessUnit(p.Payload)
	if err != nil {
		return fmt.Errorf("splitting access unit: %w", err)
	}
	pts := p.PTS
	if !p.HasPTS() {
		pts = p.DTS
	}
	switch out.video.Codec.(type) {
	case *mpegts.CodecH265:
		return out.writer.WriteH265(out.video, pts, p.DTS, au)
	default:
		return out.writer.WriteH264(out.video, pts, p.DTS, au)
	}
}

func (out *Output) writeAudio(p *cutengine.Packet) error {
	pts := p.PTS
	if !p.HasPTS() {
		pts = p.DTS
	}
	switch out.audio.Codec.(type) {
	case *mpegts.CodecAC3:
		return out.writer.WriteAC3(out.audio, pts, p.Payload)
	default:
		return out.writer.WriteMPEG4Audio(out.audio, pts, [][]byte{p.Payload})
	}
}

// dataToAccessUnit splits an Annex B buffer into individual NAL units,
// falling back to treating the whole buffer as a single NAL unit when it
// carries no start codes (the teacher's reorderNALUnits/dataToAccessUnit
// pattern, reduced to the single responsibility this adapter needs).
func dataToAccessUnit(data []byte) ([][]byte, error) {
	if bytes.Contains(data, []byte{0, 0, 0, 1}) || bytes.Contains(data, []byte{0, 0, 1}) {
		var au h264.AnnexB
		if err := au.Unmarshal(data); err != nil {
			return [][]byte{data}, nil
		}
		return au, nil
	}
	return [][]byte{data}, nil
}

// Close closes the underlying file. It writes nothing further; the tables
// were written once by Create.
func (out *Output) Close() error {
	if out.f == nil {
		return nil
	}
	return out.f.Close()
}
