package cutengine

import (
	"errors"
	"io"
	"log/slog"

	"github.com/finnhorvath/cutterd/internal/observability"
)

// Input is the narrow demux contract the Demuxer worker drives. It is
// satisfied by internal/container.Input; defined again here (rather than
// importing internal/container) to keep cutengine free of a dependency on
// the concrete adapter package.
type Input interface {
	Open(path string) error
	Metadata() SessionMetadata
	ReadPacket() (*Packet, error)
	Close() error
}

// Demuxer reads one input container and publishes GOP-aligned Segments to
// the video and audio queues. It is the sole producer on both.
type Demuxer struct {
	Input      Input
	VideoQueue *SegmentQueue
	AudioQueue *SegmentQueue
	Log        *slog.Logger
}

// Run opens path, publishes stream metadata, and reads packets until EOF,
// flushing a video segment (and the pending audio segment alongside it) on
// every video keyframe. It always marks both output queues done before
// returning, even on error, so downstream workers drain rather than block
// forever.
func (d *Demuxer) Run(path string) error {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	log = observability.WithWorker(log, "demuxer")

	videoProducer := d.VideoQueue.RegisterProducer()
	audioProducer := d.AudioQueue.RegisterProducer()
	defer d.VideoQueue.MarkDone(videoProducer)
	defer d.AudioQueue.MarkDone(audioProducer)

	if err := d.Input.Open(path); err != nil {
		werr := NewWorkerError("demuxer", ErrInputOpenFailed, err)
		log.Error("open input failed", slog.Any("error", werr))
		return werr
	}
	defer d.Input.Close()

	meta := d.Input.Metadata()
	session := &meta
	d.VideoQueue.SetSpecial(session)
	d.AudioQueue.SetSpecial(session)
	log.Info("stream metadata published",
		slog.String("video_timebase", meta.Video.TimeBase.String()),
		slog.String("audio_timebase", meta.Audio.TimeBase.String()))

	var videoSeg, audioSeg []*Packet
	segments := 0

	flush := func() {
		if len(videoSeg) > 0 {
			d.VideoQueue.Push(&Segment{Stream: StreamVideo, Packets: videoSeg})
			videoSeg = nil
			segments++
		}
		if len(audioSeg) > 0 {
			d.AudioQueue.Push(&Segment{Stream: StreamAudio, Packets: audioSeg})
			audioSeg = nil
		}
	}

	for {
		pkt, err := d.Input.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			werr := NewWorkerError("demuxer", ErrStreamInfoFailed, err)
			log.Error("read packet failed", slog.Any("error", werr))
			return werr
		}

		owned := pkt.Clone()
		pkt.Release()

		switch owned.StreamID {
		case meta.Video.StreamID:
			if owned.Flags.Has(FlagKey) && len(videoSeg) > 0 {
				flush()
			}
			videoSeg = append(videoSeg, owned)
		case meta.Audio.StreamID:
			audioSeg = append(audioSeg, owned)
		default:
			// Belongs to neither selected stream; drop.
		}
	}

	flush()
	log.Info("demux complete", slog.Int("segments", segments))
	return nil
}
