package cutengine

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	meta    SessionMetadata
	packets []*Packet
	pos     int
	openErr error
}

func (f *fakeInput) Open(path string) error { return f.openErr }
func (f *fakeInput) Metadata() SessionMetadata {
	return f.meta
}
func (f *fakeInput) ReadPacket() (*Packet, error) {
	if f.pos >= len(f.packets) {
		return nil, io.EOF
	}
	p := f.packets[f.pos]
	f.pos++
	return p, nil
}
func (f *fakeInput) Close() error { return nil }

func drainQueue(q *SegmentQueue) []*Segment {
	var out []*Segment
	for {
		seg, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, seg)
	}
}

func TestDemuxer_Run_SplitsOnVideoKeyframes(t *testing.T) {
	input := &fakeInput{
		meta: SessionMetadata{
			Video: StreamMetadata{StreamID: 1, TimeBase: Rational{1, 1000}},
			Audio: StreamMetadata{StreamID: 2, TimeBase: Rational{1, 1000}},
		},
		packets: []*Packet{
			NewPacket(1, 0, 0, 33, FlagKey, []byte("v0")),
			NewPacket(2, 0, 0, 40, 0, []byte("a0")),
			NewPacket(1, 33, 33, 33, 0, []byte("v1")),
			NewPacket(1, 66, 66, 33, FlagKey, []byte("v2")), // triggers flush of v0,v1
			NewPacket(2, 40, 40, 40, 0, []byte("a1")),
		},
	}

	videoQueue := NewQueue[*Segment, *SessionMetadata](4)
	audioQueue := NewQueue[*Segment, *SessionMetadata](4)
	d := &Demuxer{Input: input, VideoQueue: videoQueue, AudioQueue: audioQueue}

	err := d.Run("fixture")
	require.NoError(t, err)

	videoSegs := drainQueue(videoQueue)
	audioSegs := drainQueue(audioQueue)

	require.Len(t, videoSegs, 2)
	assert.Len(t, videoSegs[0].Packets, 2) // v0, v1
	assert.Len(t, videoSegs[1].Packets, 1) // v2, flushed at EOF

	// a0 flushes alongside the v0/v1 segment (triggered by v2's keyframe);
	// a1 only flushes at EOF alongside v2's segment.
	require.Len(t, audioSegs, 2)
	assert.Len(t, audioSegs[0].Packets, 1)
	assert.Len(t, audioSegs[1].Packets, 1)
}

func TestDemuxer_Run_PropagatesOpenError(t *testing.T) {
	input := &fakeInput{openErr: errors.New("no such file")}
	videoQueue := NewQueue[*Segment, *SessionMetadata](4)
	audioQueue := NewQueue[*Segment, *SessionMetadata](4)
	d := &Demuxer{Input: input, VideoQueue: videoQueue, AudioQueue: audioQueue}

	err := d.Run("missing")
	require.Error(t, err)

	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrInputOpenFailed, werr.Kind)

	_, ok := videoQueue.Pop()
	assert.False(t, ok, "queues must be marked done even on open failure")
}
