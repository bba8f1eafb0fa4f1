package cutengine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	createErr error
	writeErr  error
	closeErr  error

	created bool
	closed  bool
	written []*Segment
}

func (f *fakeOutput) Create(path string, meta SessionMetadata) error {
	f.created = true
	return f.createErr
}
func (f *fakeOutput) WriteSegment(seg *Segment) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, seg)
	return nil
}
func (f *fakeOutput) Close() error {
	f.closed = true
	return f.closeErr
}

func TestMuxer_Run_WritesSegmentsAndTrailer(t *testing.T) {
	join := NewQueue[*Segment, *SessionMetadata](4)
	id := join.RegisterProducer()
	session := &SessionMetadata{Video: StreamMetadata{StreamID: 1}}
	join.SetSpecial(session)

	seg1 := &Segment{Stream: StreamVideo, Packets: []*Packet{NewPacket(1, 0, 0, 33, FlagKey, nil)}}
	seg2 := &Segment{Stream: StreamAudio, Packets: []*Packet{NewPacket(2, 0, 0, 40, 0, nil)}}
	join.Push(seg1)
	join.Push(seg2)
	join.MarkDone(id)

	out := &fakeOutput{}
	m := &Muxer{Output: out, Join: join}

	require.NoError(t, m.Run("fixture-out"))
	assert.True(t, out.created)
	assert.True(t, out.closed)
	assert.True(t, m.WroteTrailer)
	require.Len(t, out.written, 2)
	assert.Same(t, seg1, out.written[0])
	assert.Same(t, seg2, out.written[1])
}

func TestMuxer_Run_ReleasesPacketsAfterWrite(t *testing.T) {
	join := NewQueue[*Segment, *SessionMetadata](4)
	id := join.RegisterProducer()
	session := &SessionMetadata{}
	join.SetSpecial(session)

	var released int
	p := NewPacket(1, 0, 0, 33, FlagKey, nil).WithRelease(func() { released++ })
	join.Push(&Segment{Stream: StreamVideo, Packets: []*Packet{p}})
	join.MarkDone(id)

	out := &fakeOutput{}
	m := &Muxer{Output: out, Join: join}

	require.NoError(t, m.Run("fixture-out"))
	assert.Equal(t, 1, released, "a packet must be released exactly once it has been written")
}

func TestMuxer_Run_NoMetadataIsNoOp(t *testing.T) {
	join := NewQueue[*Segment, *SessionMetadata](4)
	id := join.RegisterProducer()
	join.MarkDone(id) // done without ever calling SetSpecial

	out := &fakeOutput{}
	m := &Muxer{Output: out, Join: join}

	require.NoError(t, m.Run("fixture-out"))
	assert.False(t, out.created)
	assert.False(t, m.WroteTrailer)
}

func TestMuxer_Run_PropagatesWriteFailure(t *testing.T) {
	join := NewQueue[*Segment, *SessionMetadata](4)
	id := join.RegisterProducer()
	session := &SessionMetadata{}
	join.SetSpecial(session)
	join.Push(&Segment{Stream: StreamVideo, Packets: []*Packet{NewPacket(1, 0, 0, 33, FlagKey, nil)}})
	join.MarkDone(id)

	out := &fakeOutput{writeErr: errors.New("disk full")}
	m := &Muxer{Output: out, Join: join}

	err := m.Run("fixture-out")
	require.Error(t, err)

	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrPacketWriteFailed, werr.Kind)
	assert.False(t, m.WroteTrailer)
}
