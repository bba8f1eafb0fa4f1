// Package container defines the narrow contracts the cut-engine pipeline
// needs from a concrete container/codec I/O adapter. The pipeline treats
// demux/mux I/O as an external collaborator; internal/container/mpegts
// supplies the one built-in implementation, over MPEG-TS.
package container

import "github.com/finnhorvath/cutterd/internal/cutengine"

// Input discovers and reads the one video and one audio elementary stream
// of an input container, handing ownership of each packet to the caller.
type Input interface {
	// Open opens path and discovers streams. Returns cutengine.ErrMissingStream
	// if fewer than one video or one audio stream is present.
	Open(path string) error
	// Metadata returns the selected streams' parameters. Valid only after
	// Open returns nil.
	Metadata() cutengine.SessionMetadata
	// ReadPacket returns the next packet belonging to either selected
	// stream, in container order, or io.EOF once the input is exhausted.
	// Packets belonging to any other stream are dropped internally and
	// never returned.
	ReadPacket() (*cutengine.Packet, error)
	// Close releases the input's resources.
	Close() error
}

// Output creates an output container from a SessionMetadata published by
// the join queue and writes segments into it in the order they're handed
// to WriteSegment.
type Output interface {
	// Create allocates the output container at path and writes its header
	// once meta's two streams have been used to create matching output
	// streams with codec_tag reset to 0 (letting the container choose the
	// appropriate tag) and time bases copied verbatim.
	Create(path string, meta cutengine.SessionMetadata) error
	// WriteSegment writes every non-disposable packet in seg, interleaved
	// by the container's own DTS-ordered scheduler. It does not release the
	// packets; the Muxer releases each one after WriteSegment returns.
	WriteSegment(seg *cutengine.Segment) error
	// Close writes the trailer and closes the output. Safe to call at most
	// once; a Muxer that never received a SessionMetadata must not call
	// Close (there is nothing to finalize).
	Close() error
}
