// Package reencode implements the alternative to the DISCARD-based path for
// a GOP straddled by a cut boundary: instead of leaving packets tagged
// DISCARD/DISPOSABLE for the muxer, shell out to ffmpeg and re-encode the
// GOP's kept span at the requested quality. It is opt-in; the primary,
// lossless path never imports this package's Reencoder into a running
// Cutter unless a caller explicitly wires one in.
package reencode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

// FFmpegReencoder shells out to a detected ffmpeg binary to re-encode a
// straddled GOP's packets. The binary path is detected once and cached,
// following the teacher's binary-detector style.
type FFmpegReencoder struct {
	Timeout time.Duration

	once       sync.Once
	resolved   string
	resolveErr error
	override   string
}

// NewFFmpegReencoder builds a reencoder. binaryPath overrides auto-detection
// via PATH lookup when non-empty.
func NewFFmpegReencoder(binaryPath string, timeout time.Duration) *FFmpegReencoder {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &FFmpegReencoder{Timeout: timeout, override: binaryPath}
}

func (r *FFmpegReencoder) binary() (string, error) {
	r.once.Do(func() {
		if r.override != "" {
			r.resolved = r.override
			return
		}
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			r.resolveErr = fmt.Errorf("ffmpeg not found on PATH: %w", err)
			return
		}
		r.resolved = path
	})
	return r.resolved, r.resolveErr
}

// Reencode re-encodes packets (their payloads concatenated and read by
// ffmpeg as raw H.264) with libx264 at quality (a CRF value) and returns the
// whole output as a single keyframe packet carrying the first input packet's
// PTS/DTS and a duration spanning all input packets. The output is not split
// back into the original packet boundaries. Only the DISCARD-flagged run is
// passed in; kept packets are passed through unchanged by the caller.
func (r *FFmpegReencoder) Reencode(packets []*cutengine.Packet, quality int) ([]*cutengine.Packet, error) {
	bin, err := r.binary()
	if err != nil {
		return nil, cutengine.NewWorkerError("reencode", cutengine.ErrEncodeFailed, err)
	}

	var raw bytes.Buffer
	for _, p := range packets {
		raw.Write(p.Payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"-f", "h264", "-i", "pipe:0",
		"-c:v", "libx264", "-crf", fmt.Sprintf("%d", quality),
		"-f", "h264", "pipe:1",
	)
	cmd.Stdin = bytes.NewReader(raw.Bytes())

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, cutengine.NewWorkerError("reencode", cutengine.ErrEncodeFailed, err)
	}

	encoded := cutengine.NewPacket(packets[0].StreamID, packets[0].PTS, packets[0].DTS, packets[len(packets)-1].PTS+packets[len(packets)-1].Duration-packets[0].PTS, cutengine.FlagKey, out.Bytes())
	return []*cutengine.Packet{encoded}, nil
}

var _ cutengine.KeyframeReencoder = (*FFmpegReencoder)(nil)
