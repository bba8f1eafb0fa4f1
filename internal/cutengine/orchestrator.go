package cutengine

import (
	"log/slog"
	"sync"
)

// ProgressFunc reports a worker's fractional completion, the Go analogue of
// the spec's progress_cb(stage, fraction). May be invoked concurrently from
// any worker; implementations must be safe to call from multiple goroutines
// or marshal internally (internal/progress.Reporter does the latter).
type ProgressFunc func(stage string, fraction float64)

// ErrorFunc receives the message of each worker-fatal error as the worker
// that raised it returns. Render additionally returns the first non-nil
// worker error.
type ErrorFunc func(message string)

// RenderOptions configures one Render invocation.
type RenderOptions struct {
	InputPath  string
	OutputPath string
	CutList    CutList
	Quality    int
	// QueueCapacity overrides DefaultQueueCapacity when > 0.
	QueueCapacity int
	Reencoder     KeyframeReencoder
	OnProgress    ProgressFunc
	OnError       ErrorFunc
	Log           *slog.Logger
}

// RenderResult reports whether the muxer successfully wrote a trailer, the
// signal the orchestrator's top-level return value is defined against.
type RenderResult struct {
	WroteTrailer bool
}

// Render constructs the queue fabric, spawns the four workers (demuxer,
// video cutter, audio cutter, muxer), and blocks until all four return. Any
// worker failure marks its output queues done early so downstream workers
// drain and exit rather than block forever; the orchestrator still joins
// every worker and returns the first error encountered, in worker order
// (demuxer, video, audio, muxer).
func Render(input Input, output Output, opts RenderOptions) (RenderResult, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	cutList := opts.CutList
	if err := cutList.Validate(); err != nil {
		return RenderResult{}, err
	}

	queueCap := opts.QueueCapacity
	videoQueue := NewQueue[*Segment, *SessionMetadata](queueCap)
	audioQueue := NewQueue[*Segment, *SessionMetadata](queueCap)
	joinQueue := NewQueue[*Segment, *SessionMetadata](queueCap)

	demuxer := &Demuxer{Input: input, VideoQueue: videoQueue, AudioQueue: audioQueue, Log: log}
	videoCutter := &Cutter{Kind: StreamVideo, Input: videoQueue, Output: joinQueue, CutList: cutList, Quality: opts.Quality, Reencoder: opts.Reencoder, Log: log}
	audioCutter := &Cutter{Kind: StreamAudio, Input: audioQueue, Output: joinQueue, CutList: cutList, Quality: opts.Quality, Reencoder: opts.Reencoder, Log: log}
	muxer := &Muxer{Output: output, Join: joinQueue, Log: log}

	var (
		wg                                   sync.WaitGroup
		demuxErr, videoErr, audioErr, muxErr error
	)

	report := func(stage string, fraction float64) {
		if opts.OnProgress != nil {
			opts.OnProgress(stage, fraction)
		}
	}
	reportErr := func(err error) {
		if err != nil && opts.OnError != nil {
			opts.OnError(err.Error())
		}
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		demuxErr = demuxer.Run(opts.InputPath)
		reportErr(demuxErr)
		report("demux", 1.0)
	}()
	go func() {
		defer wg.Done()
		videoErr = videoCutter.Run()
		reportErr(videoErr)
		report("video", 1.0)
	}()
	go func() {
		defer wg.Done()
		audioErr = audioCutter.Run()
		reportErr(audioErr)
		report("audio", 1.0)
	}()
	go func() {
		defer wg.Done()
		muxErr = muxer.Run(opts.OutputPath)
		reportErr(muxErr)
		report("join", 1.0)
	}()
	wg.Wait()

	result := RenderResult{WroteTrailer: muxer.WroteTrailer}

	for _, err := range []error{demuxErr, videoErr, audioErr, muxErr} {
		if err != nil {
			return result, err
		}
	}
	return result, nil
}
