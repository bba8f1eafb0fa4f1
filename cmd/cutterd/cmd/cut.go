package cmd

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/finnhorvath/cutterd/internal/container/mpegts"
	"github.com/finnhorvath/cutterd/internal/cutengine"
	"github.com/finnhorvath/cutterd/internal/progress"
	"github.com/finnhorvath/cutterd/internal/reencode"
	"github.com/finnhorvath/cutterd/pkg/cutlist"
)

var (
	cutInput   string
	cutOutput  string
	cutListArg string
	cutQuality int
	cutReencode bool
)

// cutCmd implements the library's render() entry point end to end: decode a
// cut list, open an MPEG-TS input and output, and run the pipeline.
var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Cut a media file against a cut list",
	RunE:  runCut,
}

func init() {
	cutCmd.Flags().StringVarP(&cutInput, "input", "i", "", "input MPEG-TS path (required)")
	cutCmd.Flags().StringVarP(&cutOutput, "output", "o", "", "output MPEG-TS path (required)")
	cutCmd.Flags().StringVar(&cutListArg, "cutlist", "", "cut list path, JSON or binary (required)")
	cutCmd.Flags().IntVarP(&cutQuality, "quality", "q", 23, "quality knob forwarded to the re-encoder")
	cutCmd.Flags().BoolVar(&cutReencode, "reencode", false, "re-encode straddled GOPs instead of using DISCARD flags")
	cutCmd.MarkFlagRequired("input")
	cutCmd.MarkFlagRequired("output")
	cutCmd.MarkFlagRequired("cutlist")

	rootCmd.AddCommand(cutCmd)
}

func runCut(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	cfg := loadedConfig

	cutengine.Init(cfg.Logging.Level)

	cl, err := loadCutList(cutListArg)
	if err != nil {
		return fmt.Errorf("loading cut list: %w", err)
	}

	input := &mpegts.Input{Log: logger}
	output := &mpegts.Output{Log: logger}

	reporter := progress.NewReporter(ulid.Monotonic(rand.Reader, 0), func(runID, stage string, fraction float64) {
		logger.Info("progress", slog.String("run_id", runID), slog.String("stage", stage), slog.Float64("fraction", fraction))
	})

	quality := cutQuality
	if !cmd.Flags().Changed("quality") {
		quality = cfg.Pipeline.Quality
	}

	var reencoder cutengine.KeyframeReencoder = cutengine.DiscardOnly{}
	reencodeEnabled := cutReencode || cfg.Render.Reencode
	if reencodeEnabled {
		reencoder = reencode.NewFFmpegReencoder(cfg.Render.FFmpegPath, cfg.Render.ReencodeTimeout)
	}

	opts := cutengine.RenderOptions{
		InputPath:     cutInput,
		OutputPath:    cutOutput,
		CutList:       cl,
		Quality:       quality,
		QueueCapacity: cfg.Pipeline.QueueCapacity,
		Reencoder:     reencoder,
		OnProgress:    reporter.Report,
		OnError: func(message string) {
			logger.Warn("worker error", slog.String("message", message))
		},
		Log: logger,
	}

	start := time.Now()
	result, err := cutengine.Render(input, output, opts)
	if err != nil {
		return fmt.Errorf("cutting %s: %w", cutInput, err)
	}

	logger.Info("cut complete",
		slog.String("input", cutInput),
		slog.String("output", cutOutput),
		slog.Bool("wrote_trailer", result.WroteTrailer),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func loadCutList(path string) (cutengine.CutList, error) {
	f, err := os.Open(path)
	if err != nil {
		return cutengine.CutList{}, err
	}
	defer f.Close()

	if isJSONCutList(path) {
		return cutlist.DecodeJSON(f)
	}
	return cutlist.DecodeBinary(f)
}

func isJSONCutList(path string) bool {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:] == ".json"
		}
		if path[i] == '/' {
			break
		}
	}
	return false
}
