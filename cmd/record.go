package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/audionode/internal/capture"
	"github.com/smazurov/audionode/internal/devices"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/pipeline"
	"github.com/smazurov/audionode/internal/source"
)

// CreateRecordCmd creates the record command.
func CreateRecordCmd() *cobra.Command {
	var device string
	var output string
	var duration time.Duration
	var mono bool
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture audio to a WAV file",
		Long: `Opens the selected capture device, negotiates hardware parameters and ` +
			`writes the captured audio to a WAV file until the duration elapses or an interrupt arrives.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("record")

			detector := devices.NewDetector()
			driver := capture.NewDriver(detector, capture.OpenDevice(detector), logger)

			hub := pipeline.NewHub("record", logger)

			src, err := driver.Create(source.Settings{Device: device, ForceMono: mono}, hub)
			if err != nil {
				logger.Error("Failed to create capture source", "error", err)
				os.Exit(1)
			}

			status := src.Status()
			if status.State != "running" {
				logger.Error("Capture did not start", "device", device, "error", status.LastError)
				_ = src.Close()
				os.Exit(1)
			}
			logger.Info("Capture started",
				"device", device,
				"rate", status.Rate,
				"channels", status.Channels)

			sink, err := pipeline.NewWAVSink(output, status.Rate, status.Channels)
			if err != nil {
				logger.Error("Failed to create WAV file", "path", output, "error", err)
				_ = src.Close()
				hub.Close()
				os.Exit(1)
			}
			if err := hub.Attach(sink); err != nil {
				logger.Error("Failed to attach WAV sink", "error", err)
				_ = sink.Close()
				_ = src.Close()
				hub.Close()
				os.Exit(1)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			select {
			case <-ctx.Done():
				logger.Info("Interrupted, stopping capture")
			case <-time.After(duration):
			}

			if err := src.Close(); err != nil {
				logger.Warn("Error closing capture source", "error", err)
			}
			hub.Close()
			frames := sink.FramesWritten()

			logger.Info("Recording finished",
				"path", output,
				"frames", frames,
				"seconds", float64(frames)/float64(status.Rate))
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", devices.DefaultSelector, "Capture device selector")
	cmd.Flags().StringVarP(&output, "output", "o", "capture.wav", "Output WAV file path")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to record")
	cmd.Flags().BoolVar(&mono, "mono", false, "Capture a single channel")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}
