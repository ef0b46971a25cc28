package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/audionode/cmd"
	"github.com/smazurov/audionode/internal/api"
	"github.com/smazurov/audionode/internal/capture"
	"github.com/smazurov/audionode/internal/config"
	"github.com/smazurov/audionode/internal/devices"
	"github.com/smazurov/audionode/internal/events"
	"github.com/smazurov/audionode/internal/led"
	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/metrics/exporters"
	"github.com/smazurov/audionode/internal/source"
	"github.com/smazurov/audionode/internal/sources"
	"github.com/smazurov/audionode/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Sources settings
	SourcesConfigFile string `help:"Source definitions file" default:"sources.toml" toml:"sources.config_file" env:"SOURCES_CONFIG_FILE"`

	// Metrics settings
	MetricsEnabled bool `help:"Expose Prometheus metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Enable LED control" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates" default:"smazurov/audionode" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prereleases when updating" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDevices  string `help:"Devices logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingCapture  string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingSources  string `help:"Sources logging level" default:"info" toml:"logging.sources" env:"LOGGING_SOURCES"`
	LoggingPipeline string `help:"Pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingUpdater  string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Create Huma CLI
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"devices":  opts.LoggingDevices,
				"capture":  opts.LoggingCapture,
				"sources":  opts.LoggingSources,
				"pipeline": opts.LoggingPipeline,
				"api":      opts.LoggingAPI,
				"updater":  opts.LoggingUpdater,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Bridge log entries onto the event bus for the SSE log stream
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Register the ALSA capture driver with the source registry
		detector := devices.NewDetector()
		source.Register(capture.NewDriver(detector, capture.OpenDevice(detector), logging.GetLogger("capture")))

		// Initialize LED control if enabled
		var ledManager *led.Manager
		var ledController led.Controller
		if opts.FeaturesLEDControl {
			logger.Info("LED control enabled, initializing")
			ledController = led.New(logger)
			ledManager = led.NewManager(ledController, eventBus, logger)
		}

		// Load persisted sources
		sourceStore := sources.NewStore(opts.SourcesConfigFile)
		if loadErr := sourceStore.Load(); loadErr != nil {
			logger.Warn("Failed to load sources configuration", "error", loadErr)
		}

		sourceService := sources.NewService(sourceStore, eventBus, logging.GetLogger("sources"))

		// Watch the sources file so external edits reconcile live pipelines
		watcher := config.NewConfigWatcher(
			sourceStore.Path(),
			sources.LoadFile,
			logging.GetLogger("sources"),
		)
		watcher.OnReload(func(cfgs map[string]sources.SourceConfig) {
			sourceService.Reconcile(cfgs)
		})

		// Self-update service
		updateService, updErr := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if updErr != nil {
			logger.Warn("Failed to initialize update service", "error", updErr)
		}

		apiOpts := &api.Options{
			AuthUsername:  opts.AuthUsername,
			AuthPassword:  opts.AuthPassword,
			SourceService: sourceService,
			EventBus:      eventBus,
			UpdateService: updateService,
		}

		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		if ledController != nil {
			apiOpts.LEDController = ledController
		}

		server := api.NewServer(apiOpts)

		hooks.OnStart(func() {
			// Start LED manager if enabled
			if ledManager != nil {
				ledManager.Start()
			}

			// Bring up autostart sources, then the sweep that feeds
			// events and metrics
			sourceService.StartConfigured(context.Background())
			sourceService.StartMonitoring()

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch sources file", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Tear down capture pipelines after the API stops accepting
			// new control requests
			sourceService.Close()

			if ledManager != nil {
				ledManager.Stop()
			}
		})
	})

	// Add devices command
	devicesCmd := cmd.CreateDevicesCmd()
	cli.Root().AddCommand(devicesCmd)

	// Add record command
	recordCmd := cmd.CreateRecordCmd()
	cli.Root().AddCommand(recordCmd)

	// Run the CLI
	cli.Run()
}
