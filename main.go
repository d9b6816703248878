package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/invisicam-go/app"
	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/debug"
	"github.com/soocke/invisicam-go/ui/desktop"
)

type runOptions struct {
	configPath string
	debug      bool
	preset     string
	exportDir  string
	headless   bool
	duration   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "invisicam",
		Short: "Invisibility cloak: chroma-key the screen over a captured background and record it",
		Long: `invisicam captures a background frame, then replaces every pixel of the
selected color with that background in real time. Takes can be paused and
resumed and are exported as a single Motion-JPEG file.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "config file")
	f.BoolVar(&opts.debug, "debug", false, "debug logging and runtime stats")
	f.StringVarP(&opts.preset, "preset", "p", "", "color to make invisible (green, blue, red, orange, pink, purple, yellow, custom)")
	f.StringVarP(&opts.exportDir, "out", "o", "", "directory for exported videos")
	f.BoolVar(&opts.headless, "headless", false, "record one take without a window")
	f.DurationVarP(&opts.duration, "duration", "d", 10*time.Second, "take length in headless mode")
	return cmd
}

func run(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, loadErr := config.Load(opts.configPath)
	if opts.debug {
		cfg.Debug = true
	}
	if opts.preset != "" {
		cfg.Preset = opts.preset
	}
	if opts.exportDir != "" {
		cfg.ExportDir = opts.exportDir
	}
	_ = cfg.Validate()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if loadErr != nil {
		logger.Warn("config load failed, using defaults", "path", opts.configPath, "error", loadErr)
	}
	ensureConfigFile(cfg, opts.configPath, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := app.BuildContainer(cfg, opts.configPath, logger, app.ContainerOptions{NoPreview: opts.headless})
	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 10*time.Second, logger)
		debug.StartMemLogger(ctx, 10*time.Second, logger)
		debug.StartStatsLogger(ctx, 5*time.Second, "pipeline.stats", c.PipelineAttrs, logger)
	}
	if w, err := config.Watch(opts.configPath, c.ApplyConfig, logger); err != nil {
		logger.Warn("config hot reload disabled", "path", opts.configPath, "error", err)
	} else {
		defer w.Close()
	}

	if opts.headless {
		path, err := app.RunHeadless(ctx, c, opts.duration)
		if err != nil {
			return fmt.Errorf("headless take: %w", err)
		}
		fmt.Println(path)
		return nil
	}
	desktop.NewDesktop("Invisibility Cloak", 960, 760, c).Start(ctx)
	return nil
}

// ensureConfigFile writes the defaults on first run so the file can be edited
// and watched.
func ensureConfigFile(cfg *config.Config, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := cfg.Save(path); err != nil {
		logger.Warn("could not create config file", "path", path, "error", err)
	}
}
