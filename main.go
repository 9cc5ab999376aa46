// procpilot is a live process monitor for the terminal.
//
// It samples the OS process table, classifies each process against a
// curated dictionary and application-bundle metadata, converts cumulative
// CPU ticks into smoothed usage percentages, and surfaces the result
// either as an interactive Bubbletea TUI or a one-shot table.
//
// Usage:
//
//	procpilot [flags]
//
// Flags:
//
//	-config string    Path to configuration file (default: ~/.config/processpilot/config.yaml)
//	-once             Print one snapshot as a table and exit
//	-sort string      Sort column override (cpu|memory)
//	-asc              Sort ascending instead of descending
//	-group            Start in group-by-application mode
//	-filter string    Initial name/description filter
//	-verbose          Enable debug logging
//	-version          Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/cache"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/config"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/display/tui"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/monitor"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/terminate"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file (default: ~/.config/processpilot/config.yaml)")
		runOnce     = flag.Bool("once", false, "Print one snapshot as a table and exit")
		sortFlag    = flag.String("sort", "", "Sort column override (cpu|memory)")
		ascending   = flag.Bool("asc", false, "Sort ascending instead of descending")
		groupFlag   = flag.Bool("group", false, "Start in group-by-application mode")
		filterFlag  = flag.String("filter", "", "Initial name/description filter")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("procpilot %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	// ---------------------------------------------------------------
	// Load configuration
	// ---------------------------------------------------------------

	path := *configPath
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".config", "processpilot", "config.yaml")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *sortFlag != "" {
		cfg.Display.SortKey = *sortFlag
	}
	if *ascending {
		cfg.Display.SortDescending = false
	}
	if *groupFlag {
		cfg.Display.GroupByApp = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg, *verbose, *runOnce)

	// ---------------------------------------------------------------
	// Context with signal handling
	// ---------------------------------------------------------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// ---------------------------------------------------------------
	// Build the engine
	// ---------------------------------------------------------------

	engine, terminator := buildEngine(cfg, *filterFlag, logger)

	// ---------------------------------------------------------------
	// One-shot mode
	// ---------------------------------------------------------------

	if *runOnce {
		out, err := renderOnce(ctx, engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		os.Exit(0)
	}

	// ---------------------------------------------------------------
	// TUI mode
	// ---------------------------------------------------------------

	defer func() {
		if r := recover(); r != nil {
			// Attempt to restore terminal from alt-screen before printing error.
			fmt.Print("\x1b[?1049l\x1b[?25h")
			fmt.Fprintf(os.Stderr, "procpilot: TUI panic: %v\n", r)
			os.Exit(1)
		}
	}()

	sortKey := sortgroup.KeyCPU
	if cfg.Display.SortKey == "memory" {
		sortKey = sortgroup.KeyMemory
	}

	if err := runTUI(ctx, cfg, engine, terminator, sortKey, logger); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger assembles the slog logger from config and flags. One-shot
// mode keeps stderr clean unless -verbose is set.
func buildLogger(cfg *config.Config, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err == nil {
			if f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
				w = f
			}
		}
	} else if quiet && !verbose {
		w = io.Discard
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runTUI wires the engine into a Bubbletea program and blocks until the
// user quits or ctx ends.
func runTUI(ctx context.Context, cfg *config.Config, engine *monitor.Engine, terminator *terminate.Terminator, sortKey sortgroup.Key, logger *slog.Logger) error {
	model := tui.NewModel(engine, terminator, sortKey,
		cfg.Display.SortDescending, cfg.Display.GroupByApp, cfg.Terminate.ConfirmKill)

	p := tea.NewProgram(model, tea.WithAltScreen())

	sampleCtx, stopSampling := context.WithCancel(ctx)
	defer stopSampling()

	var icons *cache.IconCache
	if cfg.Display.ShowIcons {
		icons = cache.NewIconCache(cfg.Cache.IconCapacity, logger)
	}

	engine.OnPublish(func(pub monitor.Published) {
		p.Send(tui.PublishMsg(pub))
		if icons != nil {
			go warmIcons(sampleCtx, icons, pub.Records)
		}
	})
	go runSampling(sampleCtx, cfg, engine, logger)

	_, err := p.Run()
	return err
}
