package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/cache"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/classify"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/config"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/display/widgets"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/internal/format"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/monitor"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/terminate"
)

// buildEngine assembles the sampling pipeline from the loaded config:
// fetcher, classifier with its bounded description cache, the refresh
// engine, and the terminator.
func buildEngine(cfg *config.Config, filterText string, logger *slog.Logger) (*monitor.Engine, *terminate.Terminator) {
	fetcher := procsnap.NewFetcher(logger)

	descCache := cache.NewBounded[string, string](cfg.Cache.DescriptionCapacity)
	classifier := classify.NewClassifier(classify.DefaultTables(), descCache, logger)

	sortKey := sortgroup.KeyCPU
	if cfg.Display.SortKey == "memory" {
		sortKey = sortgroup.KeyMemory
	}

	engine := monitor.New(fetcher, classifier, monitor.Options{
		SortKey:         sortKey,
		SortDescending:  cfg.Display.SortDescending,
		FilterText:      filterText,
		SmoothingWindow: cfg.Monitor.SmoothingWindow,
		HistorySamples:  cfg.Monitor.HistorySamples,
	}, logger)

	var helper terminate.Helper
	if cfg.Terminate.UseHelper {
		helper = privilegedHelper
	}
	terminator := terminate.New(helper, logger)

	return engine, terminator
}

// privilegedHelper is the privileged-signal boundary. No helper daemon
// ships yet, so it reports unavailable and the UI surfaces the
// permission failure honestly.
func privilegedHelper(ctx context.Context, pid int32, sig syscall.Signal) (terminate.HelperCode, error) {
	return terminate.HelperUnavailable, nil
}

// iconWarmBudget caps how many bundles one publication may probe.
const iconWarmBudget = 24

// warmIcons resolves application icons for the records in a publication
// so later lookups hit the cache. Records come sorted, so the budget
// lands on the processes actually on screen; the cache remembers misses,
// so icon-less bundles are not re-probed on the next publication.
func warmIcons(ctx context.Context, icons *cache.IconCache, records []procsnap.ProcessRecord) {
	probed := 0
	for i := range records {
		if ctx.Err() != nil || probed >= iconWarmBudget {
			return
		}
		rec := &records[i]
		if _, ok := procsnap.BundleRoot(rec.ExecutablePath); !ok {
			continue
		}
		probed++
		_, _ = icons.Icon(ctx, rec.ExecutablePath)
	}
}

// runSampling drives the engine: a short warmup burst of rapid samples
// so smoothed figures appear quickly, then steady-interval refreshes
// until ctx ends.
func runSampling(ctx context.Context, cfg *config.Config, engine *monitor.Engine, logger *slog.Logger) {
	warmupInterval, _ := cfg.WarmupInterval()
	refreshInterval, _ := cfg.RefreshInterval()

	for i := 0; i < cfg.Monitor.WarmupSamples; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(warmupInterval):
		}
		if err := engine.Refresh(ctx); err != nil {
			logger.Warn("warmup refresh failed", "error", err)
		}
	}

	logger.Debug("warmup complete, entering steady sampling", "interval", refreshInterval)
	engine.Run(ctx, refreshInterval)
}

// renderOnce takes two samples a valid interval apart so CPU figures are
// meaningful, then renders the publication as a plain table sized to the
// terminal.
func renderOnce(ctx context.Context, engine *monitor.Engine) (string, error) {
	if err := engine.Refresh(ctx); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	if err := engine.Refresh(ctx); err != nil {
		return "", err
	}

	pub, ok := engine.Latest()
	if !ok {
		return "", fmt.Errorf("no snapshot produced")
	}

	width, _ := detectTerminalSize()

	tbl := widgets.DefaultTableConfig()
	tbl.MaxWidth = width
	tbl.Columns = []widgets.Column{
		{Title: "PID", Align: widgets.AlignRight},
		{Title: "NAME"},
		{Title: "CPU%", Align: widgets.AlignRight},
		{Title: "MEM", Align: widgets.AlignRight},
		{Title: "USER"},
		{Title: "DESCRIPTION"},
	}
	for _, rec := range pub.Records {
		tbl.Rows = append(tbl.Rows, []string{
			strconv.FormatInt(int64(rec.PID), 10),
			rec.Name,
			fmt.Sprintf("%.1f", rec.CPUPercent),
			format.FormatMemory(rec.MemoryMB),
			rec.User,
			rec.Description,
		})
	}

	summary := fmt.Sprintf("%d processes  cpu user %s sys %s idle %s  mem pressure %s",
		len(pub.Records),
		format.FormatPercent(pub.CPU.User),
		format.FormatPercent(pub.CPU.System),
		format.FormatPercent(pub.CPU.Idle),
		format.FormatPercent(pub.Memory.Pressure*100),
	)

	return widgets.RenderTable(tbl) + "\n\n" + summary, nil
}

// detectTerminalSize returns the current terminal dimensions.
// It attempts TTY detection first via the term package, then falls back
// to COLUMNS/LINES environment variables, and finally to 80x24 defaults.
func detectTerminalSize() (width, height int) {
	w, h, err := term.GetSize(os.Stdout.Fd())
	if err == nil && w > 0 && h > 0 {
		return w, h
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			width = w
		}
	}
	if lines := os.Getenv("LINES"); lines != "" {
		if h, err := strconv.Atoi(lines); err == nil && h > 0 {
			height = h
		}
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	return width, height
}
