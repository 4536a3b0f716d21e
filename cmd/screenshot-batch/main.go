package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/app"
	"github.com/joseph-ayodele/screenwiper/internal/async"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
	"github.com/joseph-ayodele/screenwiper/internal/export"
	"github.com/joseph-ayodele/screenwiper/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of screenshots to triage (required)")
		out        = flag.String("out", "", "output XLSX file path (defaults to <dir>/../screenshots.xlsx)")
		watch      = flag.Bool("watch", false, "keep watching dir and triage new screenshots as they land")
		hidden     = flag.Bool("hidden", false, "include hidden files and directories")
		category   = flag.String("category", "", "comma-separated categories to export ("+strings.Join(constants.AsStringSlice(), ", ")+" or 1-3); failures are always kept")
		configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	cats, err := parseCategories(*category)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "screenshots.xlsx")
	}

	logger := app.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("config.load.failed", "error", err)
		os.Exit(1)
	}
	cfg.Acquire.AllowFileRefs = true

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("app.init.failed", "error", err)
		os.Exit(1)
	}
	exporter := export.NewService(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		if err := runWatch(ctx, a, exporter, *dir, *out, !*hidden, cats); err != nil {
			logger.Error("watch.failed", "error", err)
			os.Exit(1)
		}
		return
	}

	files, stats, err := ingest.ScanDirectory(ctx, *dir, !*hidden)
	if err != nil {
		logger.Error("scan.failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("scan.complete",
		"dir", *dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	start := time.Now()
	results := a.Processor.ProcessBatch(ctx, ingest.Refs(files))
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}

	if err := writeXLSX(exporter, *out, export.FilterByCategory(results, cats...)); err != nil {
		logger.Error("export.failed", "out", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch.complete",
		"images", len(results),
		"failures", failures,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Screenshots: %d\n", len(results))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

// runWatch triages every screenshot that appears under dir, rewriting the
// workbook after each result, until ctx is cancelled.
func runWatch(ctx context.Context, a *app.App, exporter *export.Service, dir, out string, skipHidden bool, cats []constants.CategoryID) error {
	logger := slog.Default()

	var mu sync.Mutex
	var results []entity.ImageResult
	var q async.Queue = async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(a.Config.Pipeline.Workers),
		async.WithQueueSize(a.Config.Pipeline.QueueSize),
		async.WithProcessTimeout(a.Config.Pipeline.ProcessTimeout),
		async.WithResultHandler(func(_ async.Job, r entity.ImageResult) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
			if err := writeXLSX(exporter, out, export.FilterByCategory(results, cats...)); err != nil {
				logger.Error("export.failed", "out", out, "error", err)
			}
		}),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		SkipHidden:  skipHidden,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		q.Shutdown(context.Background())
		return err
	}

	seen := newSeenFiles()
loop:
	for {
		select {
		case path, ok := <-events:
			if !ok {
				break loop
			}
			fresh, err := seen.observe(path)
			if err != nil {
				logger.Warn("watch.stat.failed", "path", path, "error", err)
				continue
			}
			if !fresh {
				continue
			}
			job := async.Job{Ref: ingest.RefForPath(path), TraceID: common.NewRequestID()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("watch.enqueue.failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watch.error", "error", err)
			} else {
				errs = nil
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Pipeline.ProcessTimeout)
	defer cancel()
	q.Shutdown(shutdownCtx)
	return nil
}

// seenFiles remembers the modtime each watched path was last queued at, so a
// rewrite of the same name is analyzed again while duplicate events are not.
type seenFiles map[string]time.Time

func newSeenFiles() seenFiles { return seenFiles{} }

func (s seenFiles) observe(path string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mod := st.ModTime()
	if last, ok := s[path]; ok && last.Equal(mod) {
		return false, nil
	}
	s[path] = mod
	return true, nil
}

// parseCategories resolves the -category flag; empty means every category.
func parseCategories(raw string) ([]constants.CategoryID, error) {
	var cats []constants.CategoryID
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		cat, ok := constants.Canonicalize(part)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (want one of %s)", part, strings.Join(constants.AsStringSlice(), ", "))
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func writeXLSX(exporter *export.Service, path string, results []entity.ImageResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.WriteResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
