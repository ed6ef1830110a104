// Command analyze runs the water-balance pipeline once over the configured
// input files: load the five series, align them on date, fit descriptive
// trends, evaluate the two-epoch mass balance, and print the report with
// its dry-up verdict. Optional artifacts: chart PNGs, a Prometheus
// textfile, and a SQLite history entry.
//
// Configuration comes from the environment (see internal/config); the
// artifact flags override their CHART_DIR, METRICS_FILE, and HISTORY_DB
// counterparts.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/lake-balance/internal/config"
	"github.com/couchcryptid/lake-balance/internal/history"
	"github.com/couchcryptid/lake-balance/internal/observability"
	"github.com/couchcryptid/lake-balance/internal/pipeline"
	"github.com/couchcryptid/lake-balance/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	chartDir := flag.String("charts", cfg.ChartDir, "directory for figure PNGs (empty disables)")
	metricsFile := flag.String("metrics-file", cfg.MetricsFile, "path for Prometheus textfile export (empty disables)")
	historyDB := flag.String("history-db", cfg.HistoryDB, "path to the SQLite assessment history (empty disables)")
	flag.Parse()

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if code := run(cfg, logger, metrics, *chartDir, *metricsFile, *historyDB); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics,
	chartDir, metricsFile, historyDB string) int {

	p := pipeline.New(pipeline.Sources(cfg), cfg.Basin(), logger, metrics)
	report, err := p.Run()
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		writeMetrics(metrics, metricsFile, logger, false)
		return 1
	}

	if err := report.WriteText(os.Stdout); err != nil {
		logger.Error("writing report", "error", err)
		return 1
	}

	if chartDir != "" {
		if err := writeCharts(cfg, report, chartDir); err != nil {
			logger.Error("writing charts", "error", err)
			return 1
		}
		logger.Info("charts written", "dir", chartDir)
	}

	if historyDB != "" {
		if err := saveHistory(report, historyDB); err != nil {
			logger.Error("saving history", "error", err)
			return 1
		}
		logger.Info("assessment saved", "db", historyDB)
	}

	writeMetrics(metrics, metricsFile, logger, true)
	return 0
}

func writeCharts(cfg *config.Config, report *pipeline.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var precipCol, levelCol string
	var dischargeCols []string
	for _, src := range pipeline.Sources(cfg) {
		switch src.Role {
		case pipeline.RolePrecipitation:
			precipCol = src.Column
		case pipeline.RoleLevel:
			levelCol = src.Column
		case pipeline.RoleDischarge:
			dischargeCols = append(dischargeCols, src.Column)
		}
	}

	overview := filepath.Join(dir, "overview.png")
	if err := render.Overview(report.Table, cfg.FigureTitle, overview, precipCol, levelCol, dischargeCols); err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	projection := filepath.Join(dir, "projection.png")
	if err := render.Projection(report.Table, report.Assessment, cfg.FigureTitle, projection, levelCol); err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	return nil
}

func saveHistory(report *pipeline.Report, path string) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Save(report.Assessment)
	return err
}

func writeMetrics(metrics *observability.Metrics, path string, logger *slog.Logger, success bool) {
	if path == "" {
		return
	}
	if success {
		metrics.RunSuccess.Set(1)
	}
	if err := metrics.WriteFile(path); err != nil {
		logger.Error("writing metrics file", "error", err)
	}
}
