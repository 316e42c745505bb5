package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/i474232898/covid-data-aggregation/internal/common"
	"github.com/i474232898/covid-data-aggregation/internal/covid"
	"github.com/i474232898/covid-data-aggregation/internal/metrics"
)

// snapshotExtensions are the file suffixes treated as tabular snapshots.
var snapshotExtensions = []string{".csv"}

// filenameDateLayouts are tried in order against a file name without its
// extension.
var filenameDateLayouts = []string{"01-02-2006", "2006-01-02"}

// DirectoryConfig configures a Directory source.
type DirectoryConfig struct {
	// Dir holds dated snapshot files named MM-DD-YYYY.csv or YYYY-MM-DD.csv.
	Dir string
	// FallbackFile is read when Dir yields nothing.
	FallbackFile string
	// ReferenceDate stamps every fallback row. When zero, fallback rows are
	// dated by their own last-update column.
	ReferenceDate time.Time

	Logger *slog.Logger
}

// Directory implements covid.Source over a directory of dated snapshot
// files with a single-file fallback.
type Directory struct {
	cfg    DirectoryConfig
	logger *slog.Logger
}

// NewDirectory creates a new Directory source.
func NewDirectory(cfg DirectoryConfig) *Directory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		cfg:    cfg,
		logger: logger.With("component", "snapshot-loader"),
	}
}

// Load reads every dated snapshot in the directory, or the fallback file
// when no dated snapshot could be read. It returns covid.ErrNoData when
// neither yields a table.
func (d *Directory) Load(ctx context.Context) (covid.RawTable, error) {
	start := time.Now()
	defer func() {
		metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}()

	table, err := d.loadSnapshots(ctx)
	if err == nil {
		metrics.SourceLoads.WithLabelValues(table.Mode.String()).Inc()
		return table, nil
	}
	if !errors.Is(err, covid.ErrNoData) {
		return covid.RawTable{}, err
	}

	d.logger.Info("no dated snapshots available; falling back to single file",
		"dir", d.cfg.Dir, "file", d.cfg.FallbackFile)

	table, err = d.loadFallback()
	if err != nil {
		d.logger.Error("no snapshot source available", "error", err)
		return covid.RawTable{}, err
	}
	metrics.SourceLoads.WithLabelValues(table.Mode.String()).Inc()
	return table, nil
}

// loadSnapshots reads the directory's snapshot files in lexicographic name
// order. Files whose name carries no date or whose content cannot be read
// are logged and skipped.
func (d *Directory) loadSnapshots(ctx context.Context) (covid.RawTable, error) {
	if d.cfg.Dir == "" {
		return covid.RawTable{}, covid.ErrNoData
	}

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(d.cfg.Dir)
	if err != nil {
		d.logger.Warn("snapshot directory not readable", "dir", d.cfg.Dir, "error", err)
		return covid.RawTable{}, covid.ErrNoData
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !common.HasAnySuffix(e.Name(), snapshotExtensions...) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		d.logger.Warn("no snapshot files found", "dir", d.cfg.Dir)
		return covid.RawTable{}, covid.ErrNoData
	}
	d.logger.Debug("snapshot files found", "dir", d.cfg.Dir, "count", len(names))

	table := covid.RawTable{Mode: covid.MultiSnapshot}
	parsed := 0

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return covid.RawTable{}, err
		}

		date, ok := SnapshotDate(name)
		if !ok {
			d.skip(&covid.UnparseableFileError{File: name, Reason: "no date in file name"})
			continue
		}

		sh, err := readSheetFile(filepath.Join(d.cfg.Dir, name))
		if err != nil {
			d.skip(&covid.UnparseableFileError{File: name, Reason: "read", Err: err})
			continue
		}

		for _, r := range sh.rows {
			r.SnapshotDate = date
			r.SourceFile = name
			table.Rows = append(table.Rows, r)
		}
		table.Regional = table.Regional || sh.regional
		parsed++
		metrics.SnapshotFilesLoaded.Inc()
	}

	if parsed == 0 {
		return covid.RawTable{}, covid.ErrNoData
	}

	d.logger.Info("snapshot files combined",
		"files", parsed, "skipped", len(names)-parsed, "rows", len(table.Rows))
	return table, nil
}

// loadFallback reads the single fallback file.
func (d *Directory) loadFallback() (covid.RawTable, error) {
	if d.cfg.FallbackFile == "" {
		return covid.RawTable{}, fmt.Errorf("%w: no fallback file configured", covid.ErrNoData)
	}

	sh, err := readSheetFile(d.cfg.FallbackFile)
	if err != nil {
		return covid.RawTable{}, fmt.Errorf("%w: %v", covid.ErrNoData, &covid.UnparseableFileError{
			File:   d.cfg.FallbackFile,
			Reason: "read",
			Err:    err,
		})
	}

	table := covid.RawTable{
		Mode:     covid.SingleSnapshot,
		Regional: sh.regional,
		Rows:     sh.rows,
	}
	if d.cfg.ReferenceDate.IsZero() {
		table.Mode = covid.RowStamped
	}

	name := filepath.Base(d.cfg.FallbackFile)
	for i := range table.Rows {
		table.Rows[i].SnapshotDate = d.cfg.ReferenceDate
		table.Rows[i].SourceFile = name
	}

	d.logger.Info("single snapshot file loaded",
		"file", d.cfg.FallbackFile, "rows", len(table.Rows), "mode", table.Mode.String())
	return table, nil
}

func (d *Directory) skip(err *covid.UnparseableFileError) {
	metrics.SnapshotFilesSkipped.WithLabelValues(err.Reason).Inc()
	d.logger.Warn("skipping snapshot file", "file", err.File, "error", err)
}

// SnapshotDate extracts the date encoded in a snapshot file name, trying
// MM-DD-YYYY before YYYY-MM-DD.
func SnapshotDate(filename string) (time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	for _, layout := range filenameDateLayouts {
		if t, err := time.Parse(layout, base); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
