package covid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/covid-data-aggregation/internal/metrics"
)

// Service answers aggregate queries. It holds no data between calls: each
// query loads the source, normalizes it and computes one view.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger,
	}
}

// Table loads and normalizes the current snapshot files. A table that is
// empty after filtering is reported as ErrNoData.
func (s *Service) Table(ctx context.Context) (*Table, error) {
	start := time.Now()

	raw, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	table := Normalize(raw)
	metrics.CanonicalRecords.Set(float64(table.Len()))

	s.logger.Debug("covid: normalized snapshot data",
		"mode", raw.Mode.String(),
		"regional", raw.Regional,
		"raw_rows", len(raw.Rows),
		"records", table.Len(),
		"countries", len(table.Countries()),
		"dates", len(table.Dates()),
		"duration", time.Since(start),
	)

	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: every row was filtered out", ErrNoData)
	}
	return table, nil
}

// GlobalStats sums the latest snapshot of every location.
func (s *Service) GlobalStats(ctx context.Context) (GlobalStats, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return GlobalStats{}, err
	}
	return t.GlobalStats(), nil
}

// Latest returns the latest record for every location.
func (s *Service) Latest(ctx context.Context) ([]Record, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Latest(), nil
}

// Countries lists every known location.
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Countries(), nil
}

// Timeline returns the trailing history for a location.
func (s *Service) Timeline(ctx context.Context, name string, days int) (Timeline, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return Timeline{}, err
	}
	return t.Timeline(name, days)
}

// Top ranks locations by metric. The metric is checked before any file is
// read.
func (s *Service) Top(ctx context.Context, limit int, metric string) ([]Ranked, error) {
	if _, err := ParseMetric(metric); err != nil {
		return nil, err
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Top(limit, metric)
}

// Compare aligns the series of several locations for metric.
func (s *Service) Compare(ctx context.Context, locations []string, metric string) (Comparison, error) {
	if _, err := ParseMetric(metric); err != nil {
		return Comparison{}, err
	}
	t, err := s.Table(ctx)
	if err != nil {
		return Comparison{}, err
	}
	return t.Compare(locations, metric)
}

// Dates lists the distinct snapshot dates.
func (s *Service) Dates(ctx context.Context) ([]ISOTime, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Dates(), nil
}

// Between returns records within an inclusive date window.
func (s *Service) Between(ctx context.Context, from, to time.Time) ([]Record, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Between(from, to), nil
}
