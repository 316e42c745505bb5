package covid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	table RawTable
	err   error
	loads int
}

func (s *countingSource) Load(ctx context.Context) (RawTable, error) {
	s.loads++
	return s.table, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceGlobalStats(t *testing.T) {
	svc := NewService(StaticSource{Table: europe()}, quietLogger())

	stats, err := svc.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300000), stats.TotalCases)
	assert.Equal(t, 3, stats.CountriesCount)

	countries, err := svc.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "Germany", "Italy"}, countries)
}

func TestServiceReloadsOnEveryQuery(t *testing.T) {
	src := &countingSource{table: europe()}
	svc := NewService(src, quietLogger())

	_, err := svc.Latest(context.Background())
	require.NoError(t, err)
	_, err = svc.Dates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.loads)
}

func TestServiceEmptySourceIsNoData(t *testing.T) {
	svc := NewService(StaticSource{}, quietLogger())

	_, err := svc.GlobalStats(context.Background())
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestServiceFilteredOutTableIsNoData(t *testing.T) {
	svc := NewService(StaticSource{Table: RawTable{
		Mode: RowStamped,
		Rows: []RawRow{
			{Country: "Nauru", Confirmed: n(0), LastUpdate: "2021-01-01"},
			{Country: "Tuvalu", LastUpdate: "2021-01-01"},
		},
	}}, quietLogger())

	_, err := svc.Countries(context.Background())
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestServiceRejectsMetricBeforeLoading(t *testing.T) {
	src := &countingSource{table: europe()}
	svc := NewService(src, quietLogger())

	_, err := svc.Top(context.Background(), 5, "deaths")
	assert.True(t, errors.Is(err, ErrInvalidMetric))

	_, err = svc.Compare(context.Background(), []string{"France"}, "")
	assert.True(t, errors.Is(err, ErrInvalidMetric))

	assert.Zero(t, src.loads)
}

func TestServicePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewService(&countingSource{err: boom}, quietLogger())

	_, err := svc.Timeline(context.Background(), "France", 7)
	assert.ErrorIs(t, err, boom)
}

func TestServiceTimelineNotFound(t *testing.T) {
	svc := NewService(StaticSource{Table: europe()}, nil)

	_, err := svc.Timeline(context.Background(), "Narnia", 7)
	assert.ErrorIs(t, err, ErrNotFound)
}
