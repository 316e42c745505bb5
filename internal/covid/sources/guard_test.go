package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/covid-data-aggregation/internal/covid"
)

type flakySource struct {
	err   error
	calls int
}

func (s *flakySource) Load(ctx context.Context) (covid.RawTable, error) {
	s.calls++
	if s.err != nil {
		return covid.RawTable{}, s.err
	}
	return covid.RawTable{Mode: covid.RowStamped, Rows: []covid.RawRow{{Country: "Peru"}}}, nil
}

func TestGuardedPassesThrough(t *testing.T) {
	g := NewGuarded(&flakySource{}, GuardConfig{Logger: quietLogger()})

	table, err := g.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "closed", g.State())
}

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	src := &flakySource{err: errors.New("permission denied")}
	g := NewGuarded(src, GuardConfig{MaxFailures: 2, OpenTimeout: time.Minute, Logger: quietLogger()})

	for i := 0; i < 2; i++ {
		_, err := g.Load(context.Background())
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Load(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, src.calls)
}

func TestGuardedIgnoresMissingData(t *testing.T) {
	src := &flakySource{err: covid.ErrNoData}
	g := NewGuarded(src, GuardConfig{MaxFailures: 1, Logger: quietLogger()})

	for i := 0; i < 3; i++ {
		_, err := g.Load(context.Background())
		assert.ErrorIs(t, err, covid.ErrNoData)
	}
	assert.Equal(t, "closed", g.State())
	assert.Equal(t, 3, src.calls)
}
