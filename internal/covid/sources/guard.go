package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/covid-data-aggregation/internal/covid"
)

var (
	// ErrCircuitOpen is returned while repeated load failures keep the
	// source's circuit breaker open.
	ErrCircuitOpen = errors.New("snapshot source circuit breaker open")

	errUnexpectedResult = errors.New("unexpected result type from circuit breaker")
)

// GuardConfig bundles circuit breaker settings.
type GuardConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial load.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// Guarded wraps a covid.Source in a circuit breaker. Missing data is an
// expected state and never counts as a failure.
type Guarded struct {
	source  covid.Source
	circuit *gobreaker.CircuitBreaker
}

// NewGuarded creates a new Guarded source.
func NewGuarded(source covid.Source, cfg GuardConfig) *Guarded {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "snapshots"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, covid.ErrNoData) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("snapshot source circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Guarded{
		source:  source,
		circuit: cb,
	}
}

func (g *Guarded) Load(ctx context.Context) (covid.RawTable, error) {
	result, err := g.circuit.Execute(func() (interface{}, error) {
		return g.source.Load(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return covid.RawTable{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return covid.RawTable{}, err
	}

	table, ok := result.(covid.RawTable)
	if !ok {
		return covid.RawTable{}, errUnexpectedResult
	}
	return table, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guarded) State() string {
	return g.circuit.State().String()
}
