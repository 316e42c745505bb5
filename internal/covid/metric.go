package covid

import (
	"fmt"
	"strings"
)

// Metric names a numeric canonical column.
type Metric string

const (
	MetricTotalCases     Metric = "total_cases"
	MetricNewCases       Metric = "new_cases"
	MetricTotalDeaths    Metric = "total_deaths"
	MetricNewDeaths      Metric = "new_deaths"
	MetricTotalRecovered Metric = "total_recovered"
	MetricActiveCases    Metric = "active_cases"
	MetricPopulation     Metric = "population"
)

// Metrics lists every metric accepted by rankings and comparisons.
var Metrics = []Metric{
	MetricTotalCases,
	MetricNewCases,
	MetricTotalDeaths,
	MetricNewDeaths,
	MetricTotalRecovered,
	MetricActiveCases,
	MetricPopulation,
}

// ParseMetric validates a metric name. Matching is exact.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidMetric, s, metricNames())
}

// Value reads the metric from a record. The second result is false when the
// record has no value for an optional column.
func (m Metric) Value(r Record) (int64, bool) {
	switch m {
	case MetricTotalCases:
		return r.TotalCases, true
	case MetricNewCases:
		return r.NewCases, true
	case MetricTotalDeaths:
		return r.TotalDeaths, true
	case MetricNewDeaths:
		return r.NewDeaths, true
	case MetricTotalRecovered:
		return deref(r.TotalRecovered)
	case MetricActiveCases:
		return deref(r.ActiveCases)
	case MetricPopulation:
		return deref(r.Population)
	}
	return 0, false
}

func deref(p *int64) (int64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func metricNames() string {
	names := make([]string, len(Metrics))
	for i, m := range Metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
