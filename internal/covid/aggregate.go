package covid

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Table is a canonical table sorted by (location, date) ascending. Only
// Normalize constructs one, so every view below may rely on that order.
type Table struct {
	records []Record
}

// Len returns the number of canonical records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the canonical records in table order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Latest returns, per location, the last record of its date-ordered run.
// Locations come out in alphabetical order.
func (t *Table) Latest() []Record {
	var latest []Record
	for i, r := range t.records {
		if i+1 < len(t.records) && t.records[i+1].Location == r.Location {
			continue
		}
		latest = append(latest, r)
	}
	return latest
}

// GlobalStats sums the latest record of each location. LastUpdate is the
// maximum date over the whole table.
func (t *Table) GlobalStats() GlobalStats {
	var stats GlobalStats
	for _, r := range t.Latest() {
		stats.TotalCases += r.TotalCases
		stats.TotalDeaths += r.TotalDeaths
		stats.NewCases += r.NewCases
		stats.NewDeaths += r.NewDeaths
		stats.TotalRecovered += valueOrZero(r.TotalRecovered)
		stats.ActiveCases += valueOrZero(r.ActiveCases)
		stats.CountriesCount++
	}

	var last time.Time
	for _, r := range t.records {
		if r.Date.After(last) {
			last = r.Date.Time
		}
	}
	if !last.IsZero() {
		lu := NewISOTime(last)
		stats.LastUpdate = &lu
	}
	return stats
}

// Timeline returns the trailing days records for a location. The name is
// matched case-insensitively, first exactly and then as a substring; a
// substring hit may span several locations. days <= 0 returns the full
// history.
func (t *Table) Timeline(name string, days int) (Timeline, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Timeline{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	matched := t.filter(func(r Record) bool {
		return strings.ToLower(r.Location) == needle
	})
	if len(matched) == 0 {
		matched = t.filter(func(r Record) bool {
			return strings.Contains(strings.ToLower(r.Location), needle)
		})
	}
	if len(matched) == 0 {
		return Timeline{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date.Time)
	})
	if days > 0 && len(matched) > days {
		matched = matched[len(matched)-days:]
	}

	return Timeline{
		Country:  matched[0].Location,
		Data:     matched,
		Days:     len(matched),
		Temporal: distinctDates(matched) > 1,
	}, nil
}

// Top ranks the latest records by metric, descending. Records lacking an
// optional metric sort after every valued record. Ties keep alphabetical
// location order because the sort is stable over Latest.
func (t *Table) Top(limit int, metric string) ([]Ranked, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return nil, err
	}

	latest := t.Latest()
	sort.SliceStable(latest, func(i, j int) bool {
		vi, oki := m.Value(latest[i])
		vj, okj := m.Value(latest[j])
		if oki != okj {
			return oki
		}
		return vi > vj
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(latest) {
		latest = latest[:limit]
	}

	ranked := make([]Ranked, 0, len(latest))
	for _, r := range latest {
		entry := Ranked{
			Country:     r.Location,
			TotalCases:  r.TotalCases,
			TotalDeaths: r.TotalDeaths,
			LastUpdate:  r.Date,
		}
		if v, ok := m.Value(r); ok {
			entry.Value = &v
		}
		ranked = append(ranked, entry)
	}
	return ranked, nil
}

// Compare returns each requested location's full date series for metric.
// Only exact case-insensitive matches count; unmatched names are left out
// and show up as the gap between CountriesFound and CountriesRequested.
func (t *Table) Compare(locations []string, metric string) (Comparison, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		Countries:          locations,
		Metric:             m,
		Series:             make(map[string]Series),
		CountriesRequested: len(locations),
	}

	for _, name := range locations {
		needle := strings.ToLower(name)
		matched := t.filter(func(r Record) bool {
			return strings.ToLower(r.Location) == needle
		})
		if len(matched) == 0 {
			continue
		}

		s := Series{
			Location: matched[0].Location,
			Dates:    make([]ISOTime, 0, len(matched)),
			Values:   make([]int64, 0, len(matched)),
		}
		for _, r := range matched {
			v, _ := m.Value(r)
			s.Dates = append(s.Dates, r.Date)
			s.Values = append(s.Values, v)
		}
		last := matched[len(matched)-1]
		s.TotalCases = last.TotalCases
		s.TotalDeaths = last.TotalDeaths
		s.TotalRecovered = last.TotalRecovered
		s.ActiveCases = last.ActiveCases

		cmp.Series[name] = s
	}
	cmp.CountriesFound = len(cmp.Series)

	return cmp, nil
}

// Countries lists every location in the table, including ones missing
// from the latest snapshot, alphabetically.
func (t *Table) Countries() []string {
	countries := []string{}
	for i, r := range t.records {
		if i > 0 && t.records[i-1].Location == r.Location {
			continue
		}
		countries = append(countries, r.Location)
	}
	sort.Strings(countries)
	return countries
}

// Dates lists the distinct snapshot dates, ascending.
func (t *Table) Dates() []ISOTime {
	seen := make(map[time.Time]struct{})
	dates := []ISOTime{}
	for _, r := range t.records {
		if _, ok := seen[r.Date.Time]; ok {
			continue
		}
		seen[r.Date.Time] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j].Time)
	})
	return dates
}

// Between returns the records dated within [from, to]. A zero bound is open.
func (t *Table) Between(from, to time.Time) []Record {
	return t.filter(func(r Record) bool {
		if !from.IsZero() && r.Date.Before(from) {
			return false
		}
		if !to.IsZero() && r.Date.After(to) {
			return false
		}
		return true
	})
}

func (t *Table) filter(keep func(Record) bool) []Record {
	out := []Record{}
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func distinctDates(records []Record) int {
	seen := make(map[time.Time]struct{})
	for _, r := range records {
		seen[r.Date.Time] = struct{}{}
	}
	return len(seen)
}
