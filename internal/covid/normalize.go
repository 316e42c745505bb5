package covid

import (
	"sort"
	"strings"
	"time"
)

// unknownISOCode is assigned to rows without a location.
const unknownISOCode = "UNK"

var lastUpdateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// row is the working shape between raw input and canonical records.
type row struct {
	location   string
	date       time.Time
	lastUpdate string

	totalCases  *int64
	totalDeaths *int64
	recovered   *int64
	active      *int64

	newCases  int64
	newDeaths int64
}

// Normalize maps a raw table onto the canonical schema. It is a pure
// function of its input: identical raw tables yield identical tables.
//
// The result is sorted by (location, date) ascending; the latest-per-location
// views depend on that order.
func Normalize(raw RawTable) *Table {
	rows := collapseRegions(raw)
	rows = resolveDates(rows, raw)

	deriveIncrements(rows)

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		if r.location == "" || r.totalCases == nil || *r.totalCases <= 0 {
			continue
		}
		records = append(records, Record{
			Location:       r.location,
			ISOCode:        ISOCode(r.location),
			Date:           NewISOTime(r.date),
			TotalCases:     *r.totalCases,
			NewCases:       r.newCases,
			TotalDeaths:    valueOrZero(r.totalDeaths),
			NewDeaths:      r.newDeaths,
			TotalRecovered: copyCount(r.recovered),
			ActiveCases:    copyCount(r.active),
		})
	}

	return &Table{records: records}
}

// collapseRegions sums sub-national rows per (country, snapshot date). The
// first last-update value seen in a group is kept. Tables without a
// sub-region column pass through unchanged.
func collapseRegions(raw RawTable) []row {
	if !raw.Regional {
		rows := make([]row, 0, len(raw.Rows))
		for _, rr := range raw.Rows {
			rows = append(rows, row{
				location:    rr.Country,
				date:        rr.SnapshotDate,
				lastUpdate:  rr.LastUpdate,
				totalCases:  rr.Confirmed,
				totalDeaths: rr.Deaths,
				recovered:   rr.Recovered,
				active:      rr.Active,
			})
		}
		return rows
	}

	type groupKey struct {
		country string
		date    time.Time
	}

	index := make(map[groupKey]int)
	var rows []row
	for _, rr := range raw.Rows {
		key := groupKey{country: rr.Country, date: rr.SnapshotDate}
		i, ok := index[key]
		if !ok {
			index[key] = len(rows)
			rows = append(rows, row{
				location:    rr.Country,
				date:        rr.SnapshotDate,
				lastUpdate:  rr.LastUpdate,
				totalCases:  copyCount(rr.Confirmed),
				totalDeaths: copyCount(rr.Deaths),
				recovered:   copyCount(rr.Recovered),
				active:      copyCount(rr.Active),
			})
			continue
		}

		g := &rows[i]
		g.totalCases = addCounts(g.totalCases, rr.Confirmed)
		g.totalDeaths = addCounts(g.totalDeaths, rr.Deaths)
		g.recovered = addCounts(g.recovered, rr.Recovered)
		g.active = addCounts(g.active, rr.Active)
	}
	return rows
}

// resolveDates sets each row's canonical date according to the table's
// source mode and drops rows whose date cannot be determined.
func resolveDates(rows []row, raw RawTable) []row {
	out := rows[:0]
	for _, r := range rows {
		switch raw.Mode {
		case MultiSnapshot, SingleSnapshot:
			// Already carries the file-level date.
		case RowStamped:
			r.date = ParseLastUpdate(r.lastUpdate)
		}
		if r.date.IsZero() {
			continue
		}
		r.date = r.date.UTC()
		out = append(out, r)
	}
	return out
}

// deriveIncrements fills new_cases and new_deaths as the clamped first
// difference of the cumulative counts within each location. With a single
// distinct date every increment stays zero.
func deriveIncrements(rows []row) {
	dates := make(map[time.Time]struct{})
	for _, r := range rows {
		dates[r.date] = struct{}{}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].location != rows[j].location {
			return rows[i].location < rows[j].location
		}
		return rows[i].date.Before(rows[j].date)
	})

	if len(dates) <= 1 {
		return
	}

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], &rows[i]
		if prev.location != cur.location {
			continue
		}
		cur.newCases = clampedDelta(prev.totalCases, cur.totalCases)
		cur.newDeaths = clampedDelta(prev.totalDeaths, cur.totalDeaths)
	}
}

// ISOCode derives a three letter code from a location name. It is not an
// ISO-3166 lookup: "United States" yields "UNI".
func ISOCode(location string) string {
	if location == "" {
		return unknownISOCode
	}
	code := []rune(strings.ToUpper(strings.ReplaceAll(location, " ", "")))
	if len(code) > 3 {
		code = code[:3]
	}
	return string(code)
}

// ParseLastUpdate accepts the timestamp renderings used by the daily report
// files over time. It returns the zero time when nothing matches.
func ParseLastUpdate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range lastUpdateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func clampedDelta(prev, cur *int64) int64 {
	if prev == nil || cur == nil {
		return 0
	}
	d := *cur - *prev
	if d < 0 {
		return 0
	}
	return d
}

func addCounts(a, b *int64) *int64 {
	if b == nil {
		return a
	}
	if a == nil {
		return copyCount(b)
	}
	sum := *a + *b
	return &sum
}

func copyCount(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func valueOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
