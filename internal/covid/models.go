package covid

import (
	"time"
)

// SourceMode tells the normalizer where a raw table's dates come from.
type SourceMode int

const (
	// MultiSnapshot tables were read from many dated files; every row carries
	// the date parsed from its file name.
	MultiSnapshot SourceMode = iota
	// SingleSnapshot tables were read from the fallback file; every row is
	// stamped with the configured reference date.
	SingleSnapshot
	// RowStamped tables carry no file-level date; each row's last-update
	// value is used instead.
	RowStamped
)

func (m SourceMode) String() string {
	switch m {
	case MultiSnapshot:
		return "multi-snapshot"
	case SingleSnapshot:
		return "single-snapshot"
	case RowStamped:
		return "row-stamped"
	default:
		return "unknown"
	}
}

// RawRow is one line of a snapshot file before normalization.
// Nil counts mean the cell was empty, malformed, or the column was absent.
type RawRow struct {
	Country   string
	SubRegion string

	Confirmed *int64
	Deaths    *int64
	Recovered *int64
	Active    *int64

	LastUpdate   string
	SnapshotDate time.Time // zero in RowStamped tables
	SourceFile   string
}

// RawTable is the unified output of a snapshot source.
type RawTable struct {
	Mode SourceMode
	// Regional is set when at least one input carried a sub-region column;
	// rows are then summed to country granularity.
	Regional bool
	Rows     []RawRow
}

// Record is the canonical per-location, per-date unit every view is built from.
type Record struct {
	Location       string  `json:"location"`
	ISOCode        string  `json:"iso_code"`
	Date           ISOTime `json:"date"`
	TotalCases     int64   `json:"total_cases"`
	NewCases       int64   `json:"new_cases"`
	TotalDeaths    int64   `json:"total_deaths"`
	NewDeaths      int64   `json:"new_deaths"`
	TotalRecovered *int64  `json:"total_recovered"`
	ActiveCases    *int64  `json:"active_cases"`
	Population     *int64  `json:"population"`
}

// GlobalStats sums the latest record of every location.
type GlobalStats struct {
	TotalCases     int64    `json:"total_cases"`
	TotalDeaths    int64    `json:"total_deaths"`
	TotalRecovered int64    `json:"total_recovered"`
	ActiveCases    int64    `json:"active_cases"`
	NewCases       int64    `json:"new_cases"`
	NewDeaths      int64    `json:"new_deaths"`
	CountriesCount int      `json:"countries_count"`
	LastUpdate     *ISOTime `json:"last_update"`
}

// Timeline is the trailing window of one location's history.
type Timeline struct {
	Country string   `json:"country"`
	Data    []Record `json:"data"`
	Days    int      `json:"days"`
	// Temporal is false when the window holds a single snapshot date.
	Temporal bool `json:"temporal"`
}

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Country     string  `json:"country"`
	TotalCases  int64   `json:"total_cases"`
	TotalDeaths int64   `json:"total_deaths"`
	Value       *int64  `json:"value"`
	LastUpdate  ISOTime `json:"last_update"`
}

// Series is one location's entry in a comparison.
type Series struct {
	Location       string    `json:"location"`
	Dates          []ISOTime `json:"dates"`
	Values         []int64   `json:"values"`
	TotalCases     int64     `json:"total_cases"`
	TotalDeaths    int64     `json:"total_deaths"`
	TotalRecovered *int64    `json:"total_recovered"`
	ActiveCases    *int64    `json:"active_cases"`
}

// Comparison aligns the requested locations' series, keyed by the name
// the caller asked for.
type Comparison struct {
	Countries          []string          `json:"countries"`
	Metric             Metric            `json:"metric"`
	Series             map[string]Series `json:"comparison"`
	CountriesFound     int               `json:"countries_found"`
	CountriesRequested int               `json:"countries_requested"`
}

// ISOTime renders as an extended ISO-8601 timestamp without zone,
// e.g. 2021-01-01T00:00:00.
type ISOTime struct {
	time.Time
}

const isoLayout = "2006-01-02T15:04:05"

func NewISOTime(t time.Time) ISOTime {
	return ISOTime{Time: t}
}

func (t ISOTime) String() string {
	return t.Format(isoLayout)
}

func (t ISOTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(isoLayout) + `"`), nil
}

func (t *ISOTime) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(`"`+isoLayout+`"`, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
