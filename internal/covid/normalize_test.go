package covid

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(v int64) *int64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// europe is the three-country single-day fixture.
func europe() RawTable {
	return RawTable{
		Mode: RowStamped,
		Rows: []RawRow{
			{Country: "France", Confirmed: n(100000), Deaths: n(5000), Recovered: n(90000), Active: n(5000), LastUpdate: "2021-01-01"},
			{Country: "Germany", Confirmed: n(80000), Deaths: n(4000), Recovered: n(75000), Active: n(1000), LastUpdate: "2021-01-01"},
			{Country: "Italy", Confirmed: n(120000), Deaths: n(6000), Recovered: n(110000), Active: n(4000), LastUpdate: "2021-01-01"},
		},
	}
}

func dated(country string, date string, confirmed, deaths *int64) RawRow {
	return RawRow{Country: country, Confirmed: confirmed, Deaths: deaths, SnapshotDate: day(date)}
}

func TestNormalizeSingleDateHasNoIncrements(t *testing.T) {
	table := Normalize(europe())

	records := table.Records()
	require.Len(t, records, 3)

	for _, r := range records {
		assert.Zero(t, r.NewCases, r.Location)
		assert.Zero(t, r.NewDeaths, r.Location)
		assert.True(t, r.Date.Equal(day("2021-01-01")), r.Location)
		assert.Nil(t, r.Population)
	}
	assert.Equal(t, "France", records[0].Location)
	assert.Equal(t, "FRA", records[0].ISOCode)
	assert.Equal(t, "GER", records[1].ISOCode)
	assert.Equal(t, int64(75000), *records[1].TotalRecovered)
}

func TestNormalizeDerivesIncrements(t *testing.T) {
	raw := RawTable{
		Mode: MultiSnapshot,
		Rows: []RawRow{
			dated("France", "2021-01-02", n(150), n(12)),
			dated("France", "2021-01-01", n(100), n(10)),
			dated("Spain", "2021-01-01", n(40), n(1)),
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 3)

	assert.Equal(t, "France", records[0].Location)
	assert.True(t, records[0].Date.Equal(day("2021-01-01")))
	assert.Equal(t, int64(0), records[0].NewCases)
	assert.Equal(t, int64(150), records[1].TotalCases)
	assert.Equal(t, int64(50), records[1].NewCases)
	assert.Equal(t, int64(2), records[1].NewDeaths)

	// A location's first observation has no baseline.
	assert.Equal(t, "Spain", records[2].Location)
	assert.Equal(t, int64(0), records[2].NewCases)
}

func TestNormalizeClampsDownwardRevisions(t *testing.T) {
	raw := RawTable{
		Mode: MultiSnapshot,
		Rows: []RawRow{
			dated("Peru", "2021-01-01", n(150), n(20)),
			dated("Peru", "2021-01-02", n(120), n(15)),
			dated("Peru", "2021-01-03", n(130), n(15)),
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 3)

	assert.Equal(t, int64(0), records[1].NewCases)
	assert.Equal(t, int64(0), records[1].NewDeaths)
	assert.Equal(t, int64(10), records[2].NewCases)
}

func TestNormalizeDropsRowsWithoutPositiveCases(t *testing.T) {
	raw := RawTable{
		Mode: MultiSnapshot,
		Rows: []RawRow{
			dated("Chile", "2021-01-01", n(0), n(0)),
			dated("Chile", "2021-01-02", n(100), n(1)),
			dated("Nauru", "2021-01-01", nil, n(0)),
			dated("Tonga", "2021-01-01", n(-3), nil),
			dated("", "2021-01-01", n(10), nil),
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 1)

	assert.Equal(t, "Chile", records[0].Location)
	// The dropped zero row still anchors the difference.
	assert.Equal(t, int64(100), records[0].NewCases)
	assert.Equal(t, int64(1), records[0].NewDeaths)
}

func TestNormalizeCollapsesSubRegions(t *testing.T) {
	raw := RawTable{
		Mode:     RowStamped,
		Regional: true,
		Rows: []RawRow{
			{Country: "Canada", SubRegion: "Ontario", Confirmed: n(300), Deaths: n(10), LastUpdate: "2021-01-02 05:22:33"},
			{Country: "Canada", SubRegion: "Quebec", Confirmed: n(200), Deaths: nil, Active: n(7), LastUpdate: "2021-01-03 05:22:33"},
			{Country: "Canada", SubRegion: "Yukon", Confirmed: nil, Deaths: n(1), LastUpdate: "2021-01-01 05:22:33"},
			{Country: "Chad", Confirmed: n(5), Deaths: n(0), LastUpdate: "2021-01-02 05:22:33"},
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 2)

	canada := records[0]
	assert.Equal(t, "Canada", canada.Location)
	assert.Equal(t, int64(500), canada.TotalCases)
	assert.Equal(t, int64(11), canada.TotalDeaths)
	assert.Nil(t, canada.TotalRecovered)
	require.NotNil(t, canada.ActiveCases)
	assert.Equal(t, int64(7), *canada.ActiveCases)
	// The first last-update in the group wins, not the latest.
	assert.Equal(t, "2021-01-02T05:22:33", canada.Date.String())
}

func TestNormalizeGroupsRegionsPerSnapshotDate(t *testing.T) {
	raw := RawTable{
		Mode:     MultiSnapshot,
		Regional: true,
		Rows: []RawRow{
			{Country: "US", SubRegion: "Ohio", Confirmed: n(10), SnapshotDate: day("2021-01-01")},
			{Country: "US", SubRegion: "Utah", Confirmed: n(5), SnapshotDate: day("2021-01-01")},
			{Country: "US", SubRegion: "Ohio", Confirmed: n(12), SnapshotDate: day("2021-01-02")},
			{Country: "US", SubRegion: "Utah", Confirmed: n(9), SnapshotDate: day("2021-01-02")},
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 2)
	assert.Equal(t, int64(15), records[0].TotalCases)
	assert.Equal(t, int64(21), records[1].TotalCases)
	assert.Equal(t, int64(6), records[1].NewCases)
}

func TestNormalizeSingleSnapshotUsesStampedDate(t *testing.T) {
	raw := RawTable{
		Mode: SingleSnapshot,
		Rows: []RawRow{
			{Country: "Fiji", Confirmed: n(49), LastUpdate: "2020-12-31 23:00:00", SnapshotDate: day("2021-01-01")},
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 1)
	assert.Equal(t, "2021-01-01T00:00:00", records[0].Date.String())
}

func TestNormalizeDropsUndatedRows(t *testing.T) {
	raw := RawTable{
		Mode: RowStamped,
		Rows: []RawRow{
			{Country: "Fiji", Confirmed: n(49), LastUpdate: "yesterday"},
			{Country: "Oman", Confirmed: n(9), LastUpdate: "2021-01-01"},
		},
	}

	records := Normalize(raw).Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Oman", records[0].Location)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := RawTable{
		Mode:     MultiSnapshot,
		Regional: true,
		Rows: []RawRow{
			{Country: "Brazil", SubRegion: "Bahia", Confirmed: n(10), Recovered: n(3), SnapshotDate: day("2021-01-02")},
			{Country: "Argentina", Confirmed: n(7), SnapshotDate: day("2021-01-01")},
			{Country: "Brazil", SubRegion: "Acre", Confirmed: n(4), SnapshotDate: day("2021-01-01")},
			{Country: "Argentina", Confirmed: n(11), SnapshotDate: day("2021-01-02")},
		},
	}

	first := Normalize(raw).Records()
	second := Normalize(raw).Records()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalize is not idempotent (-first +second):\n%s", diff)
	}
}

func TestISOCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"France", "FRA"},
		{"United Kingdom", "UNI"},
		{"US", "US"},
		{"Côte d'Ivoire", "CÔT"},
		{" Korea, South", "KOR"},
		{"", "UNK"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ISOCode(tt.in))
		})
	}
}

func TestParseLastUpdate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2021-01-02 05:22:33", "2021-01-02T05:22:33"},
		{"2020-03-22T23:45:00", "2020-03-22T23:45:00"},
		{"2020-03-22T23:45:00Z", "2020-03-22T23:45:00"},
		{"1/22/2020 17:00", "2020-01-22T17:00:00"},
		{"3/8/20 5:31", "2020-03-08T05:31:00"},
		{"2021-01-01", "2021-01-01T00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseLastUpdate(tt.in)
			require.False(t, got.IsZero())
			assert.Equal(t, tt.want, NewISOTime(got).String())
		})
	}

	assert.True(t, ParseLastUpdate("").IsZero())
	assert.True(t, ParseLastUpdate("not a date").IsZero())
}
