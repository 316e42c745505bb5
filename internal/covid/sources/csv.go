package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/i474232898/covid-data-aggregation/internal/common"
	"github.com/i474232898/covid-data-aggregation/internal/covid"
)

type column int

const (
	colCountry column = iota
	colSubRegion
	colConfirmed
	colDeaths
	colRecovered
	colActive
	colLastUpdate
)

// headerAliases maps normalized header spellings seen across the daily
// report formats onto columns.
var headerAliases = map[string]column{
	"countryregion": colCountry,
	"provincestate": colSubRegion,
	"confirmed":     colConfirmed,
	"deaths":        colDeaths,
	"recovered":     colRecovered,
	"active":        colActive,
	"lastupdate":    colLastUpdate,
}

var errMissingColumn = errors.New("required column missing")

// sheet is one parsed snapshot file.
type sheet struct {
	rows     []covid.RawRow
	regional bool
}

func readSheetFile(path string) (sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return sheet{}, err
	}
	defer f.Close()
	return readSheet(f)
}

// readSheet parses a daily report CSV. Rows with the wrong number of fields
// are tolerated; missing trailing cells read as empty.
func readSheet(r io.Reader) (sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return sheet{}, fmt.Errorf("empty file: %w", errMissingColumn)
		}
		return sheet{}, fmt.Errorf("read header: %w", err)
	}

	idx := map[column]int{}
	for i, h := range header {
		if c, ok := headerAliases[common.NormalizeHeader(h)]; ok {
			if _, dup := idx[c]; !dup {
				idx[c] = i
			}
		}
	}
	for _, required := range []column{colCountry, colConfirmed} {
		if _, ok := idx[required]; !ok {
			return sheet{}, fmt.Errorf("%w: have %v", errMissingColumn, header)
		}
	}

	_, regional := idx[colSubRegion]
	out := sheet{regional: regional}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sheet{}, fmt.Errorf("read row: %w", err)
		}

		cell := func(c column) string {
			i, ok := idx[c]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		out.rows = append(out.rows, covid.RawRow{
			Country:    cell(colCountry),
			SubRegion:  cell(colSubRegion),
			Confirmed:  parseCount(cell(colConfirmed)),
			Deaths:     parseCount(cell(colDeaths)),
			Recovered:  parseCount(cell(colRecovered)),
			Active:     parseCount(cell(colActive)),
			LastUpdate: cell(colLastUpdate),
		})
	}

	return out, nil
}

// parseCount reads an integer cell. Decimal renderings such as "100.0" are
// truncated; empty or malformed cells return nil.
func parseCount(s string) *int64 {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}
