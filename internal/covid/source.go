package covid

import "context"

// Source abstracts where raw snapshot rows come from (dated files on disk,
// a single fallback file, or an in-memory table in tests).
//
// Load returns ErrNoData when nothing is available; callers treat that as
// an expected empty state.
type Source interface {
	Load(ctx context.Context) (RawTable, error)
}

// StaticSource serves a fixed raw table.
type StaticSource struct {
	Table RawTable
}

func (s StaticSource) Load(ctx context.Context) (RawTable, error) {
	if len(s.Table.Rows) == 0 {
		return RawTable{}, ErrNoData
	}
	return s.Table, nil
}
