package upload

import (
	"context"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

// Source is a decoded tabular file. It can be read more than once: the
// pipeline counts rows before streaming them.
type Source interface {
	// Count returns the number of data rows, header excluded.
	Count(ctx context.Context) (int, error)
	Open(ctx context.Context) (RowIterator, error)
}

// RowIterator streams data rows after the header row.
type RowIterator interface {
	Header() []string
	Next() bool
	Row() []exceldate.Cell
	// Line is the 1-based line of the current row in the file.
	Line() int
	Err() error
	Close() error
}
