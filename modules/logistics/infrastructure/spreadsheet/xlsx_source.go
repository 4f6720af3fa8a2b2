package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

var rawValues = excelize.Options{RawCellValue: true}

// XLSXSource streams the rows of one worksheet. Cell values are read raw, so
// date-formatted cells arrive as day serials.
type XLSXSource struct {
	fs    afero.Fs
	path  string
	sheet string
}

// NewXLSXSource reads sheet, or the first worksheet when sheet is empty.
func NewXLSXSource(fs afero.Fs, path string, sheet string) *XLSXSource {
	return &XLSXSource{fs: fs, path: path, sheet: strings.TrimSpace(sheet)}
}

func (s *XLSXSource) Count(ctx context.Context) (int, error) {
	it, err := s.open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = it.Close() }()

	// the header row was consumed by open
	n := 0
	for it.rows.Next() {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		raw, err := it.rows.Columns(rawValues)
		if err != nil {
			return n, fmt.Errorf("xlsx %s: %w", s.path, err)
		}
		if blankRow(raw) {
			continue
		}
		n++
	}
	if err := it.rows.Error(); err != nil {
		return n, fmt.Errorf("xlsx %s: %w", s.path, err)
	}
	return n, nil
}

func (s *XLSXSource) Open(ctx context.Context) (upload.RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.open()
}

func (s *XLSXSource) open() (*xlsxRows, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	book, err := excelize.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", upload.ErrUnsupportedFile, s.path, err)
	}

	sheet := s.sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			_ = book.Close()
			return nil, upload.ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := book.Rows(sheet)
	if err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}

	it := &xlsxRows{book: book, rows: rows}
	for it.rows.Next() {
		it.line++
		raw, err := rows.Columns(rawValues)
		if err != nil {
			_ = it.Close()
			return nil, err
		}
		if blankRow(raw) {
			continue
		}
		it.header = make([]string, len(raw))
		for i, h := range raw {
			it.header[i] = strings.TrimSpace(h)
		}
		return it, nil
	}
	_ = it.Close()
	return nil, upload.ErrEmptyFile
}

type xlsxRows struct {
	book   *excelize.File
	rows   *excelize.Rows
	header []string
	row    []exceldate.Cell
	line   int
	err    error
}

func (it *xlsxRows) Header() []string      { return it.header }
func (it *xlsxRows) Row() []exceldate.Cell { return it.row }
func (it *xlsxRows) Line() int             { return it.line }

func (it *xlsxRows) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Error()
}

func (it *xlsxRows) Next() bool {
	for it.rows.Next() {
		it.line++
		raw, err := it.rows.Columns(rawValues)
		if err != nil {
			it.err = err
			return false
		}
		if blankRow(raw) {
			continue
		}
		it.row = classifyRow(raw)
		return true
	}
	return false
}

func (it *xlsxRows) Close() error {
	rowsErr := it.rows.Close()
	if err := it.book.Close(); err != nil {
		return err
	}
	return rowsErr
}
