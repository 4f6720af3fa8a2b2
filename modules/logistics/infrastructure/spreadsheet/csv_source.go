package spreadsheet

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

const ctxCheckEvery = 4096

var errInvalidHeader = errors.New("header is not valid UTF-8")

// CSVSource reads delimited text. The delimiter is sniffed from the header
// line: comma, semicolon or tab.
type CSVSource struct {
	fs   afero.Fs
	path string
}

func NewCSVSource(fs afero.Fs, path string) *CSVSource {
	return &CSVSource{fs: fs, path: path}
}

func (s *CSVSource) Count(ctx context.Context) (int, error) {
	it, err := s.open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = it.Close() }()

	n := 0
	for {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		rec, err := it.r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("csv %s: %w", s.path, err)
		}
		if blankRow(rec) {
			continue
		}
		n++
	}
}

func (s *CSVSource) Open(ctx context.Context) (upload.RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.open()
}

func (s *CSVSource) open() (*csvRows, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, err
	}
	br := stripUTF8BOM(bufio.NewReader(f))

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := readHeader(r)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &csvRows{f: f, r: r, header: header}, nil
}

type csvRows struct {
	f      afero.File
	r      *csv.Reader
	header []string
	row    []exceldate.Cell
	line   int
	err    error
}

func (it *csvRows) Header() []string      { return it.header }
func (it *csvRows) Row() []exceldate.Cell { return it.row }
func (it *csvRows) Line() int             { return it.line }
func (it *csvRows) Err() error            { return it.err }
func (it *csvRows) Close() error          { return it.f.Close() }

func (it *csvRows) Next() bool {
	for {
		rec, err := it.r.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			it.err = err
			return false
		}
		if blankRow(rec) {
			continue
		}
		it.line, _ = it.r.FieldPos(0)
		it.row = classifyRow(rec)
		return true
	}
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func sniffDelimiter(r *bufio.Reader) rune {
	b, _ := r.Peek(4096)
	line := string(b)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// readHeader returns the first non-blank record, trimmed.
func readHeader(r *csv.Reader) ([]string, error) {
	for {
		h, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil, upload.ErrEmptyFile
		}
		if err != nil {
			return nil, err
		}
		if blankRow(h) {
			continue
		}
		out := make([]string, len(h))
		for i := range h {
			out[i] = strings.TrimSpace(h[i])
			if !utf8.ValidString(out[i]) {
				return nil, errInvalidHeader
			}
		}
		return out, nil
	}
}
