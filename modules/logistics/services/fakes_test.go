package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

func inboundMapping() *mapping.Mapping {
	return &mapping.Mapping{
		Type:      "inbound",
		Title:     "Inbound",
		Table:     "logistics_inbound",
		DateField: "receipt_date",
		Fields: []mapping.Field{
			{Name: "receipt_date", Kind: mapping.KindDate, Required: true, Aliases: []string{"Receipt Date"}},
			{Name: "item_code", Kind: mapping.KindText, Required: true, Aliases: []string{"Item Code"}},
			{Name: "quantity", Kind: mapping.KindNumber, Required: true, Aliases: []string{"Qty"}},
			{Name: "value", Kind: mapping.KindDecimal, Aliases: []string{"Value"}},
		},
	}
}

var inboundHeader = []string{"Receipt Date", "Item Code", "Qty", "Value"}

type sliceSource struct {
	header []string
	rows   [][]exceldate.Cell
	opened int
}

func (s *sliceSource) Count(ctx context.Context) (int, error) {
	return len(s.rows), ctx.Err()
}

func (s *sliceSource) Open(context.Context) (upload.RowIterator, error) {
	s.opened++
	return &sliceRows{src: s, pos: -1}, nil
}

type sliceRows struct {
	src *sliceSource
	pos int
}

func (r *sliceRows) Header() []string      { return r.src.header }
func (r *sliceRows) Next() bool            { r.pos++; return r.pos < len(r.src.rows) }
func (r *sliceRows) Row() []exceldate.Cell { return r.src.rows[r.pos] }
func (r *sliceRows) Line() int             { return r.pos + 2 }
func (r *sliceRows) Err() error            { return nil }
func (r *sliceRows) Close() error          { return nil }

type batchRecord struct {
	size      int
	firstLine int
	lastLine  int
}

type recordingWriter struct {
	mu      sync.Mutex
	batches []batchRecord
	failOn  int
	err     error
}

var errDiskFull = errors.New("disk full")

func (w *recordingWriter) WriteBatch(_ context.Context, _ *mapping.Mapping, _ uuid.UUID, rows []upload.ParsedRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn > 0 && len(w.batches)+1 == w.failOn {
		if w.err != nil {
			return w.err
		}
		return errDiskFull
	}
	w.batches = append(w.batches, batchRecord{
		size:      len(rows),
		firstLine: rows[0].Line,
		lastLine:  rows[len(rows)-1].Line,
	})
	return nil
}

func (w *recordingWriter) sizes() []int {
	out := make([]int, 0, len(w.batches))
	for _, b := range w.batches {
		out = append(out, b.size)
	}
	return out
}

func inboundRows(n int) [][]exceldate.Cell {
	rows := make([][]exceldate.Cell, n)
	for i := range rows {
		rows[i] = []exceldate.Cell{
			exceldate.Number(float64(45658 + i%30)),
			exceldate.Text("ITEM-1"),
			exceldate.Number(float64(i + 1)),
			exceldate.NumberWithText(12.5, "12.50"),
		}
	}
	return rows
}

type memoryRepository struct {
	mu      sync.Mutex
	uploads map[uuid.UUID]upload.Upload
	order   []uuid.UUID
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{uploads: map[uuid.UUID]upload.Upload{}}
}

func (r *memoryRepository) Create(_ context.Context, u upload.Upload) (upload.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[u.ID()] = u
	r.order = append(r.order, u.ID())
	return u, nil
}

func (r *memoryRepository) Update(_ context.Context, u upload.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[u.ID()]; !ok {
		return upload.ErrNotFound
	}
	r.uploads[u.ID()] = u
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (upload.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return upload.Upload{}, upload.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) GetPaginated(_ context.Context, params *upload.FindParams) ([]upload.Upload, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []upload.Upload
	for _, id := range r.order {
		u := r.uploads[id]
		if params.Type != "" && u.Type() != params.Type {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

type recordingPurger struct {
	kept []uuid.UUID
}

func (p *recordingPurger) PurgeExcept(_ context.Context, _ *mapping.Mapping, keep uuid.UUID) (int64, error) {
	p.kept = append(p.kept, keep)
	return 7, nil
}

// memoryTable stands in for a data table shared by every upload of a type.
type memoryTable struct {
	mu   sync.Mutex
	rows map[uuid.UUID]int
	// afterWrite runs once a batch is stored, outside the lock
	afterWrite func(uploadID uuid.UUID)
}

func newMemoryTable() *memoryTable {
	return &memoryTable{rows: map[uuid.UUID]int{}}
}

func (t *memoryTable) WriteBatch(_ context.Context, _ *mapping.Mapping, uploadID uuid.UUID, rows []upload.ParsedRow) error {
	t.mu.Lock()
	t.rows[uploadID] += len(rows)
	hook := t.afterWrite
	t.mu.Unlock()
	if hook != nil {
		hook(uploadID)
	}
	return nil
}

func (t *memoryTable) count(uploadID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows[uploadID]
}

// tablePurger deletes the rows of other finished uploads, as the SQL purge does.
type tablePurger struct {
	table *memoryTable
	repo  *memoryRepository
}

func (p *tablePurger) PurgeExcept(ctx context.Context, m *mapping.Mapping, keep uuid.UUID) (int64, error) {
	p.table.mu.Lock()
	defer p.table.mu.Unlock()
	var purged int64
	for id, n := range p.table.rows {
		if id == keep {
			continue
		}
		u, err := p.repo.GetByID(ctx, id)
		if err != nil || string(u.Type()) != m.Type {
			continue
		}
		if st := u.Status(); st != upload.StatusSuccess && st != upload.StatusFailed {
			continue
		}
		purged += int64(n)
		delete(p.table.rows, id)
	}
	return purged, nil
}
