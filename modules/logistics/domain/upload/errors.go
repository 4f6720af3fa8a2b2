package upload

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("upload not found")
	ErrUnknownType      = errors.New("unknown upload type")
	ErrRowLimitExceeded = errors.New("row limit exceeded")
	ErrStorageWrite     = errors.New("storage write failed")
	ErrUnsupportedFile  = errors.New("unsupported file format")
	ErrEmptyFile        = errors.New("file has no header row")
)

type ErrorKind string

const (
	KindRowLimitExceeded ErrorKind = "row_limit_exceeded"
	KindStorageWrite     ErrorKind = "storage_write_failure"
	KindMissingColumns   ErrorKind = "missing_columns"
	KindSource           ErrorKind = "source_failure"
	KindCanceled         ErrorKind = "canceled"
)

type Stage string

const (
	StageCount   Stage = "count"
	StageHeaders Stage = "headers"
	StageRead    Stage = "read"
	StageFlush   Stage = "flush"
)

// IngestError is a pipeline-level failure. It carries the counts reached
// before the failure so callers can report partial success.
type IngestError struct {
	Kind         ErrorKind
	Stage        Stage
	Batch        int
	RowsInserted int
	RowsRejected int
	Err          error
}

func (e *IngestError) Error() string {
	msg := fmt.Sprintf("ingestion failed at %s (%s): %d rows inserted, %d rows rejected", e.Stage, e.Kind, e.RowsInserted, e.RowsRejected)
	if e.Batch > 0 {
		msg = fmt.Sprintf("%s, batch %d", msg, e.Batch)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Partial reports whether rows were committed before the failure.
func (e *IngestError) Partial() bool {
	return e.RowsInserted > 0
}

// AsIngestError unwraps err into an *IngestError.
func AsIngestError(err error) (*IngestError, bool) {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
