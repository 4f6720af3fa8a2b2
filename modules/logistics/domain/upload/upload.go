package upload

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeItemMaster Type = "item_master"
	TypeInbound    Type = "inbound"
	TypeOutbound   Type = "outbound"
	TypeInventory  Type = "inventory"
)

func (t Type) String() string { return string(t) }

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// ParseStatus accepts only the known status names.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailed:
		return st, true
	default:
		return "", false
	}
}

func StatusFrom(s string) Status {
	switch Status(strings.TrimSpace(s)) {
	case StatusProcessing:
		return StatusProcessing
	case StatusSuccess:
		return StatusSuccess
	case StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Upload is one submitted file and the outcome of its ingestion run.
type Upload struct {
	id           uuid.UUID
	uploadType   Type
	fileName     string
	filePath     string
	replace      bool
	status       Status
	rowsInserted int
	rowsRejected int
	dateRange    *DateRange
	errorMessage string
	createdAt    time.Time
	startedAt    *time.Time
	finishedAt   *time.Time
}

func New(uploadType Type, fileName string, replace bool) Upload {
	return Upload{
		id:         uuid.New(),
		uploadType: uploadType,
		fileName:   strings.TrimSpace(fileName),
		replace:    replace,
		status:     StatusPending,
		createdAt:  time.Now().UTC(),
	}
}

func Hydrate(
	id uuid.UUID,
	uploadType Type,
	fileName string,
	filePath string,
	replace bool,
	status Status,
	rowsInserted int,
	rowsRejected int,
	dateRange *DateRange,
	errorMessage string,
	createdAt time.Time,
	startedAt *time.Time,
	finishedAt *time.Time,
) Upload {
	return Upload{
		id:           id,
		uploadType:   uploadType,
		fileName:     fileName,
		filePath:     filePath,
		replace:      replace,
		status:       status,
		rowsInserted: rowsInserted,
		rowsRejected: rowsRejected,
		dateRange:    dateRange,
		errorMessage: errorMessage,
		createdAt:    createdAt,
		startedAt:    startedAt,
		finishedAt:   finishedAt,
	}
}

func (u Upload) ID() uuid.UUID          { return u.id }
func (u Upload) Type() Type             { return u.uploadType }
func (u Upload) FileName() string       { return u.fileName }
func (u Upload) FilePath() string       { return u.filePath }
func (u Upload) Replace() bool          { return u.replace }
func (u Upload) Status() Status         { return u.status }
func (u Upload) RowsInserted() int      { return u.rowsInserted }
func (u Upload) RowsRejected() int      { return u.rowsRejected }
func (u Upload) DateRange() *DateRange  { return u.dateRange }
func (u Upload) ErrorMessage() string   { return u.errorMessage }
func (u Upload) CreatedAt() time.Time   { return u.createdAt }
func (u Upload) StartedAt() *time.Time  { return u.startedAt }
func (u Upload) FinishedAt() *time.Time { return u.finishedAt }
func (u Upload) IsZero() bool           { return u.id == uuid.Nil }

func (u Upload) WithFilePath(path string) Upload {
	u.filePath = path
	return u
}

func (u Upload) Start(at time.Time) Upload {
	at = at.UTC()
	u.status = StatusProcessing
	u.startedAt = &at
	return u
}

func (u Upload) Complete(res Result, at time.Time) Upload {
	at = at.UTC()
	u.status = StatusSuccess
	u.rowsInserted = res.RowsInserted
	u.rowsRejected = res.RowsRejected
	u.dateRange = res.DateRange
	u.errorMessage = ""
	u.finishedAt = &at
	return u
}

// Fail records a failed run. Counts are kept because batches flushed before
// the failure stay committed.
func (u Upload) Fail(res Result, cause error, at time.Time) Upload {
	at = at.UTC()
	u.status = StatusFailed
	u.rowsInserted = res.RowsInserted
	u.rowsRejected = res.RowsRejected
	u.dateRange = res.DateRange
	if cause != nil {
		u.errorMessage = cause.Error()
	}
	u.finishedAt = &at
	return u
}
