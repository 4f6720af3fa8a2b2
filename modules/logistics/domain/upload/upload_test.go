package upload

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()
	st, ok := ParseStatus(" Success ")
	require.True(t, ok)
	require.Equal(t, StatusSuccess, st)

	_, ok = ParseStatus("done")
	require.False(t, ok)
	require.Equal(t, StatusPending, StatusFrom("done"))
}

func TestUploadLifecycle(t *testing.T) {
	t.Parallel()
	u := New(TypeInbound, " jan.xlsx ", false)
	require.False(t, u.IsZero())
	require.Equal(t, "jan.xlsx", u.FileName())
	require.Equal(t, StatusPending, u.Status())

	started := u.Start(time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)))
	require.Equal(t, StatusProcessing, started.Status())
	require.Equal(t, time.UTC, started.StartedAt().Location())
	require.Equal(t, StatusPending, u.Status())

	res := Result{RowsInserted: 10000, RowsRejected: 3}
	failed := started.Fail(res, errors.New("disk full"), time.Now())
	require.Equal(t, StatusFailed, failed.Status())
	require.Equal(t, 10000, failed.RowsInserted())
	require.Equal(t, "disk full", failed.ErrorMessage())

	done := started.Complete(res, time.Now())
	require.Equal(t, StatusSuccess, done.Status())
	require.Empty(t, done.ErrorMessage())
	require.NotNil(t, done.FinishedAt())
}

func TestDateRange(t *testing.T) {
	t.Parallel()
	var r *DateRange
	r = r.Include(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	r = r.Include(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC))
	r = r.Include(time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC))

	b, err := json.Marshal(Result{RowsInserted: 3, DateRange: r})
	require.NoError(t, err)
	require.JSONEq(t, `{"rowsInserted":3,"rowsRejected":0,"dateRange":{"minDate":"2025-01-03","maxDate":"2025-01-31"},"batches":0}`, string(b))

	b, err = json.Marshal(Result{})
	require.NoError(t, err)
	require.NotContains(t, string(b), "dateRange")
}

func TestCreateDTO_Ok(t *testing.T) {
	t.Parallel()
	dto := CreateDTO{Type: " Outbound ", FileName: " feb.csv "}
	errs, ok := dto.Ok()
	require.True(t, ok)
	require.Empty(t, errs)
	require.Equal(t, "outbound", dto.Type)
	require.Equal(t, "feb.csv", dto.FileName)

	dto = CreateDTO{Type: "returns"}
	errs, ok = dto.Ok()
	require.False(t, ok)
	require.Contains(t, errs, "Type")
	require.Contains(t, errs, "FileName")
}

func TestIngestError(t *testing.T) {
	t.Parallel()
	err := error(&IngestError{
		Kind:         KindStorageWrite,
		Stage:        StageFlush,
		Batch:        3,
		RowsInserted: 10000,
		RowsRejected: 2,
		Err:          ErrStorageWrite,
	})
	require.ErrorIs(t, err, ErrStorageWrite)
	require.Equal(t, "ingestion failed at flush (storage_write_failure): 10000 rows inserted, 2 rows rejected, batch 3: storage write failed", err.Error())

	ie, ok := AsIngestError(err)
	require.True(t, ok)
	require.True(t, ie.Partial())
}
