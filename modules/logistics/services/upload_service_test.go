package services

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/archive"
)

func newTestUploadService(t *testing.T, w upload.RowWriter, opts PipelineOptions) (*UploadService, *memoryRepository, *recordingPurger, afero.Fs) {
	t.Helper()
	itemMaster := &mapping.Mapping{
		Type:        "item_master",
		Table:       "logistics_item_master",
		ReplaceMode: true,
		Fields: []mapping.Field{
			{Name: "item_code", Kind: mapping.KindText, Required: true, Aliases: []string{"Item Code"}},
		},
	}
	registry, err := mapping.NewRegistry(inboundMapping(), itemMaster)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	repo := newMemoryRepository()
	purger := &recordingPurger{}
	svc := NewUploadService(repo, purger, archive.NewStore(fs, "/uploads"), registry, NewIngestionPipeline(w, opts))
	svc.inTx = passthroughTx
	return svc, repo, purger, fs
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const inboundCSV = "Receipt Date,Item Code,Qty,Value\n" +
	"15/01/2025,A-1,10,\"1,200.50\"\n" +
	"2025-01-20,A-2,5,\n" +
	"garbage,A-3,1,\n"

func TestUploadService_Ingest(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	svc, repo, purger, fs := newTestUploadService(t, w, PipelineOptions{})

	up, res, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "inbound", FileName: "jan.csv"}, strings.NewReader(inboundCSV))
	require.NoError(t, err)
	require.Equal(t, upload.StatusSuccess, up.Status())
	require.Equal(t, 2, res.RowsInserted)
	require.Equal(t, 1, res.RowsRejected)
	require.Equal(t, "2025-01-15", res.DateRange.Min.Format("2006-01-02"))
	require.Equal(t, "2025-01-20", res.DateRange.Max.Format("2006-01-02"))
	require.Empty(t, purger.kept)

	stored, err := repo.GetByID(context.Background(), up.ID())
	require.NoError(t, err)
	require.Equal(t, upload.StatusSuccess, stored.Status())
	require.Equal(t, 2, stored.RowsInserted())
	require.NotNil(t, stored.StartedAt())
	require.NotNil(t, stored.FinishedAt())

	exists, err := afero.Exists(fs, stored.FilePath())
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUploadService_ReplaceMode(t *testing.T) {
	t.Parallel()
	svc, _, purger, _ := newTestUploadService(t, &recordingWriter{}, PipelineOptions{})

	up, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "item_master", FileName: "items.csv"}, strings.NewReader("Item Code\nA\nB\n"))
	require.NoError(t, err)
	require.True(t, up.Replace())
	require.Equal(t, up.ID(), purger.kept[0])
}

func TestUploadService_ConcurrentReplaceKeepsLastFinished(t *testing.T) {
	t.Parallel()
	table := newMemoryTable()
	svc, repo, _, _ := newTestUploadService(t, table, PipelineOptions{})
	svc.purger = &tablePurger{table: table, repo: repo}

	// the first upload to write a batch stops until released
	firstWrote := make(chan uuid.UUID, 1)
	release := make(chan struct{})
	var gated atomic.Bool
	table.afterWrite = func(id uuid.UUID) {
		if gated.CompareAndSwap(false, true) {
			firstWrote <- id
			<-release
		}
	}

	type outcome struct {
		up  upload.Upload
		err error
	}
	slow := make(chan outcome, 1)
	go func() {
		up, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "item_master", FileName: "a.csv"}, strings.NewReader("Item Code\nA\nB\n"))
		slow <- outcome{up, err}
	}()
	slowID := <-firstWrote

	fast, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "item_master", FileName: "b.csv"}, strings.NewReader("Item Code\nC\n"))
	require.NoError(t, err)
	require.Equal(t, upload.StatusSuccess, fast.Status())
	require.Equal(t, 1, table.count(fast.ID()))
	require.Equal(t, 2, table.count(slowID), "rows of a running upload must survive another replace")

	close(release)
	res := <-slow
	require.NoError(t, res.err)
	require.Equal(t, slowID, res.up.ID())
	require.Equal(t, upload.StatusSuccess, res.up.Status())
	require.Equal(t, 2, table.count(slowID))
	require.Zero(t, table.count(fast.ID()))
}

func TestUploadService_ReplaceFailureMarksUploadFailed(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newTestUploadService(t, &recordingWriter{}, PipelineOptions{})
	svc.inTx = func(context.Context, func(context.Context) error) error {
		return errDiskFull
	}

	up, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "item_master", FileName: "items.csv"}, strings.NewReader("Item Code\nA\n"))
	require.ErrorIs(t, err, errDiskFull)
	require.Equal(t, upload.StatusFailed, up.Status())

	stored, err := repo.GetByID(context.Background(), up.ID())
	require.NoError(t, err)
	require.Equal(t, upload.StatusFailed, stored.Status())
	require.Contains(t, stored.ErrorMessage(), "replace previous uploads")
}

func TestUploadService_UnknownType(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newTestUploadService(t, &recordingWriter{}, PipelineOptions{})

	_, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "returns", FileName: "r.csv"}, strings.NewReader("x"))
	require.ErrorIs(t, err, upload.ErrUnknownType)
	require.Empty(t, repo.order)
}

func TestUploadService_FailureIsRecorded(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newTestUploadService(t, &recordingWriter{failOn: 1}, PipelineOptions{})

	up, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "inbound", FileName: "jan.csv"}, strings.NewReader(inboundCSV))
	require.ErrorIs(t, err, upload.ErrStorageWrite)
	require.Equal(t, upload.StatusFailed, up.Status())

	stored, err := repo.GetByID(context.Background(), up.ID())
	require.NoError(t, err)
	require.Equal(t, upload.StatusFailed, stored.Status())
	require.Contains(t, stored.ErrorMessage(), "storage write failed")
	require.Zero(t, stored.RowsInserted())
}

func TestUploadService_RowLimit(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	svc, _, _, _ := newTestUploadService(t, w, PipelineOptions{MaxRows: 2})

	up, _, err := svc.Ingest(context.Background(), &upload.CreateDTO{Type: "inbound", FileName: "jan.csv"}, strings.NewReader(inboundCSV))
	require.ErrorIs(t, err, upload.ErrRowLimitExceeded)
	require.Equal(t, upload.StatusFailed, up.Status())
	require.Empty(t, w.batches)
}

func TestUploadService_Types(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestUploadService(t, &recordingWriter{}, PipelineOptions{})
	var names []string
	for _, m := range svc.Types() {
		names = append(names, m.Type)
	}
	require.Equal(t, []string{"inbound", "item_master"}, names)
}
