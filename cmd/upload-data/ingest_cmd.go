package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/archive"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/mappings"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/persistence"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/spreadsheet"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/services"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
)

type ingestOptions struct {
	uploadType   string
	files        []string
	parallel     int
	dryRun       bool
	replace      bool
	mappingsPath string
}

// fileReport is written as one JSON line per input file.
type fileReport struct {
	File         string             `json:"file"`
	UploadID     string             `json:"uploadId,omitempty"`
	Status       string             `json:"status"`
	DryRun       bool               `json:"dryRun"`
	RowsInserted int                `json:"rowsInserted"`
	RowsRejected int                `json:"rowsRejected"`
	DateRange    *upload.DateRange  `json:"dateRange,omitempty"`
	Rejections   []upload.Rejection `json:"rejections,omitempty"`
	Error        string             `json:"error,omitempty"`
	DurationMs   int64              `json:"durationMs"`

	code int
}

// ingestFunc ingests one file. Failures are reported in the returned error
// together with whatever counts were reached.
type ingestFunc func(ctx context.Context, path string) (fileReport, error)

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest .xlsx or .csv files of one upload type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = args
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.uploadType, "type", "", "Upload type: item_master, inbound, outbound or inventory (required)")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 1, "Number of files ingested concurrently")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and validate without touching the database")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace rows of earlier uploads of the same type")
	cmd.Flags().StringVar(&opts.mappingsPath, "mappings", "", "Column mappings file (default: INGEST_MAPPINGS_PATH or built-in mappings)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, opts ingestOptions) error {
	conf := configuration.Use()
	defer conf.Unload()

	if opts.mappingsPath == "" {
		opts.mappingsPath = conf.Ingestion.MappingsPath
	}
	registry, err := mappings.Load(opts.mappingsPath)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("load mappings: %w", err))
	}
	m, err := checkIngestOptions(registry, opts)
	if err != nil {
		return err
	}
	opts.uploadType = m.Type

	ctx, cancel := context.WithTimeout(ctx, conf.Ingestion.Timeout*time.Duration(len(opts.files)))
	defer cancel()
	ctx = composables.WithLogger(ctx, logrus.NewEntry(conf.Logger()).WithField("component", "upload-data"))

	pipelineOpts := logistics.PipelineOptions(conf.Ingestion)
	if opts.dryRun {
		return ingestFiles(ctx, out, opts, dryRunIngester(afero.NewOsFs(), m, pipelineOpts))
	}

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("connect: %w", err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return withCode(exitDB, fmt.Errorf("connect: %w", err))
	}
	ctx = composables.WithPool(ctx, pool)

	rowWriter := persistence.NewRowWriter()
	svc := services.NewUploadService(
		persistence.NewUploadRepository(),
		rowWriter,
		archive.NewOsStore(conf.UploadsPath),
		registry,
		services.NewIngestionPipeline(rowWriter, pipelineOpts),
	)
	return ingestFiles(ctx, out, opts, serviceIngester(svc, opts))
}

func checkIngestOptions(registry *mapping.Registry, opts ingestOptions) (*mapping.Mapping, error) {
	m, ok := registry.Get(strings.ToLower(strings.TrimSpace(opts.uploadType)))
	if !ok {
		return nil, withCode(exitUsage, fmt.Errorf("unknown --type %q", opts.uploadType))
	}
	if opts.parallel < 1 {
		return nil, withCode(exitUsage, fmt.Errorf("--parallel must be at least 1, got %d", opts.parallel))
	}
	if len(opts.files) == 0 {
		return nil, withCode(exitUsage, fmt.Errorf("no input files"))
	}
	// parallel replace runs leave only whichever file finishes last
	if (opts.replace || m.ReplaceMode) && opts.parallel > 1 && len(opts.files) > 1 {
		return nil, withCode(exitUsage, fmt.Errorf("upload type %s replaces earlier uploads; use --parallel 1", m.Type))
	}
	for _, f := range opts.files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, withCode(exitUsage, fmt.Errorf("input %s: %w", f, err))
		}
		if info.IsDir() {
			return nil, withCode(exitUsage, fmt.Errorf("input %s is a directory", f))
		}
	}
	return m, nil
}

// ingestFiles runs ingest over every file, at most opts.parallel at a time,
// and writes the reports in input order. A failing file does not stop the
// others; the exit code is the one of the first failed file.
func ingestFiles(ctx context.Context, out io.Writer, opts ingestOptions, ingest ingestFunc) error {
	reports := make([]fileReport, len(opts.files))

	var g errgroup.Group
	g.SetLimit(opts.parallel)
	for i, path := range opts.files {
		g.Go(func() error {
			start := time.Now()
			report, err := ingest(ctx, path)
			report.File = path
			report.DryRun = opts.dryRun
			report.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				report.Status = string(upload.StatusFailed)
				report.Error = err.Error()
				report.code = ingestExitCode(err)
			} else if report.Status == "" {
				report.Status = string(upload.StatusSuccess)
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	var failed *fileReport
	for i := range reports {
		if err := writeJSONLine(out, reports[i]); err != nil {
			return withCode(exitFailure, err)
		}
		if reports[i].code != exitOK && failed == nil {
			failed = &reports[i]
		}
	}
	if failed != nil {
		return withCode(failed.code, fmt.Errorf("%s: %s", filepath.Base(failed.File), failed.Error))
	}
	return nil
}

func dryRunIngester(fs afero.Fs, m *mapping.Mapping, opts services.PipelineOptions) ingestFunc {
	pipeline := services.NewIngestionPipeline(persistence.DiscardWriter{}, opts)
	return func(ctx context.Context, path string) (fileReport, error) {
		src, err := spreadsheet.Open(fs, path, "")
		if err != nil {
			return fileReport{}, err
		}
		res, err := pipeline.Ingest(ctx, uuid.New(), src, m)
		return resultReport(res), err
	}
}

func serviceIngester(svc *services.UploadService, opts ingestOptions) ingestFunc {
	return func(ctx context.Context, path string) (fileReport, error) {
		f, err := os.Open(path)
		if err != nil {
			return fileReport{}, err
		}
		defer func() { _ = f.Close() }()

		up, res, err := svc.Ingest(ctx, &upload.CreateDTO{
			Type:     opts.uploadType,
			FileName: filepath.Base(path),
			Replace:  opts.replace,
		}, f)
		report := resultReport(res)
		if !up.IsZero() {
			report.UploadID = up.ID().String()
			report.Status = string(up.Status())
		}
		return report, err
	}
}

func resultReport(res upload.Result) fileReport {
	return fileReport{
		RowsInserted: res.RowsInserted,
		RowsRejected: res.RowsRejected,
		DateRange:    res.DateRange,
		Rejections:   res.Rejections,
	}
}
