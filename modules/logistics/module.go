package logistics

import (
	"embed"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/archive"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/mappings"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/persistence"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/presentation/controllers"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/services"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/middleware"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

type ModuleOptions struct {
	// Backs the per-client upload limit. Uploads are not limited when nil.
	UploadLimitStore limiter.Store
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	app.Migrations().RegisterSchema(&MigrationFiles)

	registry, err := mappings.Load(conf.Ingestion.MappingsPath)
	if err != nil {
		return err
	}

	rowWriter := persistence.NewRowWriter()
	pipeline := services.NewIngestionPipeline(rowWriter, PipelineOptions(conf.Ingestion))
	app.RegisterServices(
		services.NewUploadService(
			persistence.NewUploadRepository(),
			rowWriter,
			archive.NewOsStore(conf.UploadsPath),
			registry,
			pipeline,
		),
	)

	var uploadMiddleware []mux.MiddlewareFunc
	if conf.RateLimit.Enabled && m.options.UploadLimitStore != nil {
		uploadMiddleware = append(uploadMiddleware, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.UploadRPM,
			Period:            time.Minute,
			Store:             m.options.UploadLimitStore,
			Name:              "uploads",
		}))
	}
	app.RegisterControllers(
		controllers.NewUploadAPIController(app, uploadMiddleware...),
	)
	return nil
}

func (m *Module) Name() string {
	return "logistics"
}

// PipelineOptions maps the ingestion settings onto the pipeline.
func PipelineOptions(o configuration.IngestionOptions) services.PipelineOptions {
	return services.PipelineOptions{
		MaxRows:         o.MaxRows,
		BatchSize:       o.BatchSize,
		RejectionSample: o.RejectionSample,
	}
}
