package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/internal/server"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/logging"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:   pool,
		Logger: logger,
	})
	limitStore := server.RateLimitStore(conf, logger)
	if err := modules.Load(app, modules.BuiltInModules(&logistics.ModuleOptions{UploadLimitStore: limitStore})...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := app.Migrations().Run(ctx); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}
	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:         logger,
		Configuration:  conf,
		Application:    app,
		Pool:           pool,
		RateLimitStore: limitStore,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
