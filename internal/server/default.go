package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/httpapi"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/middleware"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
	// Shared with the upload limit of the logistics module. Nil disables
	// the global limit.
	RateLimitStore limiter.Store
}

// RateLimitStore returns the store configured for rate limiting, or nil
// when limiting is disabled. A redis store that cannot be reached falls
// back to memory.
func RateLimitStore(conf *configuration.Configuration, logger *logrus.Logger) limiter.Store {
	if !conf.RateLimit.Enabled {
		return nil
	}
	if conf.RateLimit.Storage == "redis" {
		store, err := middleware.NewRedisStore(conf.RateLimit.RedisURL)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
		middleware.TracedMiddleware("database"),
		middleware.WithPool(options.Pool),
		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.CORSAllowedOrigins...),
	}

	if options.RateLimitStore != nil {
		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             options.RateLimitStore,
				Name:              "global",
			}),
		)
	}

	app.RegisterMiddleware(middlewares...)
	app.RegisterControllers(NewHealthController(options.Pool))

	return server.NewHTTPServer(app, httpapi.NotFound(), httpapi.MethodNotAllowed()), nil
}
