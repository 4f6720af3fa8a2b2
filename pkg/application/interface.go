package application

import (
	"context"
	"embed"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// MigrationManager applies the SQL schemas registered by modules.
type MigrationManager interface {
	RegisterSchema(fs ...*embed.FS)
	Run(ctx context.Context) error
	Status(ctx context.Context) ([]MigrationStatus, error)
}

// Application is the container modules register themselves into.
type Application interface {
	DB() *pgxpool.Pool
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	Migrations() MigrationManager
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}
