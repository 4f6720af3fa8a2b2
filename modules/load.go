package modules

import (
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
)

// BuiltInModules returns the modules the server runs with.
func BuiltInModules(opts *logistics.ModuleOptions) []application.Module {
	return []application.Module{
		logistics.NewModule(opts),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
