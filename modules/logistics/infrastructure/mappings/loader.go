package mappings

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/constants"
)

//go:embed default_mappings.yaml
var defaultMappings []byte

type document struct {
	Mappings []*mapping.Mapping `yaml:"mappings" validate:"required,min=1,dive"`
}

var knownTypes = map[upload.Type]struct{}{
	upload.TypeItemMaster: {},
	upload.TypeInbound:    {},
	upload.TypeOutbound:   {},
	upload.TypeInventory:  {},
}

// Load returns the built-in mappings, or the ones in path when it is set.
func Load(path string) (*mapping.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultMappings)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in mappings.
func Default() *mapping.Registry {
	r, err := Parse(defaultMappings)
	if err != nil {
		panic(err)
	}
	return r
}

func Parse(data []byte) (*mapping.Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	if err := constants.Validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid mappings: %w", err)
	}
	for _, m := range doc.Mappings {
		if _, ok := knownTypes[upload.Type(m.Type)]; !ok {
			return nil, fmt.Errorf("mapping for %q: %w", m.Type, upload.ErrUnknownType)
		}
	}
	return mapping.NewRegistry(doc.Mappings...)
}
