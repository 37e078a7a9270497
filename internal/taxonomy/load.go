package taxonomy

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

// ErrInvalidTaxonomy is returned when a catalog file is structurally invalid.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

// document is the on-disk shape of a catalog file.
type document struct {
	Categories []Node `yaml:"categories" json:"categories" validate:"required,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// defaultStore parses the embedded catalog on first use.
var defaultStore = sync.OnceValue(func() *Store {
	return mustParse(defaultYAML, "yaml")
})

// Default returns the catalog compiled into the binary. It panics if the
// embedded catalog is invalid.
func Default() *Store {
	return defaultStore()
}

// Load reads a catalog from a YAML or JSON file, chosen by extension.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}

	store, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return store, nil
}

// Parse decodes and validates a catalog. format is "yaml" or "json".
func Parse(data []byte, format string) (*Store, error) {
	var doc document
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing taxonomy JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing taxonomy YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported taxonomy format %q", format)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	if err := checkStructure(doc.Categories); err != nil {
		return nil, err
	}

	return NewStore(doc.Categories), nil
}

// checkStructure enforces unique node ids and that no node mixes children
// with skill labels.
func checkStructure(categories []Node) error {
	seen := make(map[string]bool)
	var visit func(nodes []Node) error
	visit = func(nodes []Node) error {
		for _, n := range nodes {
			if seen[n.ID] {
				return fmt.Errorf("%w: duplicate id %q", ErrInvalidTaxonomy, n.ID)
			}
			seen[n.ID] = true
			if len(n.Children) > 0 && len(n.Skills) > 0 {
				return fmt.Errorf("%w: node %q has both children and skills", ErrInvalidTaxonomy, n.ID)
			}
			skillIDs := make(map[string]bool, len(n.Skills))
			for _, sk := range n.Skills {
				if skillIDs[sk.ID] {
					return fmt.Errorf("%w: duplicate skill %q under %q", ErrInvalidTaxonomy, sk.ID, n.ID)
				}
				skillIDs[sk.ID] = true
			}
			if err := visit(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(categories)
}

func mustParse(data []byte, format string) *Store {
	s, err := Parse(data, format)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return s
}
