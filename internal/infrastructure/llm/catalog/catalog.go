// Package catalog lists the models the service accepts and which provider serves each.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

//go:embed models.yaml
var defaultModels []byte

type file struct {
	Providers map[string][]string `yaml:"providers"`
}

type Catalog struct {
	models []domain.ModelInfo
	index  map[string]domain.ProviderName
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultModels)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}

	providers := make([]string, 0, len(f.Providers))
	for name := range f.Providers {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	c := &Catalog{index: make(map[string]domain.ProviderName)}
	for _, name := range providers {
		provider := domain.ProviderName(strings.ToLower(strings.TrimSpace(name)))
		for _, model := range f.Providers[name] {
			model = strings.TrimSpace(model)
			if model == "" {
				continue
			}
			if owner, dup := c.index[model]; dup {
				return nil, fmt.Errorf("model %q listed for both %s and %s", model, owner, provider)
			}
			c.index[model] = provider
			c.models = append(c.models, domain.ModelInfo{ID: model, Provider: provider})
		}
	}
	if len(c.models) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}
	return c, nil
}

func (c *Catalog) Models() []domain.ModelInfo {
	out := make([]domain.ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Catalog) Provider(model string) (domain.ProviderName, bool) {
	p, ok := c.index[model]
	return p, ok
}
