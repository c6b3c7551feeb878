package education

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// Catalog is the on-disk description of the learning content.
type Catalog struct {
	Modules []CatalogModule `yaml:"modules"`
}

type CatalogModule struct {
	Slug        string          `yaml:"slug"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Level       string          `yaml:"level"`
	Lessons     []CatalogLesson `yaml:"lessons"`
}

type CatalogLesson struct {
	Slug            string `yaml:"slug"`
	Title           string `yaml:"title"`
	Content         string `yaml:"content"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

var validLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates a catalog. Missing levels default to
// beginner and missing durations to five minutes.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	modules := make(map[string]bool)
	for i := range c.Modules {
		m := &c.Modules[i]
		m.Slug = strings.TrimSpace(m.Slug)
		if m.Slug == "" || m.Title == "" {
			return nil, fmt.Errorf("module %d: slug and title are required", i+1)
		}
		if modules[m.Slug] {
			return nil, fmt.Errorf("duplicate module slug %q", m.Slug)
		}
		modules[m.Slug] = true

		if m.Level == "" {
			m.Level = "beginner"
		}
		if !validLevels[m.Level] {
			return nil, fmt.Errorf("module %q: unknown level %q", m.Slug, m.Level)
		}

		lessons := make(map[string]bool)
		for j := range m.Lessons {
			l := &m.Lessons[j]
			l.Slug = strings.TrimSpace(l.Slug)
			if l.Slug == "" || l.Title == "" {
				return nil, fmt.Errorf("module %q lesson %d: slug and title are required", m.Slug, j+1)
			}
			if lessons[l.Slug] {
				return nil, fmt.Errorf("module %q: duplicate lesson slug %q", m.Slug, l.Slug)
			}
			lessons[l.Slug] = true
			if l.DurationMinutes <= 0 {
				l.DurationMinutes = 5
			}
		}
	}
	return &c, nil
}
