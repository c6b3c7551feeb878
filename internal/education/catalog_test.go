package education

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_Defaults(t *testing.T) {
	c, err := ParseCatalog([]byte(`
modules:
  - slug: " saving "
    title: Saving
    lessons:
      - slug: first
        title: First steps
        content: Pay yourself first.
`))
	require.NoError(t, err)
	require.Len(t, c.Modules, 1)
	m := c.Modules[0]
	assert.Equal(t, "saving", m.Slug)
	assert.Equal(t, "beginner", m.Level)
	require.Len(t, m.Lessons, 1)
	assert.Equal(t, 5, m.Lessons[0].DurationMinutes)
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown field", "modules:\n  - slug: a\n    title: A\n    colour: red\n", "parse catalog"},
		{"missing title", "modules:\n  - slug: a\n", "module 1: slug and title are required"},
		{"duplicate module", "modules:\n  - {slug: a, title: A}\n  - {slug: a, title: B}\n", `duplicate module slug "a"`},
		{"bad level", "modules:\n  - {slug: a, title: A, level: expert}\n", `module "a": unknown level "expert"`},
		{"duplicate lesson", "modules:\n  - slug: a\n    title: A\n    lessons:\n      - {slug: x, title: X}\n      - {slug: x, title: Y}\n", `module "a": duplicate lesson slug "x"`},
		{"lesson without slug", "modules:\n  - slug: a\n    title: A\n    lessons:\n      - {title: X}\n", `module "a" lesson 1: slug and title are required`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalog_Bundled(t *testing.T) {
	c, err := LoadCatalog("../../content/catalog.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, c.Modules)
	for _, m := range c.Modules {
		assert.NotEmpty(t, m.Lessons, m.Slug)
	}
}
