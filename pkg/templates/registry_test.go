package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/pkg/errors"
)

func TestRegistryLoadAndRender(t *testing.T) {
	fsys := fstest.MapFS{
		"analyst/greeting.tmpl": {Data: []byte("Hello {{upper .Name}}\n")},
		"README.md":             {Data: []byte("ignored")},
	}

	reg, err := NewRegistryFromFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyst/greeting"}, reg.List())

	out, err := reg.Render("analyst/greeting", map[string]string{"Name": "sol"})
	require.NoError(t, err)
	assert.Equal(t, "Hello SOL", out)
}

func TestRegistryMissingTemplate(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{})
	require.NoError(t, err)

	_, err = reg.Render("analyst/nope", nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistryParseError(t *testing.T) {
	_, err := NewRegistryFromFS(fstest.MapFS{
		"bad.tmpl": {Data: []byte("{{.Name")},
	})
	assert.Error(t, err)
}

func TestEmbeddedAnalystTemplates(t *testing.T) {
	reg := Get()

	out, err := reg.Render("analyst/portfolio", map[string]any{
		"Query": "Analyze SOL at $150 for portfolio inclusion",
		"Facts": []string{"SOL is a layer-1", "risk:   medium"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Task: Analyze SOL at $150 for portfolio inclusion")
	assert.Contains(t, out, "- risk: medium")

	out, err = reg.Render("analyst/answer", map[string]any{"Query": "what is staking?"})
	require.NoError(t, err)
	assert.Contains(t, out, "No reference material matched")

	for _, id := range []string{"analyst/system", "analyst/portfolio", "analyst/answer"} {
		_, err := reg.GetTemplate(id)
		assert.NoError(t, err, id)
	}
}
