package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	app := newApp()
	require.NotNil(t, app)
	assert.Equal(t, name, app.Name)

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"auth", "import", "evaluate", "query", "server"}, names)
}

func TestGetEncoder(t *testing.T) {
	outputFormat = formatJSON
	_, ok := getEncoder().(*json.Encoder)
	assert.True(t, ok)

	outputFormat = formatYAML
	_, ok = getEncoder().(*json.Encoder)
	assert.False(t, ok)

	outputFormat = formatJSON
}
