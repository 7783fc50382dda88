package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
)

func TestVersionOutputIncludesDataset(t *testing.T) {
	out := newVersionOutput(&config.Settings{Data: "site", RootSource: "data/main.json"})
	assert.Contains(t, out.String(), "Data:    site")
	assert.Contains(t, out.String(), "Root:    data/main.json")

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "data/main.json", decoded["root_source"])
	assert.NotContains(t, decoded, "build")
}

func TestVersionOutputWithoutSettings(t *testing.T) {
	out := newVersionOutput(nil)
	assert.NotContains(t, out.String(), "Data:")
}

func TestVersionShort(t *testing.T) {
	var settings *config.Settings
	c := NewVersionCmd(&settings)
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetArgs([]string{"--short"})
	require.NoError(t, c.Execute())
	assert.Equal(t, newVersionOutput(nil).Version+"\n", buf.String())
}
