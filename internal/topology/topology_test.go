package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnexus/chrt/internal/params"
)

const sampleDoc = `
enclaves: [A, B]
current_role: A
channels:
  - name: to_b
    config: "pipe,/tmp/a_to_b,listener=1,src=B,dst=A"
    direction: read
    role: listener
  - name: from_b
    config: "pipe,/tmp/b_to_a"
    direction: write
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	top, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, top.Enclaves)
	assert.Equal(t, "A", top.CurrentRole)
	require.Len(t, top.Channels, 2)
	assert.Equal(t, "listener", top.Channels[0].Role)

	dir, err := top.Channels[1].ParseDirection()
	require.NoError(t, err)
	assert.Equal(t, params.WriteOnly, dir)
}

func TestLoadRejectsUnknownCurrentRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enclaves: [A]\ncurrent_role: Z\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseDirectionInvalid(t *testing.T) {
	c := ChannelSpec{Direction: "sideways"}
	_, err := c.ParseDirection()
	assert.Error(t, err)
}
