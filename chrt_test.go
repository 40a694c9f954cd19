package chrt

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoopbackRoundTrip exercises the façade end to end: open a pipe
// channel from both sides, write from one, read from the other.
func TestLoopbackRoundTrip(t *testing.T) {
	rt := New()
	path := filepath.Join(t.TempDir(), "x")

	var rgd, wgd int
	var rErr, wErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); rgd, rErr = rt.Open(fmt.Sprintf("pipe,%s", path), ReadOnly) }()
	go func() { defer wg.Done(); wgd, wErr = rt.Open(fmt.Sprintf("pipe,%s", path), WriteOnly) }()
	wg.Wait()
	require.NoError(t, rErr)
	require.NoError(t, wErr)

	payload := []byte("hello chrt")
	done := make(chan error, 1)
	go func() {
		_, err := rt.Write(wgd, payload)
		done <- err
	}()

	got := make([]byte, len(payload))
	_, err := rt.Read(rgd, got)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, payload, got)

	assert.NoError(t, rt.Close(wgd, WriteOnly))
	assert.NoError(t, rt.Close(rgd, ReadOnly))
}

func TestPipeParamBidirectionalFacade(t *testing.T) {
	rt := New()
	p := Init(Pipe)
	gd, err := rt.PipeParam(p)
	require.NoError(t, err)
	defer rt.Close(gd, ReadWrite)

	_, err = rt.Write(gd, []byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = rt.Read(gd, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestDeclareEnclavesTwiceFails(t *testing.T) {
	rt := New()
	require.NoError(t, rt.DeclareEnclaves("a", "b"))
	assert.ErrorIs(t, rt.DeclareEnclaves("c"), ErrInvalidArgument)
}
