package transport

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnexus/chrt/internal/params"
)

func TestUnixSocketRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrt.sock")
	cfg := "unix_socket," + path

	rp, err := params.Parse(cfg, nil)
	require.NoError(t, err)
	wp, err := params.Parse(cfg, nil)
	require.NoError(t, err)

	reader := newUnixSocketDriver(rp)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, reader.Open(params.ReadOnly))
	}()

	writer := newUnixSocketDriver(wp)
	require.NoError(t, writer.Open(params.WriteOnly))
	wg.Wait()
	defer reader.Close()
	defer writer.Close()

	payload := []byte("unix-ping")
	done := make(chan error, 1)
	go func() {
		_, werr := writer.Write(payload)
		done <- werr
	}()

	got := make([]byte, len(payload))
	_, err = reader.Read(got)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, payload, got)
}
