package transport

import (
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"github.com/opsnexus/chrt/internal/params"
)

// freeTCPPort borrows x/net/nettest's loopback-listener probing to find
// a port the OS will actually let us bind, rather than guessing a
// fixed one and racing every other test in the package.
func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// TestTCPSocketRoundTrip exercises the tcp_socket driver end to end:
// reader side listens and accepts, writer side dials with retry until
// the listener is up.
func TestTCPSocketRoundTrip(t *testing.T) {
	port := freeTCPPort(t)
	cfg := fmt.Sprintf("tcp_socket,127.0.0.1,%d", port)

	rp, err := params.Parse(cfg, nil)
	require.NoError(t, err)
	wp, err := params.Parse(cfg, nil)
	require.NoError(t, err)

	reader := newTCPSocketDriver(rp)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, reader.Open(params.ReadOnly))
	}()

	writer := newTCPSocketDriver(wp)
	require.NoError(t, writer.Open(params.WriteOnly))
	wg.Wait()
	defer reader.Close()
	defer writer.Close()

	payload := []byte("tcp-ping")
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
