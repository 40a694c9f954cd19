package transport

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"

	"github.com/opsnexus/chrt/internal/params"
)

func freeUDPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	port := ln.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// TestGEEthRoundTrip exercises the message-id-stamped UDP driver: a
// datagram written with msg_id=7 reaches a reader configured for
// msg_id=7 with the 4-byte id header stripped.
func TestGEEthRoundTrip(t *testing.T) {
	require.True(t, nettest.SupportsIPv4())
	port := freeUDPPort(t)
	cfg := fmt.Sprintf("ge_eth,127.0.0.1,%d,7", port)

	rp, err := params.Parse(cfg, nil)
	require.NoError(t, err)
	reader := newGEEthDriver(rp)
	require.NoError(t, reader.Open(params.ReadOnly))
	defer reader.Close()

	wp, err := params.Parse(cfg, nil)
	require.NoError(t, err)
	writer := newGEEthDriver(wp)
	require.NoError(t, writer.Open(params.WriteOnly))
	defer writer.Close()

	done := make(chan error, 1)
	go func() {
		_, werr := writer.Write([]byte("ge-eth-ping"))
		done <- werr
	}()

	buf := make([]byte, 64)
	n, err := reader.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "ge-eth-ping", string(buf[:n]))
}
