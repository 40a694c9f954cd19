package transport

import (
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnexus/chrt/internal/params"
)

// TestSerialRoundTrip exercises the serial driver against a real pty
// pair instead of a physical line: the slave side's device node is
// what a serial,<path> config string names, and the master side plays
// the part of whatever is attached to the far end of the wire.
func TestSerialRoundTrip(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	p, err := params.Parse("serial,"+slave.Name()+",min_tx_size=0", nil)
	require.NoError(t, err)
	d := newSerialDriver(p)
	require.NoError(t, d.Open(params.ReadOnly))
	defer d.Close()

	fd, ok := d.RawFD()
	require.True(t, ok)
	assert.Greater(t, fd, 0)

	done := make(chan error, 1)
	go func() {
		_, werr := master.Write([]byte("serial-ping"))
		done <- werr
	}()

	buf := make([]byte, len("serial-ping"))
	n, err := d.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "serial-ping", string(buf[:n]))
}
