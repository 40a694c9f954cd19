package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// TestUIOOpenMissingDeviceReportsTransportLevel exercises the
// absent-hardware path: opening a uio device node that does not exist
// surfaces the open(2) failure as a transport-level error.
func TestUIOOpenMissingDeviceReportsTransportLevel(t *testing.T) {
	p, err := params.Parse("uio,/dev/chrt-test-nonexistent-uio0", nil)
	require.NoError(t, err)

	d := newUIODriver(p)
	err = d.Open(params.ReadOnly)
	assert.ErrorIs(t, err, chrterr.ErrTransportLevel)
}
