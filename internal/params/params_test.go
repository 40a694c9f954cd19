package params

import (
	"testing"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver is a minimal EnclaveResolver for tests, mirroring the
// real enclave table's name<->1-based-index mapping.
type stubResolver struct {
	names []string
}

func (s stubResolver) Index(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i + 1, true
		}
	}
	return 0, false
}

func (s stubResolver) Name(index int) (string, bool) {
	if index <= 0 || index > len(s.names) {
		return "", false
	}
	return s.names[index-1], true
}

func TestParseUnparseRoundTrip_Canonical(t *testing.T) {
	// property 4: unparse(parse(s)) == s for canonical s (no defaults,
	// no unknown keys).
	cases := []string{
		"device,/dev/null,iov_len=0",
		"pipe,/tmp/x",
		"tcp_socket,127.0.0.1,5555",
		"uio",
	}
	for _, s := range cases {
		p, err := Parse(s, nil)
		require.NoError(t, err, s)
		buf := make([]byte, 256)
		n, err := Unparse(p, buf, nil)
		require.NoError(t, err, s)
		assert.Equal(t, s, string(buf[:n]), s)
	}
}

func TestParseUnparseRoundTrip_ByValue(t *testing.T) {
	// property 5: parse(unparse(p)) == p for well-formed p.
	p := &ChannelParams{Kind: TCPSocket}
	p.TCPSocket.Addr = "10.0.0.1"
	p.TCPSocket.Port = 9000
	p.Shared.MTU = 512
	p.Shared.setMTU()

	buf := make([]byte, 128)
	n, err := Unparse(p, buf, nil)
	require.NoError(t, err)

	p2, err := Parse(string(buf[:n]), nil)
	require.NoError(t, err)
	assert.Equal(t, p.TCPSocket, p2.TCPSocket)
	assert.Equal(t, p.Shared.MTU, p2.Shared.MTU)
}

func TestUnparseTruncation(t *testing.T) {
	// S3: parse "device,/dev/null,iov_len=0" then unparse into buffers
	// of varying size, matching the snprintf truncation contract.
	p, err := Parse("device,/dev/null,iov_len=0", nil)
	require.NoError(t, err)

	buf80 := make([]byte, 80)
	n, err := Unparse(p, buf80, nil)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, "device,/dev/null,iov_len=0", string(buf80[:n]))

	buf25 := make([]byte, 25)
	n, err = Unparse(p, buf25, nil)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, "device,/dev/null,iov_len", string(buf25[:24]))
	assert.Equal(t, byte(0), buf25[24])
}

func TestParseEnclaveNames(t *testing.T) {
	// S4: declare_enclaves("foo","baz","bar"); parse
	// "device,/dev/null,src=foo,dst=bar"; expect src==1, dst==3.
	r := stubResolver{names: []string{"foo", "baz", "bar"}}
	p, err := Parse("device,/dev/null,src=foo,dst=bar", r)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Shared.SrcEnclave)
	assert.Equal(t, 3, p.Shared.DstEnclave)
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, err := Parse("device,/dev/null,bogus=1", nil)
	assert.ErrorIs(t, err, chrterr.ErrInvalidArgument)
}

func TestParseBadPort(t *testing.T) {
	_, err := Parse("tcp_socket,127.0.0.1,not-a-port", nil)
	assert.Error(t, err)
}

func TestParseSrcWithoutResolverFails(t *testing.T) {
	_, err := Parse("device,/dev/null,src=foo", nil)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	p, err := Parse("pipe,/tmp/x", nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultMinTxSize), p.EffectiveMinTxSize())
	assert.Equal(t, uint32(0), p.EffectiveMTU())

	p, err = Parse("serial,/dev/ttyS0", nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultSerialMTU), p.EffectiveMTU())
	assert.Equal(t, uint32(DefaultBaud), p.Serial.Baud)
}
