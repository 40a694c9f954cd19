package params

import (
	"strconv"
	"strings"

	"github.com/opsnexus/chrt/internal/chrterr"
)

// Unparse renders p into buf following the widely-known snprintf
// contract: at most len(buf)-1 bytes of the rendered string are
// written, followed by a trailing NUL byte (if buf is non-empty), and
// the return value is always the number of bytes the full,
// untruncated rendering would have occupied — so a caller who gets
// back len(buf) or more knows the output was truncated and can retry
// with a bigger buffer (§4.1).
func Unparse(p *ChannelParams, buf []byte, resolver EnclaveResolver) (int, error) {
	rendered, err := render(p, resolver)
	if err != nil {
		return 0, err
	}
	n := copy(buf, rendered)
	if n < len(buf) {
		buf[n] = 0
	} else if len(buf) > 0 {
		buf[len(buf)-1] = 0
		n = len(buf) - 1
	}
	return len(rendered), nil
}

func render(p *ChannelParams, resolver EnclaveResolver) (string, error) {
	const op = "params.Unparse"
	name, ok := kindNames[p.Kind]
	if !ok {
		return "", chrterr.New(chrterr.InvalidArgument, op)
	}

	var fields []string
	fields = append(fields, name)

	switch p.Kind {
	case Device:
		fields = append(fields, p.Device.Path)
	case Pipe:
		fields = append(fields, p.Pipe.Path)
	case UnixSocket:
		fields = append(fields, p.UnixSocket.Path)
	case TCPSocket:
		fields = append(fields, p.TCPSocket.Addr, strconv.Itoa(int(p.TCPSocket.Port)))
	case UDPSocket:
		fields = append(fields, p.UDPSocket.Addr, strconv.Itoa(int(p.UDPSocket.Port)))
	case Serial:
		fields = append(fields, p.Serial.Path)
	case Mercury:
		fields = append(fields,
			strconv.Itoa(int(p.Mercury.Level)),
			strconv.Itoa(int(p.Mercury.SrcID)),
			strconv.Itoa(int(p.Mercury.DstID)),
		)
		for _, id := range p.Mercury.MsgIDs {
			fields = append(fields, strconv.Itoa(int(id)))
		}
	case GEEth:
		fields = append(fields, p.GEEth.Addr, strconv.Itoa(int(p.GEEth.Port)), strconv.Itoa(int(p.GEEth.MsgID)))
	case Shmem:
		fields = append(fields, p.Shmem.Path)
	case UDPShmem:
		fields = append(fields, p.UDPShmem.Path)
	case UIO:
		if p.UIO.Path != "" && p.UIO.Path != DefaultUIOPath {
			fields = append(fields, p.UIO.Path)
		}
	default:
		return "", chrterr.New(chrterr.InvalidArgument, op)
	}

	// Kind-specific keys, elided against their defaults.
	switch p.Kind {
	case Device:
		// iov_len carries no table-defined default-elision rule; it is
		// always rendered once present on the record.
		fields = append(fields, "iov_len="+strconv.Itoa(int(p.Device.IovLen)))
	case Serial:
		if p.Serial.Baud != 0 && p.Serial.Baud != DefaultBaud {
			fields = append(fields, "baud="+strconv.Itoa(int(p.Serial.Baud)))
		}
	}

	// Shared keys, in table order (§4.1): src/dst/listener/control are
	// elided at their zero value; min_tx_size/mtu/buffer_size are elided
	// unless they were explicitly present in the parsed source.
	if p.Shared.SrcEnclave != 0 {
		n, ok := resolveName(p.Shared.SrcEnclave, resolver)
		if !ok {
			return "", chrterr.New(chrterr.InvalidArgument, op)
		}
		fields = append(fields, "src="+n)
	}
	if p.Shared.DstEnclave != 0 {
		n, ok := resolveName(p.Shared.DstEnclave, resolver)
		if !ok {
			return "", chrterr.New(chrterr.InvalidArgument, op)
		}
		fields = append(fields, "dst="+n)
	}
	if p.Shared.Listener {
		fields = append(fields, "listener=1")
	}
	if p.Shared.Control {
		fields = append(fields, "control=1")
	}
	if p.Shared.minTxSizeSet {
		fields = append(fields, "min_tx_size="+strconv.Itoa(int(p.Shared.MinTxSize)))
	}
	if p.Shared.mtuSet {
		fields = append(fields, "mtu="+strconv.Itoa(int(p.Shared.MTU)))
	}
	if p.Shared.bufferSizeSet {
		fields = append(fields, "buffer_size="+strconv.Itoa(int(p.Shared.BufferSize)))
	}

	return strings.Join(fields, ","), nil
}

func resolveName(index int, resolver EnclaveResolver) (string, bool) {
	if resolver == nil {
		return "", false
	}
	return resolver.Name(index)
}
