package params

import (
	"strconv"
	"strings"

	"github.com/opsnexus/chrt/internal/chrterr"
)

// Parse consumes a config string of the form
// <kind>,<positional>*(,<key>=<value>)* (§4.1) and returns the decoded
// ChannelParams. resolver may be nil if the string is known not to use
// src=/dst= (a nil resolver with a src=/dst= key is an invalid
// argument, since there is nothing to validate the name against).
func Parse(s string, resolver EnclaveResolver) (*ChannelParams, error) {
	const op = "params.Parse"
	tokens := strings.Split(s, ",")
	if len(tokens) == 0 || tokens[0] == "" {
		return nil, chrterr.New(chrterr.InvalidArgument, op)
	}

	kind, ok := KindByName(tokens[0])
	if !ok {
		return nil, chrterr.New(chrterr.InvalidArgument, op)
	}

	positional, kvTokens, err := splitFields(tokens[1:])
	if err != nil {
		return nil, chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}

	p := &ChannelParams{Kind: kind}
	if err := parsePositional(p, positional); err != nil {
		return nil, chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}

	for _, kv := range kvTokens {
		key, val, _ := strings.Cut(kv, "=")
		if err := applyKey(p, key, val, resolver); err != nil {
			return nil, chrterr.Wrap(chrterr.InvalidArgument, op, err)
		}
	}

	return p, nil
}

// splitFields separates the positional tokens (which must all precede
// any key=value token) from the key=value tokens, enforcing the
// grammar's strict ordering.
func splitFields(rest []string) (positional, kv []string, err error) {
	seenKV := false
	for _, tok := range rest {
		isKV := strings.Contains(tok, "=")
		if isKV {
			seenKV = true
			kv = append(kv, tok)
			continue
		}
		if seenKV {
			return nil, nil, chrterr.ErrInvalidArgument
		}
		positional = append(positional, tok)
	}
	return positional, kv, nil
}

func parsePositional(p *ChannelParams, pos []string) error {
	switch p.Kind {
	case Device:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.Device.Path = pos[0]
	case Pipe:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.Pipe.Path = pos[0]
	case UnixSocket:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.UnixSocket.Path = pos[0]
	case TCPSocket:
		addr, port, err := parseAddrPort(pos, DefaultLoopback)
		if err != nil {
			return err
		}
		p.TCPSocket.Addr, p.TCPSocket.Port = addr, port
	case UDPSocket:
		addr, port, err := parseAddrPort(pos, DefaultLoopback)
		if err != nil {
			return err
		}
		p.UDPSocket.Addr, p.UDPSocket.Port = addr, port
	case Serial:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.Serial.Path = pos[0]
		p.Serial.Baud = DefaultBaud
		p.Serial.MTU = DefaultSerialMTU
	case Mercury:
		if len(pos) < 3 {
			return chrterr.ErrInvalidArgument
		}
		level, err := parseUint32(pos[0])
		if err != nil {
			return err
		}
		src, err := parseUint32(pos[1])
		if err != nil {
			return err
		}
		dst, err := parseUint32(pos[2])
		if err != nil {
			return err
		}
		p.Mercury.Level, p.Mercury.SrcID, p.Mercury.DstID = level, src, dst
		for _, m := range pos[3:] {
			id, err := parseUint32(m)
			if err != nil {
				return err
			}
			p.Mercury.MsgIDs = append(p.Mercury.MsgIDs, id)
		}
	case GEEth:
		if len(pos) != 3 {
			return chrterr.ErrInvalidArgument
		}
		addr, port, err := parseAddrPort(pos[:2], "")
		if err != nil {
			return err
		}
		msgID, err := parseUint32(pos[2])
		if err != nil {
			return err
		}
		p.GEEth.Addr, p.GEEth.Port, p.GEEth.MsgID = addr, port, msgID
	case Shmem:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.Shmem.Path = pos[0]
	case UDPShmem:
		if len(pos) != 1 {
			return chrterr.ErrInvalidArgument
		}
		p.UDPShmem.Path = pos[0]
	case UIO:
		switch len(pos) {
		case 0:
			p.UIO.Path = DefaultUIOPath
		case 1:
			p.UIO.Path = pos[0]
		default:
			return chrterr.ErrInvalidArgument
		}
	default:
		return chrterr.ErrInvalidArgument
	}
	return nil
}

func parseAddrPort(pos []string, defaultAddr string) (string, uint16, error) {
	if len(pos) != 2 {
		return "", 0, chrterr.ErrInvalidArgument
	}
	addr := pos[0]
	if addr == "" {
		addr = defaultAddr
	}
	port, err := strconv.ParseUint(pos[1], 10, 16)
	if err != nil {
		return "", 0, chrterr.ErrInvalidArgument
	}
	return addr, uint16(port), nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, chrterr.ErrInvalidArgument
	}
	return uint32(v), nil
}

func applyKey(p *ChannelParams, key, val string, resolver EnclaveResolver) error {
	switch key {
	case "src":
		idx, err := resolveEnclave(val, resolver)
		if err != nil {
			return err
		}
		p.Shared.SrcEnclave = idx
	case "dst":
		idx, err := resolveEnclave(val, resolver)
		if err != nil {
			return err
		}
		p.Shared.DstEnclave = idx
	case "listener":
		b, err := parseBool01(val)
		if err != nil {
			return err
		}
		p.Shared.Listener = b
	case "control":
		b, err := parseBool01(val)
		if err != nil {
			return err
		}
		p.Shared.Control = b
	case "min_tx_size":
		n, err := parseUint32(val)
		if err != nil {
			return err
		}
		p.Shared.MinTxSize = n
		p.Shared.setMinTxSize()
	case "mtu":
		n, err := parseUint32(val)
		if err != nil {
			return err
		}
		p.Shared.MTU = n
		p.Shared.setMTU()
		if p.Kind == Serial {
			p.Serial.MTU = n
		}
		if p.Kind == GEEth {
			p.GEEth.MTU = n
		}
	case "buffer_size":
		n, err := parseUint32(val)
		if err != nil {
			return err
		}
		p.Shared.BufferSize = n
		p.Shared.setBufferSize()
	case "iov_len":
		if p.Kind != Device {
			return chrterr.ErrInvalidArgument
		}
		n, err := parseUint32(val)
		if err != nil {
			return err
		}
		p.Device.IovLen = n
	case "baud":
		if p.Kind != Serial {
			return chrterr.ErrInvalidArgument
		}
		n, err := parseUint32(val)
		if err != nil {
			return err
		}
		p.Serial.Baud = n
	default:
		return chrterr.ErrInvalidArgument
	}
	return nil
}

func resolveEnclave(name string, resolver EnclaveResolver) (int, error) {
	if resolver == nil {
		return 0, chrterr.ErrInvalidArgument
	}
	idx, ok := resolver.Index(name)
	if !ok {
		return 0, chrterr.ErrInvalidArgument
	}
	return idx, nil
}

func parseBool01(val string) (bool, error) {
	switch val {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, chrterr.ErrInvalidArgument
	}
}
