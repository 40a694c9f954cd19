package transport

import "github.com/opsnexus/chrt/internal/chrterr"

func errInvalidKind() error {
	return chrterr.New(chrterr.NoDevice, "transport.New")
}
