// Package topology is the bootstrap convenience layer that replaces
// the two divergent, hand-rolled CLI flag parsers of the original demo
// programs with a single YAML document: the declared enclave order and
// the channel option-strings this process should open at startup. It
// introduces no new core semantics — internal/registry and
// internal/scheduler are fully usable without it.
package topology

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// ChannelSpec is one entry in a Topology's channel list: a config
// string to open, the direction to open it in, and whether it should
// be registered with the scheduler as a listener or control channel
// once opened.
type ChannelSpec struct {
	Name      string `yaml:"name"`
	Config    string `yaml:"config"`
	Direction string `yaml:"direction"` // "read", "write", or "readwrite"
	Role      string `yaml:"role"`      // "listener", "control", or "" for a plain data channel
}

// Topology is the decoded bootstrap document: the enclave declaration
// order shared by every cooperating process, and the channel list for
// whichever enclave this process is running as.
type Topology struct {
	Enclaves    []string      `yaml:"enclaves"`
	CurrentRole string        `yaml:"current_role"`
	Channels    []ChannelSpec `yaml:"channels"`
}

// ParseDirection maps a ChannelSpec's Direction string to a
// params.Direction, defaulting to ReadOnly for an empty string.
func (c ChannelSpec) ParseDirection() (params.Direction, error) {
	switch c.Direction {
	case "", "read":
		return params.ReadOnly, nil
	case "write":
		return params.WriteOnly, nil
	case "readwrite":
		return params.ReadWrite, nil
	default:
		return 0, chrterr.New(chrterr.InvalidArgument, "topology.ParseDirection")
	}
}

// Load reads and decodes the YAML topology document at path.
func Load(path string) (*Topology, error) {
	const op = "topology.Load"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}
	if len(t.Enclaves) == 0 {
		return nil, chrterr.New(chrterr.InvalidArgument, op)
	}
	if _, ok := indexOf(t.Enclaves, t.CurrentRole); t.CurrentRole != "" && !ok {
		return nil, chrterr.Wrap(chrterr.InvalidArgument, op, fmt.Errorf("current_role %q not in enclaves", t.CurrentRole))
	}
	return &t, nil
}

func indexOf(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
