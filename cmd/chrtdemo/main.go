// Command chrtdemo is a minimal two-enclave ping-pong demo of the
// cooperative scheduler: given a topology file and this process's
// enclave name, it declares enclaves, opens the channels the topology
// names, and loops yield/listen with its peer. It replaces the
// original demo programs' ad hoc per-flag channel construction with
// one topology document shared by every cooperating process.
package main

import (
	"encoding/binary"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/opsnexus/chrt"
	"github.com/opsnexus/chrt/internal/logging"
	"github.com/opsnexus/chrt/internal/topology"
)

func main() {
	topoPath := flag.String("topology", "", "path to the topology YAML document")
	peer := flag.String("peer", "", "enclave name to yield to (defaults to the other declared enclave)")
	rounds := flag.Int("rounds", 10, "number of ping-pong rounds before exiting (0 = run until signaled)")
	dev := flag.Bool("dev", false, "use development (console) logging instead of production JSON")
	flag.Parse()

	var lg *logging.Logger
	if *dev {
		lg = logging.NewDevelopment()
	} else {
		lg = logging.NewDefault()
	}
	defer lg.Sync()

	if *topoPath == "" {
		lg.Fatal("-topology is required")
	}
	top, err := topology.Load(*topoPath)
	if err != nil {
		lg.Fatal("failed to load topology", zap.Error(err))
	}

	log := lg.ForEnclave(top.CurrentRole)
	rt := chrt.New(chrt.WithLogger(log))
	if err := rt.DeclareEnclaves(top.Enclaves...); err != nil {
		log.Fatal("failed to declare enclaves", zap.Error(err))
	}

	peerName := *peer
	if peerName == "" {
		for _, name := range top.Enclaves {
			if name != top.CurrentRole {
				peerName = name
				break
			}
		}
	}

	listenerGD := -1
	controlGDs := make([]int, 0, len(top.Channels))
	for _, ch := range top.Channels {
		dir, err := ch.ParseDirection()
		if err != nil {
			log.Fatal("bad channel direction", zap.String("name", ch.Name), zap.Error(err))
		}
		gd, err := rt.Open(ch.Config, dir)
		if err != nil {
			log.Fatal("failed to open channel", zap.String("name", ch.Name), zap.Error(err))
		}
		log.Info("channel opened", zap.String("name", ch.Name), zap.Int("gd", gd))

		switch ch.Role {
		case "listener":
			if err := rt.AddListenerChannel(gd); err != nil {
				log.Fatal("failed to register listener channel", zap.Error(err))
			}
			listenerGD = gd
		case "control":
			if err := rt.AddControlChannel(gd); err != nil {
				log.Fatal("failed to register control channel", zap.Error(err))
			}
			controlGDs = append(controlGDs, gd)
		}
	}

	received := make(chan uint32, 1)
	if listenerGD >= 0 {
		if err := rt.RegisterListener(listenerGD, 4, func(payload []byte) {
			received <- binary.LittleEndian.Uint32(payload)
		}); err != nil {
			log.Fatal("failed to register payload listener", zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go runLoop(rt, log, peerName, *rounds, received, done)

	select {
	case <-sigCh:
		log.Info("shutting down on signal")
	case <-done:
		log.Info("rounds complete")
	}
	if err := rt.CloseAll(); err != nil {
		log.Warn("error closing channels", zap.Error(err))
	}
}

func runLoop(rt *chrt.Runtime, log *zap.Logger, peer string, rounds int, received <-chan uint32, done chan<- struct{}) {
	defer close(done)
	for i := 0; rounds == 0 || i < rounds; i++ {
		if err := rt.Listen(); err != nil {
			log.Error("listen failed", zap.Error(err))
			return
		}
		select {
		case v := <-received:
			log.Info("received", zap.Uint32("value", v))
		default:
		}
		if err := rt.Yield(peer); err != nil {
			log.Error("yield failed", zap.Error(err))
			return
		}
	}
}
