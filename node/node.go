package node

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/config"
	"github.com/arcana-network/roastnode/coordinator"
	"github.com/arcana-network/roastnode/frost"
	"github.com/arcana-network/roastnode/server"
)

// Service is anything the node starts and stops with its own lifecycle.
type Service interface {
	ID() string
	Start() error
	Stop() error
}

// Start wires the coordinator to its wire surface and runs until
// interrupted.
func Start(conf *config.Config) {
	config.GlobalConfig = conf
	log.SetLevel(log.InfoLevel)

	core := coordinator.New(conf, frost.NewSecp256k1Suite())

	services := []Service{
		server.New(core),
	}
	for _, s := range services {
		if err := s.Start(); err != nil {
			log.Fatalf("Error while starting service=%s, err=%s", s.ID(), err)
		}
	}

	log.WithFields(log.Fields{
		"ListenAddress": conf.ListenAddress,
		"GroupID":       conf.Group.ID,
		"GroupSize":     conf.Group.Size(),
	}).Info("roast coordination node started")

	stopOnInterrupt(services)
}

func stopOnInterrupt(services []Service) {
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	osSig := <-osSignal
	log.Println("Termination started, signal: " + osSig.String())
	for _, s := range services {
		if err := s.Stop(); err != nil {
			log.Fatalf("Error while stopping service=%s, err=%s", s.ID(), err)
		}
	}
}
