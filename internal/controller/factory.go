package controller

import (
	"fmt"
	"time"

	"lightscontroller/internal/artnet"
	"lightscontroller/internal/dmxpro"
	"lightscontroller/internal/logger"
	"lightscontroller/internal/ola"
	"lightscontroller/internal/output"
)

// FactoryConf describes the physical outputs.
type FactoryConf struct {
	SerialDevice    string        // SerialDevice - порт адаптера, пусто - последний найденный.
	ReadyTimeout    time.Duration // ReadyTimeout - ожидание инициализации адаптера.
	ArtNetTransport string        // ArtNetTransport - broadcast или nodes.
	ArtNetNetwork   string        // ArtNetNetwork - CIDR сети art-net.
	ArtNetTarget    string        // ArtNetTarget - адрес назначения для broadcast.
	ArtNetPort      int           // ArtNetPort - UDP порт.
	ArtNetMaxFPS    int           // ArtNetMaxFPS - для режима nodes.
	OLAAddress      string        // OLAAddress - адрес демона OLA.
}

// DefaultFactory builds real senders from configuration.
type DefaultFactory struct {
	log  logger.Logger
	conf FactoryConf
}

func NewFactory(log logger.Logger, conf FactoryConf) *DefaultFactory {
	return &DefaultFactory{log: log, conf: conf}
}

func (f *DefaultFactory) Build(mode output.Mode, universes []uint8) ([]output.Sender, error) {
	switch mode {
	case output.Dmx:
		return f.buildDmx(universes)
	case output.ArtNet:
		tr, err := f.artnetTransport()
		if err != nil {
			return nil, err
		}
		s := artnet.NewSender(f.log, tr, artnet.Resolver(f.conf.ArtNetNetwork))
		s.SetUniverses(universes)
		return []output.Sender{s}, nil
	case output.Ola:
		s := ola.NewSender(f.log, f.conf.OLAAddress, nil)
		s.SetUniverses(universes)
		return []output.Sender{s}, nil
	}
	return nil, fmt.Errorf("%w: unknown send mode %s", output.ErrConfiguration, mode)
}

// buildDmx binds universes[0] to port 1 and universes[1] to port 2 of one adapter.
func (f *DefaultFactory) buildDmx(universes []uint8) ([]output.Sender, error) {
	if len(universes) != 2 {
		return nil, fmt.Errorf("%w: dmx needs exactly 2 universes", output.ErrConfiguration)
	}
	line := dmxpro.NewLine(f.log, f.conf.SerialDevice)
	ports := []dmxpro.Port{dmxpro.Port1, dmxpro.Port2}

	senders := make([]output.Sender, 0, len(ports))
	for i, p := range ports {
		s, err := dmxpro.NewSender(f.log, line, p, universes[i], f.conf.ReadyTimeout)
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	return senders, nil
}

func (f *DefaultFactory) artnetTransport() (artnet.Transport, error) {
	switch f.conf.ArtNetTransport {
	case "", "broadcast":
		return artnet.NewUDPTransport(f.conf.ArtNetTarget, f.conf.ArtNetPort)
	case "nodes":
		return artnet.NewNodeTransport(f.log, f.conf.ArtNetMaxFPS), nil
	}
	return nil, fmt.Errorf("%w: unknown art-net transport %q", output.ErrConfiguration, f.conf.ArtNetTransport)
}
