package artnet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/Haba1234/go-artnet"
	"github.com/Haba1234/go-artnet/packet"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

// IPResolver finds the local address the art-net socket binds to.
type IPResolver func() (net.IP, error)

// Resolver returns FindArtNetIP for a configured network, HostIP otherwise.
func Resolver(network string) IPResolver {
	if network == "" {
		return HostIP
	}
	return func() (net.IP, error) { return FindArtNetIP(network) }
}

// Sender transmits one or more universes over art-net, one packet per universe.
type Sender struct {
	logger    logger.Logger
	transport Transport
	resolve   IPResolver

	mu        sync.Mutex
	universes []uint8
	frames    map[uint8]*packet.ArtDMXPacket
	open      bool
}

var _ output.Sender = (*Sender)(nil)

func NewSender(log logger.Logger, transport Transport, resolve IPResolver) *Sender {
	if resolve == nil {
		resolve = HostIP
	}
	return &Sender{
		logger:    log,
		transport: transport,
		resolve:   resolve,
		frames:    map[uint8]*packet.ArtDMXPacket{},
	}
}

// SetUniverses sets the universes sent each tick, in order.
func (s *Sender) SetUniverses(ids []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.universes = append([]uint8(nil), ids...)
	for _, u := range ids {
		if _, ok := s.frames[u]; ok {
			continue
		}
		addr := universeToAddress(uint16(u))
		p := packet.NewArtDMXPacket()
		p.Net = addr.Net
		p.SubUni = addr.SubUni
		p.Length = 512
		s.frames[u] = p
	}
}

func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}

	ip, err := s.resolve()
	if err != nil {
		s.logger.Module("art-net").Warnf("local IP not found, binding to all interfaces: %v", err)
		ip = net.IPv4zero
	}
	if err := s.transport.Open(ip); err != nil {
		return fmt.Errorf("%w: art-net on %s: %v", output.ErrTransportUnavailable, ip, err)
	}
	s.open = true
	s.logger.Module("art-net").Infof("sending universes %v from %s", s.universes, ip)
	return nil
}

// Send transmits every bound universe. A failed universe does not stop the
// others; all failures are returned together.
func (s *Sender) Send(src output.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}

	var errs []error
	for _, u := range s.universes {
		if err := s.sendUniverse(src, u); err != nil {
			s.logger.With(logger.Fields{"module": "art-net", "universe": u}).Warnf("send failed: %v", err)
			errs = append(errs, fmt.Errorf("universe %d: %w", u, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", output.ErrPartialSend, errors.Join(errs...))
	}
	return nil
}

func (s *Sender) sendUniverse(src output.Source, u uint8) error {
	data, err := src.Universe(u)
	if err != nil {
		return err
	}
	frame := s.frames[u]
	frame.Data = data
	return s.transport.Send(frame)
}

func (s *Sender) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	return s.transport.Close()
}

// Frame returns the last data placed in the universe's outgoing packet.
func (s *Sender) Frame(u uint8) ([512]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.frames[u]
	if !ok {
		return [512]byte{}, false
	}
	return p.Data, true
}

// universeToAddress converts a dmx universe to art-net address
// universe: старший байт - Net, младший байт - SubUni.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}
