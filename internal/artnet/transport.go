package artnet

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Haba1234/go-artnet"
	"github.com/Haba1234/go-artnet/packet"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

// Port is the standard art-net UDP port.
const Port = 6454

// Transport carries ready-built ArtDMX packets.
type Transport interface {
	Open(ip net.IP) error
	Send(p *packet.ArtDMXPacket) error
	Close() error
}

// UDPTransport writes every packet to one target address, normally the
// broadcast address of the art-net network.
type UDPTransport struct {
	target *net.UDPAddr

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewUDPTransport(target string, port int) (*UDPTransport, error) {
	if port == 0 {
		port = Port
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(target, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: art-net target %q: %v", output.ErrConfiguration, target, err)
	}
	return &UDPTransport{target: addr}, nil
}

// Open binds a local socket on ip. An unspecified ip binds all interfaces.
func (t *UDPTransport) Open(ip net.IP) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip})
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *UDPTransport) Send(p *packet.ArtDMXPacket) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", output.ErrEncodeLengthMismatch, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return output.ErrTransportUnavailable
	}
	if _, err := t.conn.WriteToUDP(b, t.target); err != nil {
		return fmt.Errorf("%w: %v", output.ErrIO, err)
	}
	return nil
}

func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// LocalAddr is the bound socket address, nil while closed.
func (t *UDPTransport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// NodeTransport hands packets to a go-artnet controller, which polls the
// network for nodes and unicasts each universe to the nodes that output it.
type NodeTransport struct {
	log    logger.Logger
	maxFPS int

	mu     sync.Mutex
	sender *artnet.Controller
	stop   chan struct{}
}

func NewNodeTransport(log logger.Logger, maxFPS int) *NodeTransport {
	return &NodeTransport{log: log, maxFPS: maxFPS}
}

func (t *NodeTransport) Open(ip net.IP) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sender != nil {
		return nil
	}

	level := "info"
	if t.log.GetLevel() == "debug" {
		level = "debug"
	}
	host := hostName()
	t.log.Module("art-net").Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	sender := artnet.NewController(host, ip, artnet.NewDefaultLogger(level), artnet.MaxFPS(t.maxFPS))
	if err := sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}
	t.sender = sender
	t.stop = make(chan struct{})
	go t.debugDevices(sender, t.stop)
	return nil
}

func (t *NodeTransport) Send(p *packet.ArtDMXPacket) error {
	t.mu.Lock()
	sender := t.sender
	t.mu.Unlock()
	if sender == nil {
		return output.ErrTransportUnavailable
	}
	sender.SendDMXToAddress(p.Data, artnet.Address{Net: p.Net, SubUni: p.SubUni})
	return nil
}

func (t *NodeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sender == nil {
		return nil
	}
	close(t.stop)
	t.sender.Stop()
	t.sender = nil
	return nil
}

func (t *NodeTransport) debugDevices(sender *artnet.Controller, stop <-chan struct{}) {
	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			nodes := make([]string, 0, len(sender.Nodes))
			for _, n := range sender.Nodes {
				nodes = append(nodes, NodeToString(n))
			}
			t.log.Module("art-net").Debugf("Currently %d devices are registered: %v", len(nodes), nodes)
		}
	}
}

// NodeToString returns a string representation of the given Node.
func NodeToString(n *artnet.ControlledNode) string {
	var inputs, outputs []string
	for _, p := range n.Node.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}
	for _, p := range n.Node.OutputPorts {
		outputs = append(outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	return fmt.Sprintf(
		"IP=%s name=%q type=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.UDPAddress.String(), n.Node.Name, n.Node.Type,
		n.Node.Manufacturer, n.Node.Description,
		strings.Join(inputs, "; "), strings.Join(outputs, "; "),
	)
}
