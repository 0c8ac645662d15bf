package dmxpro

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

const (
	baudRate    = 57600
	readTimeout = 50 * time.Millisecond
)

// Opener opens the serial device. Tests replace it.
type Opener func(device string) (io.WriteCloser, error)

// Line is the single serial connection to the adapter. Both port senders
// write through it. wmu keeps their frames from interleaving; mu guards the
// connection itself, so Close never waits behind a stalled write.
type Line struct {
	log    logger.Logger
	device string
	open   Opener

	wmu sync.Mutex

	mu    sync.Mutex
	port  io.WriteCloser
	users int
	ready *readiness
}

// readiness is the outcome of one handshake. err is set before done closes.
type readiness struct {
	done chan struct{}
	err  error
}

// NewLine creates a closed line. An empty device selects the last serial
// port reported by the system.
func NewLine(log logger.Logger, device string) *Line {
	return &Line{
		log:    log,
		device: device,
		open:   OpenSerial,
	}
}

// WithOpener replaces how the device is opened.
func (l *Line) WithOpener(o Opener) *Line {
	l.open = o
	return l
}

// OpenSerial opens the device at 57600 8N1.
func OpenSerial(device string) (io.WriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func lastSerialPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	return ports[len(ports)-1], nil
}

// Open connects to the adapter on first use and starts the one-time
// handshake in the background. Further calls only register another user.
func (l *Line) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port != nil {
		l.users++
		return nil
	}

	device := l.device
	if device == "" {
		var err error
		if device, err = lastSerialPort(); err != nil {
			return fmt.Errorf("%w: %v", output.ErrTransportUnavailable, err)
		}
	}

	p, err := l.open(device)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", output.ErrTransportUnavailable, device, err)
	}
	l.port = p
	l.users = 1
	l.ready = &readiness{done: make(chan struct{})}
	l.log.Module("dmx").Infof("serial line %s opened", device)

	go l.handshake(p, l.ready)
	return nil
}

// handshake asks the adapter for the extended API once per opened device.
// It holds only wmu while writing: a stalled device must not lock out Close.
func (l *Line) handshake(p io.Writer, r *readiness) {
	defer close(r.done)

	l.wmu.Lock()
	defer l.wmu.Unlock()
	if !l.current(p) {
		r.err = errors.New("line closed before handshake")
		return
	}
	if _, err := p.Write(enablePortsMsg); err != nil {
		r.err = fmt.Errorf("enable ports: %v", err)
		l.log.Module("dmx").Error(r.err)
		return
	}
	l.log.Module("dmx").Debug("extended API requested, both ports enabled")
}

func (l *Line) current(p io.Writer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port != nil && l.port == p
}

// WaitReady blocks until the handshake has been written or timeout expires.
// A failed handshake is reported as ErrTransportUnavailable.
func (l *Line) WaitReady(timeout time.Duration) error {
	l.mu.Lock()
	r := l.ready
	l.mu.Unlock()
	if r == nil {
		return fmt.Errorf("%w: line not open", output.ErrTransportUnavailable)
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.done:
		if r.err != nil {
			return fmt.Errorf("%w: %v", output.ErrTransportUnavailable, r.err)
		}
		return nil
	case <-t.C:
		return fmt.Errorf("%w: adapter not ready after %v", output.ErrTransportUnavailable, timeout)
	}
}

func (l *Line) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port != nil
}

// Write sends one complete frame.
func (l *Line) Write(frame []byte) error {
	l.mu.Lock()
	p := l.port
	l.mu.Unlock()
	if p == nil {
		return output.ErrTransportUnavailable
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()
	if _, err := p.Write(frame); err != nil {
		if !l.current(p) {
			// closed underneath us
			return output.ErrTransportUnavailable
		}
		return fmt.Errorf("%w: %v", output.ErrIO, err)
	}
	return nil
}

// Close drops one user and closes the device when none are left. Closing
// the device also releases a write stuck on it.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return nil
	}
	l.users--
	if l.users > 0 {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	l.ready = nil
	l.log.Module("dmx").Info("DMX port closed")
	return err
}
