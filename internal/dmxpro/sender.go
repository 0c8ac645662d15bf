package dmxpro

import (
	"errors"
	"fmt"
	"time"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

// Sender transmits one universe through one adapter port.
type Sender struct {
	log          logger.Logger
	line         *Line
	frame        *Frame
	universe     uint8
	readyTimeout time.Duration
	started      bool
}

var _ output.Sender = (*Sender)(nil)

// NewSender binds a port of the line to a universe.
func NewSender(log logger.Logger, line *Line, port Port, universe uint8, readyTimeout time.Duration) (*Sender, error) {
	frame, err := NewFrame(port)
	if err != nil {
		return nil, err
	}
	return &Sender{
		log:          log,
		line:         line,
		frame:        frame,
		universe:     universe,
		readyTimeout: readyTimeout,
	}, nil
}

// SetUniverses binds the first id; a port carries exactly one universe.
func (s *Sender) SetUniverses(ids []uint8) {
	if len(ids) > 0 {
		s.universe = ids[0]
	}
}

func (s *Sender) Universe() uint8 {
	return s.universe
}

func (s *Sender) Port() Port {
	return s.frame.Port()
}

func (s *Sender) Start() error {
	if s.started {
		return nil
	}
	if err := s.line.Open(); err != nil {
		return err
	}
	if err := s.line.WaitReady(s.readyTimeout); err != nil {
		_ = s.line.Close()
		return err
	}
	s.started = true
	s.log.With(logger.Fields{"module": "dmx", "port": s.frame.Port().String()}).Infof("sending universe %d", s.universe)
	return nil
}

// Send writes the bound universe. It does nothing while the line is closed.
func (s *Sender) Send(src output.Source) error {
	if !s.line.IsOpen() {
		return nil
	}
	data, err := src.Universe(s.universe)
	if err != nil {
		return fmt.Errorf("%s universe %d: %w", s.frame.Port(), s.universe, err)
	}
	if err := s.frame.Encode(data[:]); err != nil {
		return err
	}
	if err := s.line.Write(s.frame.Bytes()); err != nil {
		if errors.Is(err, output.ErrTransportUnavailable) {
			return nil
		}
		return fmt.Errorf("%s universe %d: %w", s.frame.Port(), s.universe, err)
	}
	return nil
}

func (s *Sender) Quit() error {
	if !s.started {
		return nil
	}
	s.started = false
	return s.line.Close()
}

// Frame exposes the transmit buffer.
func (s *Sender) Frame() []byte {
	return s.frame.Bytes()
}
