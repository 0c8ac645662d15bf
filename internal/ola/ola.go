// Package ola sends universes through a running OLA daemon.
package ola

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nickysemenza/gola"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

// Client is the part of the OLA RPC client the sender uses.
type Client interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// Dialer connects to the daemon.
type Dialer func(addr string) (Client, error)

// Dial connects with gola.
func Dial(addr string) (Client, error) {
	c, err := gola.New(addr)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type Sender struct {
	log  logger.Logger
	addr string
	dial Dialer

	mu        sync.Mutex
	client    Client
	universes []uint8
}

var _ output.Sender = (*Sender)(nil)

func NewSender(log logger.Logger, addr string, dial Dialer) *Sender {
	if dial == nil {
		dial = Dial
	}
	return &Sender{log: log, addr: addr, dial: dial}
}

func (s *Sender) SetUniverses(ids []uint8) {
	s.mu.Lock()
	s.universes = append([]uint8(nil), ids...)
	s.mu.Unlock()
}

func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}
	c, err := s.dial(s.addr)
	if err != nil {
		return fmt.Errorf("%w: could not connect to OLA at %s: %v", output.ErrTransportUnavailable, s.addr, err)
	}
	s.client = c
	s.log.Module("ola").Infof("connected to %s, sending universes %v", s.addr, s.universes)
	return nil
}

func (s *Sender) Send(src output.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}

	var errs []error
	for _, u := range s.universes {
		data, err := src.Universe(u)
		if err == nil {
			err = s.sendUniverse(u, data[:])
		}
		if err != nil {
			s.log.With(logger.Fields{"module": "ola", "universe": u}).Warnf("send failed: %v", err)
			errs = append(errs, fmt.Errorf("universe %d: %w", u, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", output.ErrPartialSend, errors.Join(errs...))
	}
	return nil
}

func (s *Sender) sendUniverse(u uint8, data []byte) error {
	ok, err := s.client.SendDmx(int(u), data)
	if err != nil {
		return fmt.Errorf("%w: %v", output.ErrIO, err)
	}
	if !ok {
		return fmt.Errorf("%w: daemon rejected universe", output.ErrIO)
	}
	return nil
}

func (s *Sender) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	s.client.Close()
	s.client = nil
	return nil
}
