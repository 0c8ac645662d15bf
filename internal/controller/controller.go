// Package controller pushes the channel state to the active outputs on a
// fixed period.
package controller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
	"lightscontroller/internal/state"
)

// DefaultPeriod is used when Run gets no period.
const DefaultPeriod = 200 * time.Millisecond

var (
	ErrAlreadyRunning = fmt.Errorf("%w: controller already running", output.ErrConfiguration)
	ErrNotRunning     = errors.New("controller is not running")
)

// Factory builds the senders for a run.
type Factory interface {
	Build(mode output.Mode, universes []uint8) ([]output.Sender, error)
}

// Controller owns the channel state and the senders of the current run.
type Controller struct {
	log     logger.Logger
	state   *state.State
	clock   clock.WithTicker
	factory Factory

	mu      sync.Mutex
	running bool
	mode    output.Mode
	senders []output.Sender
	ticker  clock.Ticker
	stop    chan struct{}
	done    chan struct{}
}

type Option func(*Controller)

// WithClock replaces the real clock, e.g. with a fake one in tests.
func WithClock(c clock.WithTicker) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

func New(log logger.Logger, factory Factory, opts ...Option) *Controller {
	c := &Controller{
		log:     log,
		state:   state.NewState(),
		clock:   clock.RealClock{},
		factory: factory,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run starts sending the universes through mode every period. Either every
// sender starts and the ticker is armed, or nothing runs.
func (c *Controller) Run(mode output.Mode, universes []uint8, period time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}
	if err := validate(mode, universes); err != nil {
		return err
	}
	if period <= 0 {
		period = DefaultPeriod
	}

	senders, err := c.factory.Build(mode, universes)
	if err != nil {
		return err
	}
	for _, s := range senders {
		if err := s.Start(); err != nil {
			_ = c.quitSenders(senders)
			return fmt.Errorf("start %s output: %w", mode, err)
		}
	}

	for _, u := range universes {
		c.state.EnsureUniverse(u)
	}

	c.mode = mode
	c.senders = senders
	c.ticker = c.clock.NewTicker(period)
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running = true
	go c.loop(c.ticker, senders, period, c.stop, c.done)

	c.log.Module("controller").Infof("sending universes %v through %s every %v", universes, mode, period)
	return nil
}

func validate(mode output.Mode, universes []uint8) error {
	switch mode {
	case output.Dmx:
		if len(universes) != 2 {
			return fmt.Errorf("%w: dmx needs exactly 2 universes, one per port, got %d", output.ErrConfiguration, len(universes))
		}
	case output.ArtNet, output.Ola:
		if len(universes) == 0 {
			return fmt.Errorf("%w: %s needs at least one universe", output.ErrConfiguration, mode)
		}
	default:
		return fmt.Errorf("%w: unknown send mode %s", output.ErrConfiguration, mode)
	}
	return nil
}

// loop runs ticks one at a time. A tick whose sends took longer than the
// period drops the tick that became due meanwhile instead of sending back to
// back. The schedule runs on c.clock but the work is timed on the wall
// clock: sends cost real time whatever clock drives the ticker, and a fake
// clock stepped by a test during a tick must not count as an overrun.
func (c *Controller) loop(t clock.Ticker, senders []output.Sender, period time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			start := time.Now()
			c.tick(senders)
			if elapsed := time.Since(start); elapsed >= period {
				select {
				case <-t.C():
					c.log.Module("controller").Warnf("tick took %v (period %v), skipped one update", elapsed, period)
				default:
				}
			}
		}
	}
}

// tick pushes the current state to every sender in registration order.
func (c *Controller) tick(senders []output.Sender) {
	for _, s := range senders {
		if err := s.Send(c.state); err != nil {
			c.log.Module("controller").Warnf("send: %v", err)
		}
	}
}

// Quit stops the ticker and releases every sender. TurnOff sends one last
// all-zero update first.
func (c *Controller) Quit(onQuit output.OnQuit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}

	c.ticker.Stop()
	close(c.stop)
	<-c.done

	if onQuit == output.TurnOff {
		c.state.Blackout()
		c.tick(c.senders)
	}

	err := c.quitSenders(c.senders)
	c.senders = nil
	c.ticker = nil
	c.running = false
	c.log.Module("controller").Infof("%s output stopped (%s)", c.mode, onQuit)
	return err
}

func (c *Controller) quitSenders(senders []output.Sender) error {
	var errs []error
	for _, s := range senders {
		if err := s.Quit(); err != nil {
			c.log.Module("controller").Errorf("quit: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetChannel sets one channel, creating the universe when needed.
func (c *Controller) SetChannel(universe uint8, channel int, value uint8) error {
	c.state.EnsureUniverse(universe)
	return c.state.SetChannel(universe, channel, value)
}

// SetChannels replaces a whole universe, creating it when needed.
func (c *Controller) SetChannels(universe uint8, values []byte) error {
	if len(values) != state.Channels {
		return fmt.Errorf("%w: got %d bytes, want %d", state.ErrLengthMismatch, len(values), state.Channels)
	}
	c.state.EnsureUniverse(universe)
	return c.state.SetChannels(universe, values)
}

// SetChannelValues applies a batch, creating universes when needed. A batch
// with an invalid channel changes nothing.
func (c *Controller) SetChannelValues(values []state.ChannelValue) error {
	for _, v := range values {
		if err := state.CheckChannel(v.Channel); err != nil {
			return fmt.Errorf("universe %d: %w", v.Universe, err)
		}
	}
	for _, v := range values {
		c.state.EnsureUniverse(v.Universe)
	}
	return c.state.SetChannelValues(values)
}

// Universe returns a copy of the universe's current levels.
func (c *Controller) Universe(id uint8) ([state.Channels]byte, error) {
	return c.state.Universe(id)
}
