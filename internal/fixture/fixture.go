// Package fixture addresses a fixture's channels by offset or by attribute
// name instead of by absolute channel number.
package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	AttrDimmer  = "DIMMER"
	AttrStrobe  = "STROBE"
	AttrRed     = "RED"
	AttrGreen   = "GREEN"
	AttrBlue    = "BLUE"
	AttrPanRun  = "PANRUN"
	AttrTiltRun = "TILTRUN"

	// DefaultPanDivide maps 540 degrees of pan onto 0-255.
	DefaultPanDivide = 540.0 / 255
	// DefaultTiltDivide maps 180 degrees of tilt onto 0-255.
	DefaultTiltDivide = 180.0 / 255
)

var (
	ErrBadAddress      = errors.New("invalid fixture address")
	ErrUnknownAttr     = errors.New("unknown attribute")
	ErrLengthMismatch  = errors.New("value count does not match channel count")
	ErrChannelNotFound = errors.New("channel outside fixture")
)

// ChannelSetter is the controller's channel API.
type ChannelSetter interface {
	SetChannel(universe uint8, channel int, value uint8) error
}

// Fixture is a device patched at Address (1-based) in Universe and using
// ChannelCount consecutive channels.
type Fixture struct {
	Universe     uint8
	Address      int
	ChannelCount int
	PanDivide    float64
	TiltDivide   float64

	out   ChannelSetter
	attrs map[string]int
}

func NewFixture(out ChannelSetter, universe uint8, address, channelCount int) (*Fixture, error) {
	if address < 1 || address > 512 {
		return nil, fmt.Errorf("%w: address %d", ErrBadAddress, address)
	}
	if channelCount < 1 || address-1+channelCount > 512 {
		return nil, fmt.Errorf("%w: %d channels at address %d", ErrBadAddress, channelCount, address)
	}
	return &Fixture{
		Universe:     universe,
		Address:      address,
		ChannelCount: channelCount,
		PanDivide:    DefaultPanDivide,
		TiltDivide:   DefaultTiltDivide,
		out:          out,
		attrs:        map[string]int{},
	}, nil
}

// NewFixtureWithAttributes names the fixture's channels in order, e.g.
// "Dimmer", "Red", "Green", "Blue".
func NewFixtureWithAttributes(out ChannelSetter, universe uint8, address int, attrs []string) (*Fixture, error) {
	f, err := NewFixture(out, universe, address, len(attrs))
	if err != nil {
		return nil, err
	}
	for i, a := range attrs {
		f.attrs[strings.ToUpper(a)] = i
	}
	return f, nil
}

// AddAttribute names an existing channel.
func (f *Fixture) AddAttribute(channel int, attr string) error {
	if channel < 0 || channel >= f.ChannelCount {
		return fmt.Errorf("%w: %d", ErrChannelNotFound, channel)
	}
	f.attrs[strings.ToUpper(attr)] = channel
	return nil
}

func (f *Fixture) Attributes() map[string]int {
	out := make(map[string]int, len(f.attrs))
	for k, v := range f.attrs {
		out[k] = v
	}
	return out
}

// SetChannel sets the fixture's channel (0-based offset from its address).
func (f *Fixture) SetChannel(channel int, value uint8) error {
	if channel < 0 || channel >= f.ChannelCount {
		return fmt.Errorf("%w: %d", ErrChannelNotFound, channel)
	}
	return f.out.SetChannel(f.Universe, f.Address-1+channel, value)
}

// SetChannels sets all channels at once.
func (f *Fixture) SetChannels(values []uint8) error {
	if len(values) != f.ChannelCount {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(values), f.ChannelCount)
	}
	for i, v := range values {
		if err := f.SetChannel(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fixture) SetAttribute(attr string, value uint8) error {
	ch, ok := f.attrs[strings.ToUpper(attr)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttr, attr)
	}
	return f.SetChannel(ch, value)
}

func (f *Fixture) SetColor(c colorful.Color) error {
	r, g, b := c.Clamped().RGB255()
	for _, v := range []struct {
		attr  string
		value uint8
	}{{AttrRed, r}, {AttrGreen, g}, {AttrBlue, b}} {
		if err := f.SetAttribute(v.attr, v.value); err != nil {
			return err
		}
	}
	return nil
}

// SetHexColor is SetColor for "#rrggbb" strings.
func (f *Fixture) SetHexColor(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return err
	}
	return f.SetColor(c)
}

func (f *Fixture) SetDimmer(v uint8) error {
	return f.SetAttribute(AttrDimmer, v)
}

func (f *Fixture) SetStrobe(v uint8) error {
	return f.SetAttribute(AttrStrobe, v)
}

// SetOrientation moves a moving head to pan/tilt given in degrees.
func (f *Fixture) SetOrientation(pan, tilt int) error {
	if err := f.SetAttribute(AttrPanRun, toByte(float64(pan)/f.PanDivide)); err != nil {
		return err
	}
	return f.SetAttribute(AttrTiltRun, toByte(float64(tilt)/f.TiltDivide))
}

// TurnOff zeroes every channel of the fixture.
func (f *Fixture) TurnOff() error {
	return f.SetChannels(make([]uint8, f.ChannelCount))
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
