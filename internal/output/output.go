// Package output defines what every DMX output (serial adapter, ArtNet, OLA)
// has in common.
package output

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks an invalid run request: wrong universe count,
	// unknown mode, double start.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransportUnavailable marks a transport that could not be opened or is not open.
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrEncodeLengthMismatch means a frame was fed something other than 512 bytes.
	ErrEncodeLengthMismatch = errors.New("encode length mismatch")
	// ErrIO marks a failed write on an open transport.
	ErrIO = errors.New("i/o failure")
	// ErrPartialSend is returned when some universes of a tick failed to transmit.
	ErrPartialSend = errors.New("partial send failure")
)

// Source provides universe data to senders.
type Source interface {
	// Universe returns a copy of the universe's channels.
	Universe(id uint8) ([512]byte, error)
}

// Sender pushes universes to one physical or network output.
type Sender interface {
	SetUniverses(ids []uint8)
	// Start acquires the transport. It may be retried after a failure.
	Start() error
	// Send is called once per tick.
	Send(src Source) error
	// Quit releases the transport. Safe when Start failed or was never called.
	Quit() error
}

// Mode is the output a controller sends through.
type Mode int

const (
	Dmx Mode = iota
	ArtNet
	Ola
)

func (m Mode) String() string {
	switch m {
	case Dmx:
		return "dmx"
	case ArtNet:
		return "artnet"
	case Ola:
		return "ola"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "dmx":
		return Dmx, nil
	case "artnet", "art-net":
		return ArtNet, nil
	case "ola":
		return Ola, nil
	}
	return 0, fmt.Errorf("%w: unknown send mode %q", ErrConfiguration, s)
}

// OnQuit tells the controller what to leave on the fixtures when it stops.
type OnQuit int

const (
	// Freeze keeps the last transmitted levels latched on the outputs.
	Freeze OnQuit = iota
	// TurnOff zeroes all channels and sends them once before stopping.
	TurnOff
)

func (q OnQuit) String() string {
	switch q {
	case Freeze:
		return "freeze"
	case TurnOff:
		return "turnoff"
	default:
		return fmt.Sprintf("onquit(%d)", int(q))
	}
}

func ParseOnQuit(s string) (OnQuit, error) {
	switch strings.ToLower(s) {
	case "freeze":
		return Freeze, nil
	case "turnoff", "turn-off", "off":
		return TurnOff, nil
	}
	return 0, fmt.Errorf("%w: unknown quit behaviour %q", ErrConfiguration, s)
}
