// Package dmxpro drives an Enttec DMX USB Pro (Mk2) adapter over its serial line.
package dmxpro

import (
	"fmt"

	"lightscontroller/internal/output"
)

// Port is one of the adapter's two DMX outputs.
type Port int

const (
	Port1 Port = 1
	Port2 Port = 2
)

const (
	channels = 512

	startMsg  byte = 0x7E
	startCode byte = 0x00
	endMsg    byte = 0xE7

	labelPort1 byte = 6
	labelPort2 byte = 19

	overheadPort1 = 6
	overheadPort2 = 19

	// dataOffset is where channel 0 sits: start, label, len lo, len hi, start code.
	dataOffset = 5
	endOffset  = dataOffset + channels
)

// enablePortsMsg switches the Mk2 to the extended API with both outputs active.
var enablePortsMsg = []byte{startMsg, 13, 0xCF, 0xAA, 0x05, 0x09, endMsg}

func (p Port) String() string {
	return fmt.Sprintf("port%d", int(p))
}

func (p Port) label() (byte, error) {
	switch p {
	case Port1:
		return labelPort1, nil
	case Port2:
		return labelPort2, nil
	}
	return 0, fmt.Errorf("%w: unknown dmx port %d", output.ErrConfiguration, int(p))
}

func (p Port) overhead() int {
	if p == Port2 {
		return overheadPort2
	}
	return overheadPort1
}

// Frame is the transmit buffer of one port. The header is written once; only
// the channel region changes between sends.
type Frame struct {
	port Port
	buf  []byte
}

func NewFrame(port Port) (*Frame, error) {
	label, err := port.label()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, port.overhead()+channels)
	for i := range buf {
		buf[i] = 0xFF
	}

	payloadLen := channels + 1
	buf[0] = startMsg
	buf[1] = label
	buf[2] = byte(payloadLen & 0xFF)
	buf[3] = byte(payloadLen >> 8 & 0xFF)
	buf[4] = startCode
	buf[endOffset] = endMsg

	return &Frame{port: port, buf: buf}, nil
}

// Encode copies a full universe into the frame.
func (f *Frame) Encode(data []byte) error {
	if len(data) != channels {
		return fmt.Errorf("%w: %s got %d bytes", output.ErrEncodeLengthMismatch, f.port, len(data))
	}
	copy(f.buf[dataOffset:endOffset], data)
	return nil
}

// Bytes returns the frame as written to the line. The slice is reused.
func (f *Frame) Bytes() []byte {
	return f.buf
}

func (f *Frame) Port() Port {
	return f.port
}
