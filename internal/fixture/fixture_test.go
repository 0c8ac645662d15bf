package fixture

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setCall struct {
	universe uint8
	channel  int
}

type fakeSetter map[setCall]uint8

func (f fakeSetter) SetChannel(universe uint8, channel int, value uint8) error {
	f[setCall{universe, channel}] = value
	return nil
}

func TestStageLight(t *testing.T) {
	t.Parallel()

	out := fakeSetter{}
	f, err := NewFixtureWithAttributes(out, 1, 1, []string{"Dimmer", "Red", "Green", "Blue", "Strobe", "Effect", "EffectSpeed"})
	require.NoError(t, err)

	require.NoError(t, f.SetDimmer(60))
	require.NoError(t, f.SetHexColor("#ff8c00"))
	require.NoError(t, f.SetStrobe(12))

	assert.Equal(t, uint8(60), out[setCall{1, 0}])
	assert.Equal(t, uint8(255), out[setCall{1, 1}])
	assert.Equal(t, uint8(140), out[setCall{1, 2}])
	assert.Equal(t, uint8(0), out[setCall{1, 3}])
	assert.Equal(t, uint8(12), out[setCall{1, 4}])
}

func TestMovingHead(t *testing.T) {
	t.Parallel()

	out := fakeSetter{}
	f, err := NewFixtureWithAttributes(out, 2, 8, []string{
		"PanRun", "PanFineTune", "TiltRun", "TiltFineTune", "Color", "Gobo", "Strobe", "Dimmer",
	})
	require.NoError(t, err)

	require.NoError(t, f.SetAttribute("dimmer", 30))
	require.NoError(t, f.SetOrientation(45, 45))

	assert.Equal(t, uint8(30), out[setCall{2, 14}])
	assert.Equal(t, uint8(21), out[setCall{2, 7}])
	assert.Equal(t, uint8(63), out[setCall{2, 9}])

	require.NoError(t, f.SetOrientation(9999, -5))
	assert.Equal(t, uint8(255), out[setCall{2, 7}])
	assert.Equal(t, uint8(0), out[setCall{2, 9}])
}

func TestChannels(t *testing.T) {
	t.Parallel()

	out := fakeSetter{}
	f, err := NewFixture(out, 0, 100, 3)
	require.NoError(t, err)

	require.NoError(t, f.SetChannels([]uint8{1, 2, 3}))
	assert.Equal(t, uint8(1), out[setCall{0, 99}])
	assert.Equal(t, uint8(3), out[setCall{0, 101}])

	require.ErrorIs(t, f.SetChannels([]uint8{1}), ErrLengthMismatch)
	require.ErrorIs(t, f.SetChannel(3, 1), ErrChannelNotFound)
	require.ErrorIs(t, f.SetDimmer(1), ErrUnknownAttr)
	require.ErrorIs(t, f.SetColor(colorful.Color{R: 1}), ErrUnknownAttr)

	require.NoError(t, f.AddAttribute(2, "dimmer"))
	require.NoError(t, f.SetDimmer(9))
	assert.Equal(t, uint8(9), out[setCall{0, 101}])
	assert.Equal(t, map[string]int{"DIMMER": 2}, f.Attributes())
	require.ErrorIs(t, f.AddAttribute(3, "x"), ErrChannelNotFound)

	require.NoError(t, f.TurnOff())
	for ch := 99; ch <= 101; ch++ {
		assert.Equal(t, uint8(0), out[setCall{0, ch}])
	}
}

func TestBadAddress(t *testing.T) {
	t.Parallel()

	_, err := NewFixture(fakeSetter{}, 0, 0, 1)
	require.ErrorIs(t, err, ErrBadAddress)
	_, err = NewFixture(fakeSetter{}, 0, 510, 4)
	require.ErrorIs(t, err, ErrBadAddress)
	_, err = NewFixture(fakeSetter{}, 0, 509, 4)
	require.NoError(t, err)
}
