package clientmqtt

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/state"
)

type fakeSetter struct {
	got []state.ChannelValue
}

func (f *fakeSetter) SetChannelValues(values []state.ChannelValue) error {
	f.got = append(f.got, values...)
	return nil
}

func TestParseTopic(t *testing.T) {
	t.Parallel()

	u, err := parseTopic("dmx", "dmx/3")
	require.NoError(t, err)
	assert.Equal(t, uint8(3), u)

	u, err = parseTopic("lights/dmx/", "lights/dmx/255")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), u)

	for _, topic := range []string{"dmx/256", "dmx/x", "other/1", "dmx/"} {
		_, err := parseTopic("dmx", topic)
		require.Error(t, err, topic)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	l, _ := test.NewNullLogger()
	setter := &fakeSetter{}
	c := NewClient(logger.FromLogrus(l), MQTTConf{Prefix: "dmx"}, setter)
	assert.Equal(t, "tcp", c.cfgClient.Schema)
	assert.Equal(t, "dmx/+", c.topicFilter())

	require.NoError(t, c.apply("dmx/1", []byte(`[{"Channel":0,"Value":255},{"Channel":511,"Value":7}]`)))
	assert.Equal(t, []state.ChannelValue{
		{Universe: 1, Channel: 0, Value: 255},
		{Universe: 1, Channel: 511, Value: 7},
	}, setter.got)

	require.Error(t, c.apply("dmx/1", []byte(`{"Channel":0}`)))
	require.Error(t, c.apply("dmx/1", []byte(`[{"Channel":0,"Value":256}]`)))
	require.Error(t, c.apply("nope/1", []byte(`[]`)))
	assert.Len(t, setter.got, 2)
}

func TestApplyRejectsWholePayload(t *testing.T) {
	t.Parallel()

	l, _ := test.NewNullLogger()
	st := state.NewState()
	st.EnsureUniverse(2)
	c := NewClient(logger.FromLogrus(l), MQTTConf{Prefix: "dmx"}, st)

	err := c.apply("dmx/2", []byte(`[{"Channel":0,"Value":255},{"Channel":600,"Value":1}]`))
	require.ErrorIs(t, err, state.ErrOutOfRange)

	u, err := st.Universe(2)
	require.NoError(t, err)
	assert.Equal(t, byte(0), u[0], "no part of a bad payload is applied")
}
