package ola

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
	"lightscontroller/internal/state"
)

type fakeClient struct {
	sent   map[int][]byte
	reject map[int]bool
	closed bool
}

func (c *fakeClient) SendDmx(universe int, values []byte) (bool, error) {
	if c.reject[universe] {
		return false, nil
	}
	c.sent[universe] = append([]byte(nil), values...)
	return true, nil
}

func (c *fakeClient) Close() { c.closed = true }

func newTestSender(c *fakeClient, dialErr error) *Sender {
	l, _ := test.NewNullLogger()
	return NewSender(logger.FromLogrus(l), "localhost:9010", func(string) (Client, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return c, nil
	})
}

func TestSend(t *testing.T) {
	t.Parallel()

	c := &fakeClient{sent: map[int][]byte{}, reject: map[int]bool{2: true}}
	s := newTestSender(c, nil)
	s.SetUniverses([]uint8{1, 2})

	st := state.NewState()
	st.EnsureUniverse(1)
	st.EnsureUniverse(2)
	require.NoError(t, st.SetChannel(1, 3, 42))

	require.NoError(t, s.Send(st), "not started yet")
	assert.Empty(t, c.sent)

	require.NoError(t, s.Start())
	err := s.Send(st)
	require.ErrorIs(t, err, output.ErrPartialSend)
	require.ErrorIs(t, err, output.ErrIO)

	require.Len(t, c.sent[1], 512)
	assert.Equal(t, byte(42), c.sent[1][3])
	assert.NotContains(t, c.sent, 2)

	require.NoError(t, s.Quit())
	assert.True(t, c.closed)
	require.NoError(t, s.Quit())
}

func TestStartFailure(t *testing.T) {
	t.Parallel()

	s := newTestSender(nil, errors.New("connection refused"))
	require.ErrorIs(t, s.Start(), output.ErrTransportUnavailable)
	require.NoError(t, s.Quit())
}
