package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightscontroller/internal/config"
)

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := newLogger(config.LogConf{Level: "warn"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "warning", log.GetLevel())

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLoggerBadLevel(t *testing.T) {
	t.Parallel()

	_, err := NewLogger(config.LogConf{Level: "loud"})
	require.Error(t, err)
}

func TestModuleField(t *testing.T) {
	t.Parallel()

	l, hook := test.NewNullLogger()
	log := FromLogrus(l)

	log.Module("dmx").With(Fields{"universe": 3}).Info("sent")

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "dmx", entry.Data["module"])
	assert.Equal(t, 3, entry.Data["universe"])
}
