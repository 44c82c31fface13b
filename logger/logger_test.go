package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, logrus.DebugLevel)
	log.WithField("position", "1").Debug("tick")

	out := buf.String()
	require.Contains(t, out, "msg=tick")
	require.Contains(t, out, "position=1")
	require.Contains(t, out, "name=cadence")
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	require.Error(t, SetLevel("loud"))
	require.NoError(t, SetLevel("info"))
	require.NotNil(t, GetProjectLogger())
}
