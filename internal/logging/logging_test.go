// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevelAndFormat(t *testing.T) {
	l := New("debug", "json")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = New("loud", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestConnectDisconnectFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", "json")
	l.SetOutput(&buf)

	id := uuid.New()
	LogConnect(l, id, "127.0.0.1:4242")
	LogDisconnect(l, id, "", errors.New("reset"))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "client connected", first["msg"])
	assert.Equal(t, id.String(), first["conn"])
	assert.Equal(t, "127.0.0.1:4242", first["remote"])

	assert.Equal(t, "client disconnected", second["msg"])
	assert.Equal(t, "reset", second["error"])
	assert.Equal(t, "", second["remote"])
}
