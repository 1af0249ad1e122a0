package logging

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New("loud", "json", "")
	assert.Error(t, err)
}

func TestNew_Levels(t *testing.T) {
	logger, err := New("warn", "console", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestGELF_SendsEntry(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	sink, err := NewGELF(pc.LocalAddr().String(), "docgen-test", zapcore.InfoLevel)
	require.NoError(t, err)
	defer sink.Close()

	logger := zap.New(sink).With(zap.String("store", "local"))
	logger.Debug("dropped")
	logger.Warn("submission stored", zap.String("id", "abc"), zap.Int("attempt", 2))

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "submission stored", msg["short_message"])
	assert.Equal(t, float64(4), msg["level"])
	assert.Equal(t, "docgen-test", msg["_service"])
	assert.Equal(t, "local", msg["_store"])
	assert.Equal(t, "abc", msg["_record_id"])
	assert.Equal(t, float64(2), msg["_attempt"])
}

func TestSyslogLevel(t *testing.T) {
	assert.Equal(t, 7, syslogLevel(zapcore.DebugLevel))
	assert.Equal(t, 6, syslogLevel(zapcore.InfoLevel))
	assert.Equal(t, 3, syslogLevel(zapcore.ErrorLevel))
	assert.Equal(t, 2, syslogLevel(zapcore.FatalLevel))
}
