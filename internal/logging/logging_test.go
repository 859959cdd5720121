package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", " warn ", "error"} {
		log, err := NewLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, log)
	}

	log, err := NewLogger("warn")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger("verbose")
	require.Error(t, err)
}
