package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty2024/smartencoder/internal/config"
)

func TestNewLoggerWritesAtDefaultLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	l.Info("test message")
	l.Warn("test warning")
	require.NoError(t, l.Close())
}

func TestDebugSuppressedUnlessVerbose(t *testing.T) {
	cfg := config.DefaultConfig()
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	assert.Equal(t, levelRank[config.LogLevelInfo], l.threshold)
	l.Debug(false, "should not panic even when suppressed")
}

func TestErrorLevelThresholdSuppressesLowerRanks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = config.LogLevelError
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	assert.Equal(t, levelRank[config.LogLevelError], l.threshold)
	l.Info("suppressed")
	l.Error("not suppressed")
}
