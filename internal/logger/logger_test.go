package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal verifies an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
}

// TestWithName_StoresDerivedLogger checks that named loggers travel with the context.
func TestWithName_StoresDerivedLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := toContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "scenario")
	ctx = WithKV(ctx, "provider", "ubuntu")
	InfoKV(ctx, "Step passed", "step", "dist list")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "scenario", entries[0].LoggerName)
	require.Equal(t, "ubuntu", entries[0].ContextMap()["provider"])
	require.Equal(t, "dist list", entries[0].ContextMap()["step"])
}

// TestConfigure rejects unknown names and falls back to LOG_LEVEL for empty input.
func TestConfigure(t *testing.T) {
	before := Level()
	t.Cleanup(func() { SetLevel(before) })

	t.Setenv(EnvLevel, "")
	require.NoError(t, Configure(""))
	require.Equal(t, before, Level())
	require.Error(t, Configure("verbose"))

	require.NoError(t, Configure("debug"))
	require.Equal(t, zapcore.DebugLevel, Level())

	t.Setenv(EnvLevel, "error")
	require.NoError(t, Configure(""))
	require.Equal(t, zapcore.ErrorLevel, Level())

	require.NoError(t, Configure("warn"))
	require.Equal(t, zapcore.WarnLevel, Level())

	t.Setenv(EnvLevel, "loud")
	require.Error(t, Configure(""))
}
