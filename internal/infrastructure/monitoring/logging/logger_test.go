package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_EmptyOutputPathsRejected(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestDefaultConstructors_NotNil(t *testing.T) {
	assert.NotNil(t, NewDefaultLogger())
	assert.NotNil(t, NewDevelopmentLogger())
	assert.NotNil(t, NewNopLogger())
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg", String("k", "v"))
	l.Warn("msg")
	l.Error("msg", Err(errors.New("x")))
	assert.NotNil(t, l.With(Int("n", 1)))
	assert.NotNil(t, l.Named("child"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestZapLogger_FieldsAreTyped(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("category failed",
		String("column", "Role_Terms"),
		Strings("texts", []string{"a", "b"}),
		Int("records", 3),
		Int64("distinct", 2),
		Float64("ratio", 0.5),
		Bool("cached", false),
		Duration("elapsed", 15*time.Millisecond),
		Err(errors.New("match timeout")),
		Any("extra", map[string]int{"x": 1}),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "category failed", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "Role_Terms", ctx["column"])
	assert.Equal(t, int64(3), ctx["records"])
	assert.Equal(t, int64(2), ctx["distinct"])
	assert.Equal(t, 0.5, ctx["ratio"])
	assert.Equal(t, false, ctx["cached"])
	assert.Equal(t, 15*time.Millisecond, ctx["elapsed"])
	assert.Equal(t, "match timeout", ctx["error"])
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")
	assert.Equal(t, 2, logs.Len())
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)
	child := l.Named("engine").With(String("run_id", "r-1"))
	child.Info("run complete")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "engine", entry.LoggerName)
	assert.Equal(t, "r-1", entry.ContextMap()["run_id"])
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	l, logs := newObservedLogger(zapcore.InfoLevel)
	SetDefault(l)
	SetDefault(nil)
	Default().Info("through default")
	assert.Equal(t, 1, logs.Len())
}

func TestToZapFields_ErrorValue(t *testing.T) {
	fields := toZapFields([]Field{{Key: "cause", Value: errors.New("boom")}})
	require.Len(t, fields, 1)
	assert.Equal(t, zap.NamedError("cause", errors.New("boom")).Key, fields[0].Key)
}

//Personal.AI order the ending
