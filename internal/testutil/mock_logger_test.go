package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_ChildrenShareSink(t *testing.T) {
	logger := testutil.NewMockLogger()

	child := logger.Named("engine").With(logging.String("run_id", "r1")).Named("compile")
	child.Warn("slow pattern", logging.Int("columns", 3))

	got := logger.Find("warn", "slow pattern")
	require.NotNil(t, got)
	assert.Equal(t, "engine.compile", got.Logger)
	assert.Equal(t, []logging.Field{logging.String("run_id", "r1"), logging.Int("columns", 3)}, got.Fields)
	assert.Nil(t, logger.Find("info", "slow pattern"))
}

//Personal.AI order the ending
