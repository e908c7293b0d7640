package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level)

			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.expected))
			assert.False(t, l.Core().Enabled(tt.expected-1))
		})
	}
}

func TestInit(t *testing.T) {
	before := Logger
	t.Cleanup(func() { Logger = before })

	assert.Error(t, Init("loud"))
	assert.Same(t, before, Logger)

	require.NoError(t, Init("info"))
	assert.NotSame(t, before, Logger)
}
