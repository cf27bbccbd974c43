package logging

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestParseTimeFormat(t *testing.T) {
	assert.Equal(t, "3:04PM", parseTimeFormat("kitchen"))
	assert.Equal(t, "", parseTimeFormat("unix"))
	assert.Equal(t, "2006-01-02", parseTimeFormat("2006-01-02"))
	assert.Equal(t, "3:04PM", parseTimeFormat("nonsense"))
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("STOCKGUARD_TEST_LEVEL", "debug")
	assert.Equal(t, "debug", getEnvOrDefault("STOCKGUARD_TEST_LEVEL", "info"))

	t.Setenv("STOCKGUARD_TEST_LEVEL", "")
	assert.Equal(t, "info", getEnvOrDefault("STOCKGUARD_TEST_LEVEL", "info"))
}

func TestGetWriter_DiscardIsJSON(t *testing.T) {
	w := getWriter(&Config{Output: "discard", Format: "auto"})
	_, isConsole := w.(zerolog.ConsoleWriter)
	assert.False(t, isConsole, "non-terminal output should use JSON")

	w = getWriter(&Config{Output: "discard", Format: "console"})
	_, isConsole = w.(zerolog.ConsoleWriter)
	assert.True(t, isConsole)
}

func TestContextLogger(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRequestID(ctx, "req-1")

	assert.Equal(t, "req-1", RequestID(ctx))
	FromContext(ctx).Info().Msg("hello")

	assert.True(t, tl.Contains(`"request_id":"req-1"`))
	assert.True(t, tl.Contains(`"message":"hello"`))
	assert.Len(t, tl.Lines(), 1)
}

func TestFromContext_Default(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
}
