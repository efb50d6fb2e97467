package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLogLevel(tc.in), tc.in)
	}
}

func TestCLIHandler_Enabled(t *testing.T) {
	h := NewCLIHandler(&bytes.Buffer{}, slog.LevelInfo)
	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestCLIHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Info("importing snapshot", "dir", "/tmp/x")
	out := buf.String()
	assert.Contains(t, out, "importing snapshot")
	assert.Contains(t, out, "dir=/tmp/x")
	assert.Contains(t, out, colorGreen)

	buf.Reset()
	logger.Error("boom")
	assert.Contains(t, buf.String(), colorRed)
}

func TestCLIHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo).WithGroup("import"))

	logger.Info("done")
	assert.Contains(t, buf.String(), "[import] done")
}

func TestNewCLILogger(t *testing.T) {
	l := NewCLILogger("debug")
	require.NotNil(t, l)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}
