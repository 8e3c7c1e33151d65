package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestReplaceAttr(t *testing.T) {
	a := replaceAttr(nil, slog.String("error", "boom"))
	assert.Equal(t, "err", a.Key)
	b := replaceAttr(nil, slog.String("session_id", "s1"))
	assert.Equal(t, "session_id", b.Key)
}
