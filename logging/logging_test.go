package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"Warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWithWriter_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("warn", zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.String("txid", "abcd"))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abcd", entry["txid"])
	assert.Contains(t, entry, "time")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pendingtx.log")
	log, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("written to file")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
