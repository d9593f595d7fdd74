package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup(Options{Service: "vined", Env: "test", Level: "debug", Output: &buf})
	defer closer.Close()

	logger.Debug("applied", "txHash", "0xabc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "applied", line["message"])
	require.Equal(t, "DEBUG", line["severity"])
	require.Equal(t, "vined", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
}

func TestSetupWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vined.log")
	var buf bytes.Buffer
	logger, closer := Setup(Options{Service: "vined", File: path, Output: &buf})
	logger.Info("started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"started"`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("passphrase", "hunter2").Value.String())
	require.Equal(t, "0xabc", MaskField("txHash", "0xabc").Value.String())
	require.Equal(t, "", MaskField("passphrase", "").Value.String())
	require.Contains(t, RedactionAllowlist(), "receiptid")
}
