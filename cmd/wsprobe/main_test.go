package main

import (
	"bytes"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyog1pathak/wsprobe/internal/mockserver"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigCmd_Defaults(t *testing.T) {
	out, _, err := execute(t, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "url: wss://pipecat.taile994c5.ts.net:7860/ws")
	assert.Contains(t, out, "insecure: true")
	assert.Contains(t, out, "idle-wait: 5s")
	assert.Contains(t, out, "response-wait: 5s")
	assert.Contains(t, out, "log-format: text")
}

func TestConfigCmd_EnvAndFlagOverrides(t *testing.T) {
	t.Setenv("WSPROBE_IDLE_WAIT", "250ms")

	out, _, err := execute(t, "config", "--response-wait", "1s")
	require.NoError(t, err)

	assert.Contains(t, out, "idle-wait: 250ms")
	assert.Contains(t, out, "response-wait: 1s")
}

func TestConfigCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: ws://example.test:9000/ws\ninsecure: false\n"), 0o600))

	out, errOut, err := execute(t, "--config", path, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "url: ws://example.test:9000/ws")
	assert.Contains(t, out, "insecure: false")
	assert.Contains(t, errOut, "Using config file: "+path)
}

func TestConfigCmd_MissingExplicitConfigFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "config")
	assert.Error(t, err)
}

func TestRootCmd_InvalidURL(t *testing.T) {
	_, _, err := execute(t, "--url", "https://example.test/ws")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be ws or wss")
}

func TestRootCmd_ProbesEndpoint(t *testing.T) {
	srv, err := mockserver.New(mockserver.Config{Behavior: mockserver.BehaviorAck})
	require.NoError(t, err)
	ts := httptest.NewTLSServer(srv)
	defer ts.Close()
	url := "wss" + strings.TrimPrefix(ts.URL, "https") + "/ws"

	out, errOut, err := execute(t, "--url", url, "--idle-wait", "50ms", "--response-wait", "2s", "--log-format", "json")
	require.NoError(t, err)

	assert.Contains(t, out, "Connected!\n")
	assert.Contains(t, out, "Received from server: {\"type\":\"ack\"}\n")
	assert.Contains(t, errOut, `"msg":"Probe finished"`)
	assert.Contains(t, errOut, `"outcome":"completed"`)
}

func TestRootCmd_ConnectionFailureStillSucceeds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	out, _, err := execute(t, "--url", "ws://"+addr+"/ws")
	require.NoError(t, err)

	assert.Contains(t, out, "Failed to connect or error occurred: ")
	assert.NotContains(t, out, "Connected!")
}
