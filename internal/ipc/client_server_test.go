package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serveStatus(t *testing.T, socketPath string, status Status) (context.CancelFunc, <-chan error) {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, func() Status { return status })
	}()
	return cancel, done
}

func TestQueryRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mictoggle.sock")
	cancel, done := serveStatus(t, socketPath, Status{PID: 7, State: "bound", Device: "USB Mic"})

	status, err := Query(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Status{PID: 7, State: "bound", Device: "USB Mic"}, status)

	cancel()
	require.NoError(t, <-done)
}

func TestServeRejectsUnknownCommand(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mictoggle.sock")
	cancel, done := serveStatus(t, socketPath, Status{})

	resp, err := Send(context.Background(), socketPath, Request{Command: "toggle"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")

	cancel()
	require.NoError(t, <-done)
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mictoggle.sock")
	cancel, done := serveStatus(t, socketPath, Status{})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")

	cancel()
	require.NoError(t, <-done)
}

func TestSendDecodeResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mictoggle.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestProbe(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "mictoggle.sock")
	cancel, done := serveStatus(t, socketPath, Status{State: "unbound"})

	alive, err := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-done)

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}
