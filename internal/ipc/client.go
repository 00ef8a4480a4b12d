package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Send performs one request/response roundtrip bounded by timeout.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Query asks the running owner for its status.
func Query(ctx context.Context, path string, timeout time.Duration) (Status, error) {
	resp, err := Send(ctx, path, Request{Command: commandStatus}, timeout)
	if err != nil {
		return Status{}, err
	}
	if !resp.OK {
		return Status{}, fmt.Errorf("status request rejected: %s", resp.Error)
	}
	return Status{PID: resp.PID, State: resp.State, Device: resp.Device}, nil
}

// Probe reports whether a responsive owner is listening on path.
//
// A missing socket or refused connection means no owner. Any other failure
// is inconclusive and returned as an error.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Query(ctx, path, timeout)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}
