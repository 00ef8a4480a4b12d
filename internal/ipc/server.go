package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// StatusFunc reports the owner's current status.
type StatusFunc func() Status

// Serve answers status requests until ctx is done or the listener closes.
func Serve(ctx context.Context, listener net.Listener, status StatusFunc) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			_ = json.NewEncoder(c).Encode(answer(c, status))
		}(conn)
	}
}

func answer(c net.Conn, status StatusFunc) Response {
	line, err := bufio.NewReader(c).ReadBytes('\n')
	if err != nil {
		return Response{Error: fmt.Sprintf("read request: %v", err)}
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("decode request: %v", err)}
	}
	if req.Command != commandStatus {
		return Response{Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	s := status()
	return Response{OK: true, PID: s.PID, State: s.State, Device: s.Device}
}
