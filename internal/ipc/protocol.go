// Package ipc keeps mictoggle single-instance through a unix socket that answers status probes.
package ipc

const commandStatus = "status"

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
}

// Response answers a Request.
type Response struct {
	OK     bool   `json:"ok"`
	PID    int    `json:"pid,omitempty"`
	State  string `json:"state,omitempty"`
	Device string `json:"device,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Status describes the running owner as reported over the socket.
type Status struct {
	PID    int
	State  string
	Device string
}
