package control

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"earshot/pkg/speech"

	"github.com/goccy/go-json"
)

// Control socket operations.
const (
	OpStatus = "status"
	OpHealth = "health"
	OpStart  = "start"
	OpStop   = "stop"
)

type Request struct {
	Op string `json:"op"`
}

type Status struct {
	Running     bool            `json:"running"`
	UptimeSec   float64         `json:"uptime_sec"`
	Engine      string          `json:"engine"`
	Session     speech.Snapshot `json:"session"`
	Sinks       []string        `json:"sinks"`
	Pending     int             `json:"pending_deliveries"`
	Transcripts []Transcript    `json:"transcripts"`
}

type SimpleResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type Transcript struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Call sends one request over the daemon socket and decodes the reply into out.
func Call(socketPath string, req Request, out any) error {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("cannot connect to daemon: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return err
	}
	return json.NewDecoder(bufio.NewReader(conn)).Decode(out)
}
