package ws

import (
	"time"

	"github.com/google/uuid"
)

// ConnInfo identifies one direct-message socket for the lifetime events
// published on the observability exchange. TraceID ties the connection
// back to its handshake span.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
