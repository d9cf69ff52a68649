package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Publish dials the hub at addr (a ws:// or wss:// URL) and sends a single
// removal message. Used by the CLI after a remove so other open contexts
// drop their markers immediately.
func Publish(ctx context.Context, addr string, msg Removal) error {
	if msg.Type == "" {
		msg.Type = "removal"
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal removal: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	ws, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial notify hub: %w", err)
	}
	defer func() { _ = ws.Close() }()

	_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("publish removal: %w", err)
	}

	return ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
