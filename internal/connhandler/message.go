// Client-facing message shapes for the chat/danmaku WebSocket connection,
// as distinct from the video frame delivery handled by httpflv/wsflv.
package connhandler

import "encoding/json"

// MessageType discriminates an inbound ClientMessage.
type MessageType string

const (
	Chat      MessageType = "chat"
	Danmaku   MessageType = "danmaku"
	Heartbeat MessageType = "heartbeat"
	Unknown   MessageType = "unknown"
)

// ClientMessage is a single inbound message from a connected client.
type ClientMessage struct {
	Type MessageType `json:"type"`
	Body string      `json:"body,omitempty"`
	Mode int         `json:"mode,omitempty"`
}

// ParseClientMessage decodes raw bytes into a ClientMessage. An unknown or
// malformed type decodes to Type: Unknown rather than failing, since a
// single bad frame from one client should never take down its connection.
func ParseClientMessage(raw []byte) ClientMessage {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{Type: Unknown}
	}
	switch msg.Type {
	case Chat, Danmaku, Heartbeat:
		return msg
	default:
		return ClientMessage{Type: Unknown}
	}
}
