// Event is the tagged variant type broadcast through the Room Message Hub
// and the Cluster Pub/Sub fabric. Receivers must tolerate unknown variants,
// so the wire form carries a Type discriminator plus a raw JSON payload,
// decoded on demand.
package clusterevent

import (
	"encoding/json"
	"time"

	"github.com/synctv-org/synctv-core/internal/dedup"
)

// Type discriminates the ClusterEvent variants used by the core.
type Type string

const (
	ChatMessage         Type = "ChatMessage"
	Danmaku             Type = "Danmaku"
	PlaybackStateChange Type = "PlaybackStateChanged"
	UserJoined          Type = "UserJoined"
	UserLeft            Type = "UserLeft"
	RoomSettingsChanged Type = "RoomSettingsChanged"
	PermissionChanged   Type = "PermissionChanged"
	KickPublisher       Type = "KickPublisher"
)

// Event is a cluster-wide event. EventID, TimestampMicros, and NodeID are
// common to every variant; Room/User scope and Payload carry the rest.
type Event struct {
	EventID         string          `json:"event_id"`
	Type            Type            `json:"type"`
	TimestampMicros int64           `json:"timestamp"`
	NodeID          string          `json:"node_id"`
	Room            string          `json:"room,omitempty"`
	User            string          `json:"user,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// Timestamp returns the event's timestamp as a time.Time.
func (e *Event) Timestamp() time.Time {
	return time.UnixMicro(e.TimestampMicros)
}

// ChatPayload is the payload body for a ChatMessage event.
type ChatPayload struct {
	Body string `json:"body"`
}

// DanmakuPayload is the payload body for a Danmaku event.
type DanmakuPayload struct {
	Body string `json:"body"`
	Mode int    `json:"mode,omitempty"`
}

// KickPublisherPayload identifies the media whose publisher must terminate.
type KickPublisherPayload struct {
	MediaID string `json:"media_id"`
}

// DedupKey derives the dedup cache key for this event: event type, optional
// room/user, millisecond timestamp, and the event's identity (here, always
// the event id — always present and always unique).
func (e *Event) DedupKey() dedup.Key {
	return dedup.Key{
		EventType:   string(e.Type),
		Room:        e.Room,
		User:        e.User,
		TimestampMs: e.TimestampMicros / 1000,
		Identity:    e.EventID,
	}
}
