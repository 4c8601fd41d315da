// If you are AI: this file generates the opaque identifiers described in the
// data model: NodeId, EventId, and the per-stream RoomMediaKey used to index
// the registry, GOP cache, and pull-stream pool.
package ids

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
)

// RoomMediaKey uniquely identifies a live stream by room and media id.
// It is comparable and usable as a map key.
type RoomMediaKey struct {
	Room  string
	Media string
}

// NewRoomMediaKey builds a key from a room and media id.
func NewRoomMediaKey(room, media string) RoomMediaKey {
	return RoomMediaKey{Room: room, Media: media}
}

// String returns the "room/media" wire form, also used as the RTMP stream
// name and the Redis key suffix ("stream:{room}:{media}" is built by callers).
func (k RoomMediaKey) String() string {
	return fmt.Sprintf("%s/%s", k.Room, k.Media)
}

// ParseRoomMediaKey splits an RTMP stream name of the form "room_id/media_id".
func ParseRoomMediaKey(streamName string) (RoomMediaKey, error) {
	parts := strings.SplitN(streamName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RoomMediaKey{}, fmt.Errorf("invalid stream name %q, want room_id/media_id", streamName)
	}
	return RoomMediaKey{Room: parts[0], Media: parts[1]}, nil
}

// NewNodeID generates this process's cluster identity: "{hostname}_{ip}-{rand6}".
func NewNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s_%s-%s", host, localIPv4(), randSuffix())
}

func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "0.0.0.0"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return "0.0.0.0"
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// NewEventID generates a unique per-event token (>= 12 chars, opaque).
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
