// State is the per-room playback position shared across every node serving
// that room, version-gated so concurrent Apply calls resolve to exactly one
// winner.
package playback

import "time"

// State is a room's current playback position.
type State struct {
	Room        string    `json:"room"`
	MediaID     string    `json:"media_id"`
	PositionMs  int64     `json:"position_ms"`
	Playing     bool      `json:"playing"`
	Version     int64     `json:"version"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Mutator computes the next state from the current one. Apply invokes it
// exactly once per call; a caller that retries after a conflict runs it
// again against the newer state.
type Mutator func(current State) State
