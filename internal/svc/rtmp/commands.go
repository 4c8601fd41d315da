// If you are AI: This file handles RTMP command messages after connect.
// Implements releaseStream, FCPublish, createStream, and publish.

package rtmp

import (
	"fmt"

	"github.com/synctv-org/synctv-core/internal/core/protocol/amf0"
	rtmpprotocol "github.com/synctv-org/synctv-core/internal/core/protocol/rtmp"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/stream"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// HandleReleaseStream handles the releaseStream command.
// FFmpeg sends this before createStream; respond with _result for the
// transaction ID.
func (s *ServiceSession) HandleReleaseStream(command amf0.Array) error {
	if len(command) < 2 {
		return nil
	}
	transID := toFloat64(command[1])
	body, err := amf0.EncodeCommand(amf0.Array{"_result", transID, nil})
	if err != nil {
		return err
	}
	return s.WriteMessage(3, rtmpprotocol.MessageTypeCommandAMF0, 0, 0, body)
}

// HandleFCPublish handles the FCPublish command. Most servers send no
// response; we send onFCPublish for compatibility with stricter clients.
func (s *ServiceSession) HandleFCPublish(command amf0.Array) error {
	if len(command) < 2 {
		return nil
	}
	transID := toFloat64(command[1])
	body, err := amf0.EncodeCommand(amf0.Array{"_result", transID, nil})
	if err != nil {
		return err
	}
	return s.WriteMessage(3, rtmpprotocol.MessageTypeCommandAMF0, 0, 0, body)
}

// HandleCreateStream handles the createStream command, returning _result
// with a newly allocated stream ID.
func (s *ServiceSession) HandleCreateStream(command amf0.Array) error {
	if len(command) < 2 {
		return fmt.Errorf("invalid createStream command")
	}
	streamID := s.nextStreamID
	s.nextStreamID++

	transID := toFloat64(command[1])
	body, err := amf0.EncodeCommand(amf0.Array{"_result", transID, nil, float64(streamID)})
	if err != nil {
		return err
	}
	return s.WriteMessage(3, rtmpprotocol.MessageTypeCommandAMF0, 0, 0, body)
}

// HandlePublish handles the publish command: it claims cluster-wide
// ownership of the (room, media) stream named by the client, and on
// success starts a Publisher and its heartbeat loop. streamID is the
// stream ID from the message header the publish command arrived on.
func (s *ServiceSession) HandlePublish(command amf0.Array, streamID uint32) error {
	streamName := extractStreamName(command)
	if streamName == "" {
		return fmt.Errorf("stream name not found in publish command")
	}
	key, err := ids.ParseRoomMediaKey(streamName)
	if err != nil {
		return err
	}

	epoch, ok, err := s.registry.TryClaim(s.ctx, key, s.nodeID, s.rpcAddr)
	if err != nil {
		return fmt.Errorf("claim stream %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", xerr.ErrContention, key)
	}

	p := stream.NewPublisher(key, s.nodeID, epoch, s.registry, defaultMaxGops, defaultMaxCacheBytes, s.log)
	s.publishers.Put(p)
	s.key = key
	s.active = p

	go func() {
		if err := p.RunHeartbeat(s.ctx, 0); err != nil {
			s.log.Warnw("publisher heartbeat stopped", "key", key.String(), "error", err)
		}
	}()

	s.SetStreamName(streamName)
	s.SetState(rtmpprotocol.StatePublishing)

	if err := s.WriteMessage(2, rtmpprotocol.MessageTypeUserCtrl, 0, 0,
		rtmpprotocol.CreateStreamBegin(streamID)); err != nil {
		s.log.Warnw("send StreamBegin failed", "error", err)
	}

	return s.sendOnStatus(streamID, "status", "NetStream.Publish.Start", "Start publishing")
}

// sendOnStatus sends an onStatus message on the given stream ID.
func (s *ServiceSession) sendOnStatus(streamID uint32, level, code, description string) error {
	status := amf0.Object{
		"level":       level,
		"code":        code,
		"description": description,
	}
	body, err := amf0.EncodeCommand(amf0.Array{"onStatus", float64(0), nil, status})
	if err != nil {
		return err
	}
	return s.WriteMessage(5, rtmpprotocol.MessageTypeCommandAMF0, 0, streamID, body)
}

// extractStreamName pulls the stream name out of a publish command.
// publish format: ["publish", txnID, null, streamName, publishType]. Some
// clients omit the null command object, shifting the name to index 2.
func extractStreamName(command amf0.Array) string {
	if len(command) >= 4 {
		if name, ok := command[3].(string); ok {
			return name
		}
	}
	if len(command) >= 3 {
		if name, ok := command[2].(string); ok {
			return name
		}
	}
	return ""
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
