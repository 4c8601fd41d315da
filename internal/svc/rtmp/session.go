// If you are AI: This file manages RTMP service session handling.
// Handles connect/command processing and publish lifecycle.

package rtmp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/core/protocol/amf0"
	"github.com/synctv-org/synctv-core/internal/core/protocol/flv"
	rtmpprotocol "github.com/synctv-org/synctv-core/internal/core/protocol/rtmp"
	"github.com/synctv-org/synctv-core/internal/gop"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

// ServiceSession wraps an RTMP protocol session with ingest service logic:
// claiming stream ownership on publish, fanning media into the claimed
// Publisher, and releasing the claim on close.
type ServiceSession struct {
	*rtmpprotocol.Session

	registry   *registry.Registry
	publishers *stream.PublisherSet
	nodeID     string
	rpcAddr    string
	log        *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	key          ids.RoomMediaKey
	active       *stream.Publisher
	nextStreamID uint32
}

// NewServiceSession creates a new service session bound to a cluster node
// identity and the registry/publisher set it claims streams against.
func NewServiceSession(conn io.ReadWriter, reg *registry.Registry, publishers *stream.PublisherSet, nodeID, rpcAddr string, log *zap.SugaredLogger) *ServiceSession {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceSession{
		Session:      rtmpprotocol.NewSession(conn),
		registry:     reg,
		publishers:   publishers,
		nodeID:       nodeID,
		rpcAddr:      rpcAddr,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		nextStreamID: 1,
	}
}

// HandleConnect handles the connect command.
// Format: ["connect", transaction_id, command_object, ...]
// NOTE: some clients omit the command object or send it as a bare map.
func (s *ServiceSession) HandleConnect(command amf0.Array) error {
	if len(command) < 2 {
		return fmt.Errorf("invalid connect command: need at least 2 elements")
	}

	app := "live"
	objectEncoding := float64(0)

	if len(command) >= 3 && command[2] != nil {
		var cmdObj amf0.Object
		switch v := command[2].(type) {
		case amf0.Object:
			cmdObj = v
		case map[string]interface{}:
			cmdObj = make(amf0.Object)
			for k, val := range v {
				cmdObj[k] = val
			}
		}
		if cmdObj != nil {
			if appVal, ok := cmdObj["app"].(string); ok {
				app = appVal
			}
			if encVal, ok := cmdObj["objectEncoding"].(float64); ok {
				objectEncoding = encVal
			}
		}
	}

	s.SetApp(app)

	// Window ack size and peer bandwidth MUST be sent after the connect
	// command but before the connect response.
	if err := s.WriteMessage(2, rtmpprotocol.MessageTypeWinAckSize, 0, 0, createWindowAckSizeBody(5000000)); err != nil {
		return fmt.Errorf("send window ack size: %w", err)
	}
	if err := s.WriteMessage(2, rtmpprotocol.MessageTypeSetPeerBandwidth, 0, 0, createSetPeerBandwidthBody(5000000, 2)); err != nil {
		return fmt.Errorf("send set peer bandwidth: %w", err)
	}

	if err := s.SendConnectResult(command[1], objectEncoding); err != nil {
		return err
	}
	s.log.Debugw("connect accepted", "app", app)
	return nil
}

// SendConnectResult sends the connect _result response.
func (s *ServiceSession) SendConnectResult(transID interface{}, objectEncoding float64) error {
	var transIDFloat float64
	switch v := transID.(type) {
	case float64:
		transIDFloat = v
	case int:
		transIDFloat = float64(v)
	case int64:
		transIDFloat = float64(v)
	default:
		transIDFloat = 1.0
	}

	cmdObj := amf0.Object{
		"fmsVer":       "FMS/3,0,1,123",
		"capabilities": float64(31),
	}
	info := amf0.Object{
		"level":          "status",
		"code":           "NetConnection.Connect.Success",
		"description":    "Connection succeeded.",
		"objectEncoding": objectEncoding,
	}

	body, err := amf0.EncodeCommand(amf0.Array{"_result", transIDFloat, cmdObj, info})
	if err != nil {
		return err
	}
	return s.WriteMessage(3, rtmpprotocol.MessageTypeCommandAMF0, 0, 0, body)
}

// HandleMediaMessage routes audio/video/metadata payloads into the claimed
// Publisher's GOP cache and sink fanout. A no-op if nothing is publishing.
func (s *ServiceSession) HandleMediaMessage(msgType byte, timestamp uint32, body []byte) {
	if s.active == nil {
		return
	}

	switch msgType {
	case rtmpprotocol.MessageTypeAudio:
		s.active.PublishFrame(gop.NewFrame(gop.Audio, timestamp, body, false))
	case rtmpprotocol.MessageTypeVideo:
		s.active.PublishFrame(gop.NewFrame(gop.Video, timestamp, body, flv.IsVideoKeyframe(body)))
	case rtmpprotocol.MessageTypeDataAMF0:
		s.active.PublishFrame(gop.NewFrame(gop.Metadata, timestamp, body, false))
	}
}

// Close tears down the session: stops the heartbeat loop, releases the
// ownership claim if this session was publishing, and closes the
// underlying protocol session.
func (s *ServiceSession) Close() {
	s.cancel()
	if s.active != nil {
		s.active.Stop(context.Background())
		s.publishers.Remove(s.key, s.active)
		s.active = nil
	}
	s.Session.Close()
}

func createWindowAckSizeBody(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

func createSetPeerBandwidthBody(size uint32, limitType byte) []byte {
	body := make([]byte, 5)
	binary.BigEndian.PutUint32(body[0:4], size)
	body[4] = limitType
	return body
}
