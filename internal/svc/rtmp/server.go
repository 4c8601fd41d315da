// If you are AI: This file implements the RTMP server that accepts connections.
// The server handles handshake, command processing, and media publishing.

package rtmp

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/core/protocol/amf0"
	rtmpprotocol "github.com/synctv-org/synctv-core/internal/core/protocol/rtmp"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/stream"
)

// Server accepts RTMP publisher connections and claims stream ownership
// against the cluster registry on their behalf.
type Server struct {
	registry   *registry.Registry
	publishers *stream.PublisherSet
	nodeID     string
	rpcAddr    string
	log        *zap.SugaredLogger
	listener   net.Listener
}

// NewServer creates a new RTMP server bound to this node's cluster identity.
func NewServer(reg *registry.Registry, publishers *stream.PublisherSet, nodeID, rpcAddr string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		registry:   reg,
		publishers: publishers,
		nodeID:     nodeID,
		rpcAddr:    rpcAddr,
		log:        log,
	}
}

// Listen starts listening on the specified address.
func (s *Server) Listen(addr string) error {
	var err error
	s.listener, err = net.Listen("tcp", addr)
	return err
}

// Accept accepts new connections and handles each in its own goroutine
// until the listener is closed.
func (s *Server) Accept() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	session := NewServiceSession(conn, s.registry, s.publishers, s.nodeID, s.rpcAddr, s.log)
	defer session.Close()

	if err := session.PerformHandshake(); err != nil {
		s.log.Infow("handshake failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	for {
		csID, err := session.ReadChunk()
		if err != nil {
			if err != io.EOF {
				s.log.Infow("read chunk error", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		body, msgType, timestamp, streamID, complete := session.GetCompleteMessage(csID)
		if !complete {
			continue
		}

		switch msgType {
		case rtmpprotocol.MessageTypeSetChunkSize:
			size, err := rtmpprotocol.ParseSetChunkSize(body)
			if err != nil {
				s.log.Infow("parse set chunk size failed", "error", err)
				continue
			}
			session.SetChunkSize(size)

		case rtmpprotocol.MessageTypeUserCtrl:
			// No response required for ping/stream-begin style messages.

		case rtmpprotocol.MessageTypeCommandAMF0:
			if err := s.handleCommand(session, body, streamID); err != nil {
				s.log.Infow("command handling error", "remote", conn.RemoteAddr(), "error", err)
				return
			}

		case rtmpprotocol.MessageTypeAudio, rtmpprotocol.MessageTypeVideo, rtmpprotocol.MessageTypeDataAMF0:
			session.HandleMediaMessage(msgType, timestamp, body)

		default:
			// Other message types are ignored.
		}
	}
}

// handleCommand decodes an AMF0 command message and dispatches it.
func (s *Server) handleCommand(session *ServiceSession, body []byte, streamID uint32) error {
	command, err := amf0.DecodeCommand(bytes.NewReader(body))
	if err != nil {
		return err
	}
	if len(command) == 0 {
		return nil
	}

	cmdName, ok := command[0].(string)
	if !ok {
		return nil
	}

	switch cmdName {
	case "connect":
		return session.HandleConnect(command)
	case "releaseStream":
		return session.HandleReleaseStream(command)
	case "FCPublish":
		return session.HandleFCPublish(command)
	case "createStream":
		return session.HandleCreateStream(command)
	case "publish":
		return session.HandlePublish(command, streamID)
	case "deleteStream", "closeStream":
		session.Close()
		return nil
	default:
		// Unknown commands are ignored.
		return nil
	}
}

// Close closes the server's listener.
func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// CreateWindowAckSize creates a window acknowledgement size message.
func CreateWindowAckSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}

// CreateSetPeerBandwidth creates a set peer bandwidth message.
func CreateSetPeerBandwidth(size uint32, limitType byte) []byte {
	body := make([]byte, 5)
	binary.BigEndian.PutUint32(body[0:4], size)
	body[4] = limitType
	return body
}
