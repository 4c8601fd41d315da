// If you are AI: This file implements the WebSocket-FLV subscriber: a
// stream.FrameSink that writes each FLV tag as its own binary WebSocket
// frame, backed by the same bounded drop-oldest queue as httpflv.

package wsflv

import (
	"context"

	"github.com/synctv-org/synctv-core/internal/core/protocol/flv"
	"github.com/synctv-org/synctv-core/internal/gop"
)

// DefaultQueueDepth bounds how many frames a subscriber may buffer before
// the oldest is dropped to make room for the newest.
const DefaultQueueDepth = 1024

// WebSocketConn is the minimal transport a Subscriber needs; satisfied by
// *gorilla/websocket.Conn.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscriber delivers one viewer's FLV byte stream over a WebSocket.
type Subscriber struct {
	conn          WebSocketConn
	frames        chan *gop.Frame
	headerWritten bool
}

// NewSubscriber creates a Subscriber writing FLV tags to conn.
func NewSubscriber(conn WebSocketConn, queueDepth int) *Subscriber {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &Subscriber{
		conn:   conn,
		frames: make(chan *gop.Frame, queueDepth),
	}
}

// SendFrame implements stream.FrameSink. It never blocks: when the queue
// is full, the oldest buffered frame is dropped to make room.
func (s *Subscriber) SendFrame(f *gop.Frame) bool {
	select {
	case s.frames <- f:
		return true
	default:
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- f:
		default:
		}
		return false
	}
}

// WriteHeader writes the FLV file header as the first WebSocket frame.
func (s *Subscriber) WriteHeader(hasAudio, hasVideo bool) error {
	if s.headerWritten {
		return nil
	}
	header := flv.NewHeader(hasAudio, hasVideo)
	headerBytes := header.Bytes()

	frame := make([]byte, len(headerBytes)+4) // +4 for PreviousTagSize0
	copy(frame, headerBytes)

	if err := s.conn.WriteMessage(2, frame); err != nil {
		return err
	}
	s.headerWritten = true
	return nil
}

// Run drains queued frames and writes each as its own binary WebSocket
// frame until ctx is canceled or a write fails (client disconnected).
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-s.frames:
			tag := flv.MuxFrame(f)
			if tag == nil {
				continue
			}
			if err := s.conn.WriteMessage(2, tag.Bytes()); err != nil {
				return err
			}
		}
	}
}
