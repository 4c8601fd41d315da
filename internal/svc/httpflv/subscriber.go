// If you are AI: This file implements the HTTP-FLV subscriber: a
// stream.FrameSink backed by a bounded, drop-oldest channel so a slow
// HTTP client never blocks the Publisher's fanout loop.

package httpflv

import (
	"bufio"
	"context"
	"io"

	"github.com/synctv-org/synctv-core/internal/core/protocol/flv"
	"github.com/synctv-org/synctv-core/internal/gop"
)

// DefaultQueueDepth bounds how many frames a subscriber may buffer before
// the oldest is dropped to make room for the newest.
const DefaultQueueDepth = 1024

// Subscriber delivers one viewer's FLV byte stream over an io.Writer.
type Subscriber struct {
	writer        *bufio.Writer
	frames        chan *gop.Frame
	headerWritten bool
}

// NewSubscriber creates a Subscriber writing FLV tags to w.
func NewSubscriber(w io.Writer, queueDepth int) *Subscriber {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &Subscriber{
		writer: bufio.NewWriter(w),
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

// WriteHeader writes the FLV file header. Must be called before Run.
func (s *Subscriber) WriteHeader(hasAudio, hasVideo bool) error {
	if s.headerWritten {
		return nil
	}
	header := flv.NewHeader(hasAudio, hasVideo)
	if _, err := s.writer.Write(header.Bytes()); err != nil {
		return err
	}
	if _, err := s.writer.Write(make([]byte, 4)); err != nil { // PreviousTagSize0
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	s.headerWritten = true
	return nil
}

// Run drains queued frames and writes them as FLV tags until ctx is
// canceled or a write fails (client disconnected).
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
			if _, err := s.writer.Write(tag.Bytes()); err != nil {
				return err
			}
			if err := s.writer.Flush(); err != nil {
				return err
			}
		}
	}
}
