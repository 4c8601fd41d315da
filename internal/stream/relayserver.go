// RelayServer is the gRPC-facing server side of inter-node stream relay: it
// serves PullRtmpStream requests from peer nodes by attaching a FrameSink
// to the requested Publisher and forwarding every frame it emits.
package stream

import (
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/gop"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/rpcstream"
)

// RelayServer implements rpcstream.StreamRelayServer atop a node's local
// PublisherSet.
type RelayServer struct {
	publishers *PublisherSet
	log        *zap.SugaredLogger
}

// NewRelayServer creates a RelayServer serving publishers.
func NewRelayServer(publishers *PublisherSet, log *zap.SugaredLogger) *RelayServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RelayServer{publishers: publishers, log: log}
}

// PullRtmpStream streams every frame published locally for req's (room,
// media) to the caller, until the caller disconnects or this node's claim
// moves to a different epoch than the one the caller pinned to.
func (r *RelayServer) PullRtmpStream(req *rpcstream.PullRequest, stream rpcstream.StreamRelay_PullRtmpStreamServer) error {
	key := ids.NewRoomMediaKey(req.Room, req.Media)
	p := r.publishers.Get(key)
	if p == nil {
		return status.Error(codes.NotFound, "no local publisher for stream")
	}
	if p.Epoch != req.Epoch {
		return rpcstream.ErrEpochSuperseded
	}

	sink := newRelaySink(stream, DefaultQueueDepth)
	id := p.AttachSink(sink)
	defer p.DetachSink(id)

	go sink.run()

	select {
	case <-sink.done:
		return sink.err
	case <-stream.Context().Done():
		sink.fail(stream.Context().Err())
		return sink.err
	}
}

// DefaultQueueDepth bounds how many frames a relay sink may buffer before
// the oldest is dropped to make room for the newest.
const DefaultQueueDepth = 1024

// relaySink adapts a gRPC server stream to the FrameSink interface. Frames
// are handed off through a bounded, drop-oldest channel so SendFrame never
// blocks the Publisher's fanout loop; a dedicated goroutine drains the
// channel and performs the blocking network Send.
type relaySink struct {
	stream rpcstream.StreamRelay_PullRtmpStreamServer
	frames chan *gop.Frame

	once sync.Once
	done chan struct{}
	err  error
}

// newRelaySink creates a relaySink buffering up to queueDepth frames.
func newRelaySink(stream rpcstream.StreamRelay_PullRtmpStreamServer, queueDepth int) *relaySink {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &relaySink{
		stream: stream,
		frames: make(chan *gop.Frame, queueDepth),
		done:   make(chan struct{}),
	}
}

// SendFrame implements stream.FrameSink. It never blocks: when the queue
// is full, the oldest buffered frame is dropped to make room.
func (s *relaySink) SendFrame(f *gop.Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}

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

// run drains frames and performs the blocking gRPC Send for each, until the
// sink fails or is stopped. A slow or stalled remote puller stalls only
// this goroutine, never the Publisher's fanout loop.
func (s *relaySink) run() {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.frames:
			pkt := &rpcstream.RtmpPacket{
				TimestampMs: f.TimestampMs,
				Kind:        uint8(f.Kind),
				IsKeyframe:  f.IsKeyframe,
				Data:        f.Data,
			}
			if err := s.stream.Send(pkt); err != nil {
				s.fail(err)
				return
			}
		}
	}
}

func (s *relaySink) fail(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}
