// Publisher owns one (room, media) stream's live ingest: it holds the
// ownership claim, the GOP cache, and the set of local sinks (HTTP-FLV,
// WebSocket-FLV, and remote relay connections) that receive every frame as
// it arrives.
package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synctv-org/synctv-core/internal/gop"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
)

// FrameSink receives live frames from a Publisher. Send must not block; a
// sink that cannot keep up should drop the frame and report false.
type FrameSink interface {
	SendFrame(f *gop.Frame) bool
}

// Publisher is the live ingest point for one (room, media) stream.
type Publisher struct {
	Key    ids.RoomMediaKey
	NodeID string
	Epoch  int64

	registry *registry.Registry
	gopCache *gop.Cache
	log      *zap.SugaredLogger

	mu         sync.RWMutex
	sinks      map[uint64]FrameSink
	nextSinkID uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublisher wraps an already-claimed registry record as a live Publisher.
func NewPublisher(key ids.RoomMediaKey, nodeID string, epoch int64, reg *registry.Registry, maxGops, maxCacheBytes int, log *zap.SugaredLogger) *Publisher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Publisher{
		Key:      key,
		NodeID:   nodeID,
		Epoch:    epoch,
		registry: reg,
		gopCache: gop.NewCache(maxGops, maxCacheBytes),
		log:      log,
		sinks:    make(map[uint64]FrameSink),
		done:     make(chan struct{}),
	}
}

// PublishFrame appends f to the GOP cache and fans it out to every attached
// sink. A sink whose Send reports false (full/slow) is left attached; it is
// the sink's own responsibility to detach itself if it gives up.
func (p *Publisher) PublishFrame(f *gop.Frame) {
	p.gopCache.Append(f)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sink := range p.sinks {
		sink.SendFrame(f)
	}
}

// AttachSink registers sink and immediately replays the current GOP
// snapshot to it so a new viewer starts at the last keyframe boundary
// rather than mid-stream.
func (p *Publisher) AttachSink(sink FrameSink) uint64 {
	p.mu.Lock()
	p.nextSinkID++
	id := p.nextSinkID
	p.sinks[id] = sink
	p.mu.Unlock()

	for _, f := range p.gopCache.Snapshot() {
		sink.SendFrame(f)
	}
	return id
}

// DetachSink removes a previously attached sink.
func (p *Publisher) DetachSink(id uint64) {
	p.mu.Lock()
	delete(p.sinks, id)
	p.mu.Unlock()
}

// SinkCount reports how many sinks are currently attached, mainly for
// idle-stream cleanup decisions.
func (p *Publisher) SinkCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sinks)
}

// RunHeartbeat refreshes the ownership claim every interval until ctx is
// canceled or the claim is lost, at which point it returns the registry
// error so the caller can tear the Publisher down.
func (p *Publisher) RunHeartbeat(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	defer close(p.done)
	return p.registry.HeartbeatLoop(ctx, p.Key, p.NodeID, interval)
}

// Stop cancels the heartbeat loop and releases the ownership claim.
func (p *Publisher) Stop(ctx context.Context) {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	if err := p.registry.Release(ctx, p.Key, p.NodeID); err != nil {
		p.log.Warnw("release publisher claim", "key", p.Key.String(), "error", err)
	}
}

// GopSnapshot returns the current replayable frame sequence.
func (p *Publisher) GopSnapshot() []*gop.Frame {
	return p.gopCache.Snapshot()
}
