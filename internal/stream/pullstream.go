// PullStream relays a remote node's live frames into a synthetic local
// Publisher so viewers connected to this node can watch a stream whose
// RTMP ingest landed on a different node entirely.
package stream

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/synctv-org/synctv-core/internal/gop"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/rpcstream"
	"github.com/synctv-org/synctv-core/internal/xerr"
)

// DefaultEpochCheckInterval bounds how often a PullStream reconfirms it is
// still pulling from the live owner, not a stale one.
const DefaultEpochCheckInterval = 10 * time.Second

// Dialer opens a gRPC connection to a remote node's relay address.
type Dialer func(ctx context.Context, rpcAddr string) (*grpc.ClientConn, error)

// PullStream is the client side of one inter-node relay.
type PullStream struct {
	Key   ids.RoomMediaKey
	Local *Publisher

	registry *registry.Registry
	dial     Dialer
	log      *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPullStream creates a PullStream. The returned Local Publisher is ready
// for viewer sinks to attach to immediately; it starts empty until frames
// begin arriving from the remote owner.
func NewPullStream(key ids.RoomMediaKey, reg *registry.Registry, dial Dialer, maxGops, maxCacheBytes int, log *zap.SugaredLogger) *PullStream {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	local := NewPublisher(key, "", 0, reg, maxGops, maxCacheBytes, log)
	return &PullStream{
		Key:      key,
		Local:    local,
		registry: reg,
		dial:     dial,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Run resolves the current owner, opens the relay RPC, and copies frames
// into the local Publisher until ctx is canceled, the remote stream ends,
// or the owner's epoch is superseded. It returns promptly; callers should
// invoke it in its own goroutine.
func (p *PullStream) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	defer close(p.done)

	rec, ok, err := p.registry.Lookup(ctx, p.Key)
	if err != nil {
		return err
	}
	if !ok {
		return xerr.ErrNoPublisher
	}

	conn, err := p.dial(ctx, rec.RPCAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := rpcstream.NewStreamRelayClient(conn)
	req := &rpcstream.PullRequest{Room: p.Key.Room, Media: p.Key.Media, Epoch: rec.Epoch}
	relayStream, err := client.PullRtmpStream(ctx, req)
	if err != nil {
		return err
	}

	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	go p.watchEpoch(watchCtx, rec.Epoch, cancel)

	for {
		pkt, err := relayStream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.Local.PublishFrame(gop.NewFrame(gop.Kind(pkt.Kind), pkt.TimestampMs, pkt.Data, pkt.IsKeyframe))
	}
}

// watchEpoch periodically reconfirms the epoch this PullStream was opened
// for is still current, canceling the relay the moment a failover moves
// ownership to a newer epoch.
func (p *PullStream) watchEpoch(ctx context.Context, epoch int64, cancel context.CancelFunc) {
	ticker := time.NewTicker(DefaultEpochCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.registry.ValidateEpoch(ctx, p.Key, epoch) {
				p.log.Infow("pull stream epoch superseded, tearing down", "key", p.Key.String())
				cancel()
				return
			}
		}
	}
}

// Stop cancels the relay loop and waits for Run to return.
func (p *PullStream) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}
