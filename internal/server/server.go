// If you are AI: This file constructs and owns every long-lived subsystem
// for one cluster node: the Stream Registry, Room Message Hub, Cluster
// Pub/Sub fabric, Cache Manager, Playback State Service, Publisher set,
// cross-node Pull Manager, and the user-facing ingest/playback/API/health
// HTTP and RTMP servers built on top of them.

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/synctv-org/synctv-core/internal/cachemgr"
	"github.com/synctv-org/synctv-core/internal/clusterbus"
	"github.com/synctv-org/synctv-core/internal/clusterevent"
	"github.com/synctv-org/synctv-core/internal/config"
	"github.com/synctv-org/synctv-core/internal/dedup"
	"github.com/synctv-org/synctv-core/internal/hub"
	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/metrics"
	"github.com/synctv-org/synctv-core/internal/playback"
	"github.com/synctv-org/synctv-core/internal/registry"
	"github.com/synctv-org/synctv-core/internal/rpcstream"
	"github.com/synctv-org/synctv-core/internal/stream"
	"github.com/synctv-org/synctv-core/internal/svc/api"
	"github.com/synctv-org/synctv-core/internal/svc/chat"
	"github.com/synctv-org/synctv-core/internal/svc/health"
	"github.com/synctv-org/synctv-core/internal/svc/httpflv"
	"github.com/synctv-org/synctv-core/internal/svc/rtmp"
	"github.com/synctv-org/synctv-core/internal/svc/wsflv"
)

// Server wraps every subsystem of one cluster node and its HTTP/RTMP/RPC
// front doors.
type Server struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	nodeID string

	httpServer *http.Server
	rtmpServer *rtmp.Server
	rpcServer  *grpc.Server
	rpcLis     net.Listener

	registry    *registry.Registry
	hub         *hub.Hub
	clusterBus  *clusterbus.Bus
	dedupCache  *dedup.Cache
	cacheMgr    *cachemgr.Manager
	invalidator *cachemgr.InvalidationBus
	playbackSvc *playback.Service
	publishers  *stream.PublisherSet
	pullManager *stream.PullManager

	rdb *redis.Client

	bgCancel context.CancelFunc
}

// New constructs a Server and every subsystem it owns, but starts nothing:
// call Start to begin listening.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Server, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	nodeID := cfg.Cluster.NodeID
	if nodeID == "" {
		nodeID = ids.NewNodeID()
	}
	rpcAddr := cfg.Cluster.RPCAddr
	if rpcAddr == "" {
		rpcAddr = fmt.Sprintf("%s:%d", nodeID, cfg.Server.RPCPort)
	}
	log = log.With("node_id", nodeID)

	s := &Server{cfg: cfg, log: log, nodeID: nodeID}

	var regStore registry.Store
	var pbStore playback.Store
	var l2 cachemgr.L2

	if cfg.Cluster.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cluster.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis_url: %w", err)
		}
		s.rdb = redis.NewClient(opts)
		regStore = registry.NewRedisStore(s.rdb, "synctv:registry")
		pbStore = playback.NewRedisStore(s.rdb, "synctv:playback")
		l2 = cachemgr.NewRedisL2(s.rdb, "synctv:cache")
	} else {
		regStore = registry.NewMemoryStore()
		pbStore = playback.NewMemoryStore()
		l2 = cachemgr.NewMemoryL2()
		log.Infow("redis_url not set, running single-node with in-memory stores")
	}

	s.registry = registry.New(regStore, cfg.Cluster.RegistryTTL, log)
	s.hub = hub.New(cfg.Cluster.HubQueueDepth)
	s.dedupCache = dedup.New(cfg.Cluster.DedupWindow)
	s.cacheMgr = cachemgr.NewManager(l2, cfg.Cluster.L1CacheCapacity, cfg.Cluster.L2CacheTTL)
	s.publishers = stream.NewPublisherSet()

	if s.rdb != nil {
		s.clusterBus = clusterbus.New(s.rdb, clusterbus.DefaultChannel, nodeID, s.hub, s.dedupCache, log, s.onKickPublisher)
		s.invalidator = cachemgr.NewInvalidationBus(s.rdb, cachemgr.DefaultInvalidationChannel, s.cacheMgr, log)
	}

	s.playbackSvc = playback.New(pbStore, s.clusterBus, nodeID, log)

	dial := func(ctx context.Context, addr string) (*grpc.ClientConn, error) {
		return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	s.pullManager = stream.NewPullManager(s.registry, dial, cfg.Cluster.GopMaxCount, cfg.Cluster.GopMaxCacheBytes, log)

	mux := http.NewServeMux()
	health.New(s.registry).RegisterRoutes(mux)
	api.NewService(s.registry, s.publishers).RegisterRoutes(mux)
	httpflv.NewService(s.registry, s.publishers, s.pullManager, nodeID, log).RegisterRoutes(mux)
	wsflv.NewService(s.registry, s.publishers, s.pullManager, nodeID, log).RegisterRoutes(mux)
	chat.NewHandler(s.hub, s.clusterBus, cfg.Cluster.ChatRateLimitPerSec, cfg.Cluster.ChatRateLimitBurst, log).RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	s.rtmpServer = rtmp.NewServer(s.registry, s.publishers, nodeID, rpcAddr, log)

	s.rpcServer = grpc.NewServer()
	rpcstream.RegisterStreamRelayServer(s.rpcServer, stream.NewRelayServer(s.publishers, log))

	return s, nil
}

// onKickPublisher is the callback the cluster bus invokes for a
// KickPublisher event. It takes no action: a local publisher named by the
// event keeps running, keeps its registry claim, and stays in the
// publisher set.
func (s *Server) onKickPublisher(event *clusterevent.Event) {
	_ = event
}

// Start begins listening on the RTMP, RPC, and HTTP ports and blocks until
// the HTTP server stops (normally via Shutdown).
func (s *Server) Start() error {
	bgCtx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if err := s.rtmpServer.Listen(fmt.Sprintf(":%d", s.cfg.Server.RTMPPort)); err != nil {
		return fmt.Errorf("rtmp listen: %w", err)
	}
	go func() {
		if err := s.rtmpServer.Accept(); err != nil {
			s.log.Infow("rtmp accept loop stopped", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.RPCPort))
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.rpcLis = lis
	go func() {
		if err := s.rpcServer.Serve(lis); err != nil {
			s.log.Infow("rpc serve loop stopped", "error", err)
		}
	}()

	if s.clusterBus != nil {
		if err := s.clusterBus.Start(bgCtx); err != nil {
			return fmt.Errorf("cluster bus start: %w", err)
		}
	}
	if s.invalidator != nil {
		go func() {
			if err := s.invalidator.Run(bgCtx); err != nil {
				s.log.Warnw("invalidation bus stopped", "error", err)
			}
		}()
	}

	go s.pullManager.RunSweepLoop(bgCtx, stream.DefaultSweepInterval, s.cfg.Cluster.PullIdleTimeout)
	go s.sampleGauges(bgCtx)

	return s.httpServer.ListenAndServe()
}

// sampleGauges periodically refreshes the process-wide Prometheus gauges
// that reflect this node's in-memory state rather than an event count.
func (s *Server) sampleGauges(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.PublishersActive.Set(float64(s.publishers.Count()))
			metrics.PullStreamsActive.Set(float64(s.pullManager.Count()))
		}
	}
}

// Shutdown gracefully stops the HTTP server with ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownWithTimeout tears down every subsystem with a fixed 5-second
// timeout, in roughly reverse order of startup.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.rtmpServer != nil {
		s.rtmpServer.Close()
	}
	if s.rpcServer != nil {
		s.rpcServer.GracefulStop()
	}
	if s.clusterBus != nil {
		s.clusterBus.Stop()
	}
	if s.rdb != nil {
		s.rdb.Close()
	}

	return s.Shutdown(ctx)
}
