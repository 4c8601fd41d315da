// Hand-written ServiceDesc and client stub for the stream relay service,
// standing in for what protoc-gen-go-grpc would normally generate. The
// service exposes one server-streaming RPC: a puller asks for a stream by
// room/media/epoch and receives a sequence of RtmpPacket frames until the
// publisher goes away or the epoch it asked for is superseded.
package rpcstream

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "synctv.core.StreamRelay"

// StreamRelayServer is implemented by the node that owns a stream's
// ingest and can relay its frames to a puller on another node.
type StreamRelayServer interface {
	PullRtmpStream(req *PullRequest, stream StreamRelay_PullRtmpStreamServer) error
}

// StreamRelay_PullRtmpStreamServer is the server-side handle for a single
// PullRtmpStream call.
type StreamRelay_PullRtmpStreamServer interface {
	Send(*RtmpPacket) error
	grpc.ServerStream
}

type streamRelayPullRtmpStreamServer struct {
	grpc.ServerStream
}

func (s *streamRelayPullRtmpStreamServer) Send(p *RtmpPacket) error {
	return s.ServerStream.SendMsg(p)
}

func pullRtmpStreamHandler(srv any, stream grpc.ServerStream) error {
	req := new(PullRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(StreamRelayServer).PullRtmpStream(req, &streamRelayPullRtmpStreamServer{stream})
}

// ServiceDesc is the hand-written equivalent of a generated _ServiceDesc.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StreamRelayServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "PullRtmpStream",
			Handler:       pullRtmpStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "synctv/stream_relay.proto",
}

// RegisterStreamRelayServer attaches srv to s under ServiceDesc.
func RegisterStreamRelayServer(s *grpc.Server, srv StreamRelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// StreamRelayClient is the client-side stub for StreamRelayServer.
type StreamRelayClient interface {
	PullRtmpStream(ctx context.Context, req *PullRequest, opts ...grpc.CallOption) (StreamRelay_PullRtmpStreamClient, error)
}

// StreamRelay_PullRtmpStreamClient is the client-side handle for a single
// PullRtmpStream call.
type StreamRelay_PullRtmpStreamClient interface {
	Recv() (*RtmpPacket, error)
	grpc.ClientStream
}

type streamRelayClient struct {
	cc grpc.ClientConnInterface
}

// NewStreamRelayClient wraps an established connection.
func NewStreamRelayClient(cc grpc.ClientConnInterface) StreamRelayClient {
	return &streamRelayClient{cc: cc}
}

func (c *streamRelayClient) PullRtmpStream(ctx context.Context, req *PullRequest, opts ...grpc.CallOption) (StreamRelay_PullRtmpStreamClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/PullRtmpStream", opts...)
	if err != nil {
		return nil, err
	}
	x := &streamRelayPullRtmpStreamClient{stream}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type streamRelayPullRtmpStreamClient struct {
	grpc.ClientStream
}

func (x *streamRelayPullRtmpStreamClient) Recv() (*RtmpPacket, error) {
	m := new(RtmpPacket)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ErrEpochSuperseded is returned by a server-side PullRtmpStream
// implementation when the requested epoch no longer matches the current
// owner, signaling the puller to re-resolve ownership rather than retry
// this node.
var ErrEpochSuperseded = status.Error(codes.FailedPrecondition, "rpcstream: epoch superseded")
