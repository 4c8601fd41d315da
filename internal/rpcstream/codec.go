// Codec implements google.golang.org/grpc/encoding.Codec for the "rawframe"
// content-subtype, so the stream relay service can run over genuine gRPC
// (channels, interceptors, deadlines, retries) without a protoc-generated
// message type.
package rpcstream

import "fmt"

// Name is the content-subtype registered with grpc/encoding.
const Name = "rawframe"

type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// Codec marshals PullRequest and RtmpPacket via their own binary framing.
type Codec struct{}

// Marshal encodes v, which must implement wireMessage.
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("rpcstream: %T does not implement wireMessage", v)
	}
	return m.Marshal()
}

// Unmarshal decodes data into v, which must implement wireMessage.
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("rpcstream: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}

// Name reports the content-subtype this codec handles.
func (Codec) Name() string { return Name }
