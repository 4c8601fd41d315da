// Wire types for the inter-node stream relay RPC. There is no protobuf
// code generator available in this build environment, so these are framed
// by hand with encoding/binary in the same spirit as the RTMP chunk and FLV
// tag framing in internal/core/protocol — a length-prefixed, fixed-field
// binary layout rather than a generated message.
package rpcstream

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a marshaled message is truncated.
var ErrShortBuffer = errors.New("rpcstream: short buffer")

// PullRequest asks the owning node to start relaying a stream's frames.
type PullRequest struct {
	Room  string
	Media string
	Epoch int64
}

// Marshal encodes r as room-len|room|media-len|media|epoch.
func (r *PullRequest) Marshal() ([]byte, error) {
	buf := make([]byte, 0, 4+len(r.Room)+4+len(r.Media)+8)
	buf = appendString(buf, r.Room)
	buf = appendString(buf, r.Media)
	var epochBuf [8]byte
	binary.BigEndian.PutUint64(epochBuf[:], uint64(r.Epoch))
	buf = append(buf, epochBuf[:]...)
	return buf, nil
}

// Unmarshal decodes r from data produced by Marshal.
func (r *PullRequest) Unmarshal(data []byte) error {
	room, rest, err := readString(data)
	if err != nil {
		return err
	}
	media, rest, err := readString(rest)
	if err != nil {
		return err
	}
	if len(rest) < 8 {
		return ErrShortBuffer
	}
	r.Room = room
	r.Media = media
	r.Epoch = int64(binary.BigEndian.Uint64(rest[:8]))
	return nil
}

// RtmpPacket is one relayed media frame.
type RtmpPacket struct {
	TimestampMs uint32
	Kind        uint8
	IsKeyframe  bool
	Data        []byte
}

// Marshal encodes p as timestamp|kind|keyframe-flag|data-len|data.
func (p *RtmpPacket) Marshal() ([]byte, error) {
	buf := make([]byte, 0, 4+1+1+4+len(p.Data))
	var tsBuf [4]byte
	binary.BigEndian.PutUint32(tsBuf[:], p.TimestampMs)
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, p.Kind)
	if p.IsKeyframe {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, p.Data...)
	return buf, nil
}

// Unmarshal decodes p from data produced by Marshal.
func (p *RtmpPacket) Unmarshal(data []byte) error {
	if len(data) < 10 {
		return ErrShortBuffer
	}
	p.TimestampMs = binary.BigEndian.Uint32(data[0:4])
	p.Kind = data[4]
	p.IsKeyframe = data[5] != 0
	dataLen := binary.BigEndian.Uint32(data[6:10])
	if uint32(len(data)-10) < dataLen {
		return ErrShortBuffer
	}
	p.Data = data[10 : 10+dataLen]
	return nil
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, ErrShortBuffer
	}
	n := binary.BigEndian.Uint32(data[0:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return "", nil, ErrShortBuffer
	}
	return string(data[:n]), data[n:], nil
}
