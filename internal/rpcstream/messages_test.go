package rpcstream

import "testing"

func TestPullRequestRoundTrip(t *testing.T) {
	want := PullRequest{Room: "room1", Media: "cam1", Epoch: 42}
	data, err := want.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got PullRequest
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRtmpPacketRoundTrip(t *testing.T) {
	want := RtmpPacket{TimestampMs: 1000, Kind: 1, IsKeyframe: true, Data: []byte{1, 2, 3, 4}}
	data, err := want.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got RtmpPacket
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TimestampMs != want.TimestampMs || got.Kind != want.Kind || got.IsKeyframe != want.IsKeyframe {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if string(got.Data) != string(want.Data) {
		t.Errorf("data mismatch: got %v want %v", got.Data, want.Data)
	}
}

func TestRtmpPacketUnmarshalShortBufferErrors(t *testing.T) {
	var p RtmpPacket
	if err := p.Unmarshal([]byte{1, 2, 3}); err != ErrShortBuffer {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	var c Codec
	want := &PullRequest{Room: "r", Media: "m", Epoch: 7}
	data, err := c.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := &PullRequest{}
	if err := c.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", *got, *want)
	}
}
