// If you are AI: This file provides FLV muxing helpers for converting a
// gop.Frame into an FLV tag, preserving the original payload without
// transcoding.

package flv

import (
	"github.com/synctv-org/synctv-core/internal/gop"
)

// MuxAudio converts an audio Frame to an FLV audio tag.
func MuxAudio(f *gop.Frame) *Tag {
	if f == nil || f.Kind != gop.Audio {
		return nil
	}
	return NewTag(TagTypeAudio, f.TimestampMs, f.Data)
}

// MuxVideo converts a video Frame to an FLV video tag.
func MuxVideo(f *gop.Frame) *Tag {
	if f == nil || f.Kind != gop.Video {
		return nil
	}
	return NewTag(TagTypeVideo, f.TimestampMs, f.Data)
}

// MuxScript converts a metadata Frame to an FLV script tag.
func MuxScript(f *gop.Frame) *Tag {
	if f == nil || f.Kind != gop.Metadata {
		return nil
	}
	return NewTag(TagTypeScript, f.TimestampMs, f.Data)
}

// MuxFrame converts f to an FLV tag based on its kind. Returns nil for an
// unrecognized kind.
func MuxFrame(f *gop.Frame) *Tag {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case gop.Audio:
		return MuxAudio(f)
	case gop.Video:
		return MuxVideo(f)
	case gop.Metadata:
		return MuxScript(f)
	default:
		return nil
	}
}
