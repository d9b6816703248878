package recording

import (
	"context"
	"image"
	"time"
)

// State enumerates the lifecycle of one recording take.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateFinalized
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateFinalized:
		return "finalized"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateFinalized || s == StateDiscarded }

// Segment is one open span of the underlying capture mechanism. It cannot be
// paused; a pause closes it and a resume opens a new one.
type Segment interface {
	// Offer hands a composited frame to the segment. The segment copies what
	// it keeps; the caller may reuse frame as soon as Offer returns.
	Offer(frame *image.RGBA)
	// Close stops the segment and returns its encoded chunks in order.
	Close() ([][]byte, error)
}

// Recorder opens segments against the composited stream and the optional
// audio track.
type Recorder interface {
	Open(ctx context.Context) (Segment, error)
	MediaType() string
}

// AudioTrack is the optional microphone track recorded alongside video.
type AudioTrack interface {
	Label() string
	Stop()
}

// StateListener is called after every successful transition.
type StateListener func(prev, next State)

// ClosedSegment is the data of one finished segment.
type ClosedSegment struct {
	Index    int
	Chunks   [][]byte
	Bytes    int
	OpenedAt time.Time
	ClosedAt time.Time
}

// Blob is the exported take: every closed segment concatenated in close order.
type Blob struct {
	SessionID string
	MediaType string
	Data      []byte
	Segments  int
	Duration  time.Duration
	CreatedAt time.Time
}
