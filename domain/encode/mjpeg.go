// Package encode turns composited frames into recorded media segments.
package encode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/invisicam-go/domain/compositor"
	"github.com/soocke/invisicam-go/domain/errs"
	"github.com/soocke/invisicam-go/domain/recording"
)

// MediaTypeMJPEG is the media type of concatenated JPEG frames.
const MediaTypeMJPEG = "video/x-motion-jpeg"

const (
	defaultFPS     = 30
	defaultQuality = 80
)

// MJPEGOptions configures an MJPEGRecorder.
type MJPEGOptions struct {
	FPS     int // frames kept per second (default 30)
	Quality int // JPEG quality 1..100 (default 80)
	// Buffer is the number of frames queued for the encoder before offers
	// are dropped (default 1).
	Buffer int
	// Running reports whether the capture source is live. Open fails when it
	// returns false.
	Running func() bool
	Audio   recording.AudioTrack
	Clock   func() time.Time
	Logger  *slog.Logger
}

// RecorderStats counts frames across every segment opened by a recorder.
type RecorderStats struct {
	Segments uint64
	Encoded  uint64
	Dropped  uint64
	Bytes    uint64
}

// MJPEGRecorder implements recording.Recorder. Each segment encodes offered
// frames as JPEG chunks on its own goroutine.
type MJPEGRecorder struct {
	opts     MJPEGOptions
	interval time.Duration

	segments atomic.Uint64
	encoded  atomic.Uint64
	dropped  atomic.Uint64
	bytes    atomic.Uint64
}

// NewMJPEGRecorder applies defaults to opts and returns a recorder.
func NewMJPEGRecorder(opts MJPEGOptions) *MJPEGRecorder {
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &MJPEGRecorder{opts: opts, interval: time.Second / time.Duration(opts.FPS)}
}

func (r *MJPEGRecorder) MediaType() string { return MediaTypeMJPEG }

// Open starts a new segment. A cancelled context stops the segment from
// accepting frames; frames already queued are still encoded and returned
// by Close.
func (r *MJPEGRecorder) Open(ctx context.Context) (recording.Segment, error) {
	if r.opts.Running != nil && !r.opts.Running() {
		return nil, &errs.CaptureUnavailableError{Op: "open segment", Cause: errors.New("capture source not running")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &errs.CaptureUnavailableError{Op: "open segment", Cause: err}
	}
	index := r.segments.Add(1) - 1
	if r.opts.Logger != nil {
		attrs := []any{"segment", index, "fps", r.opts.FPS, "quality", r.opts.Quality}
		if r.opts.Audio != nil {
			attrs = append(attrs, "audio", r.opts.Audio.Label(), "audio_muxed", false)
		}
		r.opts.Logger.Debug("encode: segment opened", attrs...)
	}
	s := &mjpegSegment{
		rec:    r,
		frames: make(chan *image.RGBA, r.opts.Buffer),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// Stats returns cumulative counters.
func (r *MJPEGRecorder) Stats() RecorderStats {
	return RecorderStats{
		Segments: r.segments.Load(),
		Encoded:  r.encoded.Load(),
		Dropped:  r.dropped.Load(),
		Bytes:    r.bytes.Load(),
	}
}

type mjpegSegment struct {
	rec *MJPEGRecorder

	mu       sync.Mutex
	closed   bool
	lastKept time.Time
	frames   chan *image.RGBA

	done    chan struct{}
	chunks  [][]byte
	encErr  error
	release sync.Once
}

// Offer copies frame into a pooled buffer and queues it. Frames arriving
// faster than the record rate, or while the encoder is busy, are dropped.
func (s *mjpegSegment) Offer(frame *image.RGBA) {
	if frame == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	now := s.rec.opts.Clock()
	if !s.lastKept.IsZero() && now.Sub(s.lastKept) < s.rec.interval {
		return
	}
	cp := compositor.AcquireFrame(image.Rect(0, 0, frame.Rect.Dx(), frame.Rect.Dy()))
	copyFrame(cp, frame)
	select {
	case s.frames <- cp:
		s.lastKept = now
	default:
		compositor.RecycleFrame(cp)
		s.rec.dropped.Add(1)
	}
}

// Close stops accepting frames, waits for the encoder to drain and returns
// the encoded chunks in order.
func (s *mjpegSegment) Close() ([][]byte, error) {
	s.release.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.frames)
		s.mu.Unlock()
	})
	<-s.done
	return s.chunks, s.encErr
}

func (s *mjpegSegment) run(ctx context.Context) {
	defer close(s.done)
	opts := &jpeg.Options{Quality: s.rec.opts.Quality}
	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			s.flush(&buf, opts)
			return
		case f, ok := <-s.frames:
			if !ok {
				return
			}
			s.encode(&buf, f, opts)
		}
	}
}

// flush refuses further offers and encodes what is still queued until Close
// closes the channel.
func (s *mjpegSegment) flush(buf *bytes.Buffer, opts *jpeg.Options) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for f := range s.frames {
		s.encode(buf, f, opts)
	}
}

func (s *mjpegSegment) encode(buf *bytes.Buffer, f *image.RGBA, opts *jpeg.Options) {
	buf.Reset()
	err := jpeg.Encode(buf, f, opts)
	compositor.RecycleFrame(f)
	if err != nil {
		if s.encErr == nil {
			s.encErr = err
		}
		return
	}
	chunk := bytes.Clone(buf.Bytes())
	s.chunks = append(s.chunks, chunk)
	s.rec.encoded.Add(1)
	s.rec.bytes.Add(uint64(len(chunk)))
}

func copyFrame(dst, src *image.RGBA) {
	rowBytes := src.Rect.Dx() * 4
	for y := 0; y < src.Rect.Dy(); y++ {
		si := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		di := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[di:di+rowBytes], src.Pix[si:si+rowBytes])
	}
}
