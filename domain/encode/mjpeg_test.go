package encode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/soocke/invisicam-go/domain/errs"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func solidFrame(w, h int, v byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

type fakeAudio struct{}

func (fakeAudio) Label() string { return "mic" }
func (fakeAudio) Stop()         {}

func TestMJPEGRecorder_OpenFailsWhenSourceStopped(t *testing.T) {
	rec := NewMJPEGRecorder(MJPEGOptions{Running: func() bool { return false }})
	_, err := rec.Open(context.Background())
	if !errors.Is(err, errs.ErrCaptureUnavailable) {
		t.Fatalf("expected capture unavailable, got %v", err)
	}
	if rec.Stats().Segments != 0 {
		t.Fatalf("failed open counted as segment")
	}
}

func TestMJPEGRecorder_OpenFailsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMJPEGRecorder(MJPEGOptions{}).Open(ctx); !errors.Is(err, errs.ErrCaptureUnavailable) {
		t.Fatalf("expected capture unavailable, got %v", err)
	}
}

func TestMJPEGSegment_EncodesDecodableFrames(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	rec := NewMJPEGRecorder(MJPEGOptions{FPS: 10, Buffer: 8, Clock: clock.now, Audio: fakeAudio{}})
	seg, err := rec.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 3; i++ {
		seg.Offer(solidFrame(16, 8, byte(40*i)))
		clock.t = clock.t.Add(100 * time.Millisecond)
	}
	chunks, err := seg.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, c := range chunks {
		img, err := jpeg.Decode(bytes.NewReader(c))
		if err != nil {
			t.Fatalf("chunk %d not a jpeg: %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
			t.Fatalf("chunk %d bounds = %v", i, b)
		}
	}
	st := rec.Stats()
	if st.Encoded != 3 || st.Segments != 1 || st.Bytes == 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if rec.MediaType() != MediaTypeMJPEG {
		t.Fatalf("media type = %q", rec.MediaType())
	}
}

func TestMJPEGSegment_ThrottlesToFrameRate(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	rec := NewMJPEGRecorder(MJPEGOptions{FPS: 30, Buffer: 8, Clock: clock.now})
	seg, _ := rec.Open(context.Background())
	// 60 Hz offers over 100ms: only every other frame fits the 30 fps budget.
	for i := 0; i < 6; i++ {
		seg.Offer(solidFrame(4, 4, 10))
		clock.t = clock.t.Add(time.Second / 60)
	}
	chunks, _ := seg.Close()
	if len(chunks) < 2 || len(chunks) > 4 {
		t.Fatalf("chunks = %d, want about 3", len(chunks))
	}
}

func TestMJPEGSegment_CopiesOfferedFrame(t *testing.T) {
	rec := NewMJPEGRecorder(MJPEGOptions{Buffer: 2})
	seg, _ := rec.Open(context.Background())
	f := solidFrame(8, 8, 255)
	seg.Offer(f)
	for i := range f.Pix {
		f.Pix[i] = 0
	}
	chunks, _ := seg.Close()
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	img, err := jpeg.Decode(bytes.NewReader(chunks[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, _, _ := img.At(4, 4).RGBA()
	if r>>8 < 200 {
		t.Fatalf("segment encoded the mutated frame (r=%d)", r>>8)
	}
}

func TestMJPEGSegment_OfferAfterCloseIgnored(t *testing.T) {
	rec := NewMJPEGRecorder(MJPEGOptions{})
	seg, _ := rec.Open(context.Background())
	if _, err := seg.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	seg.Offer(solidFrame(2, 2, 1))
	chunks, err := seg.Close()
	if err != nil || len(chunks) != 0 {
		t.Fatalf("second close = %d chunks, %v", len(chunks), err)
	}
}

func TestMJPEGSegment_CancelKeepsQueuedFrames(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	rec := NewMJPEGRecorder(MJPEGOptions{Buffer: 8, Clock: clock.now})
	ctx, cancel := context.WithCancel(context.Background())
	seg, err := rec.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 8; i++ {
		seg.Offer(solidFrame(8, 8, byte(20*i)))
		clock.t = clock.t.Add(time.Second)
	}
	cancel()
	chunks, err := seg.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(chunks) != 8 {
		t.Fatalf("chunks = %d, want 8", len(chunks))
	}
	if st := rec.Stats(); st.Dropped != 0 || st.Encoded != 8 {
		t.Fatalf("stats = %+v", st)
	}
}
