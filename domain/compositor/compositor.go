// Package compositor replaces pixels of a target color with the matching
// pixels of a captured background frame.
package compositor

import (
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/errs"
)

// minBandRows keeps bands large enough that scheduling stays cheap next to
// the per-pixel work.
const minBandRows = 16

// Options configures a Compositor. The zero value composites on all CPUs
// without lookup tables.
type Options struct {
	Workers      int  // 0 = runtime.NumCPU()
	LookupTable  bool // classify through cached RGB membership tables
	LUTCacheSize int  // ranges kept in the table cache (default 4)
}

// Stats summarises compositor throughput for instrumentation.
type Stats struct {
	Frames       uint64
	Mismatches   uint64
	AvgComposite time.Duration
	LastCoverage float64 // fraction of pixels replaced in the last frame
}

// Compositor is safe for concurrent use; it holds no per-frame state.
type Compositor struct {
	workers    int
	tables     *tableCache
	logger     *slog.Logger
	frames     atomic.Uint64
	mismatches atomic.Uint64
	nanos      atomic.Uint64
	coverage   atomic.Uint64 // LastCoverage in parts per million
}

// New builds a Compositor. A table cache failure disables lookup tables.
func New(opts Options, logger *slog.Logger) *Compositor {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	c := &Compositor{workers: workers, logger: logger}
	if opts.LookupTable {
		tc, err := newTableCache(opts.LUTCacheSize, workers)
		if err != nil {
			if logger != nil {
				logger.Warn("compositor: lookup tables disabled", "error", err)
			}
		} else {
			c.tables = tc
		}
	}
	return c
}

// Composite is the pure single-threaded form: it returns a new frame with
// target pixels taken from background and alpha forced opaque.
func Composite(current, background *image.RGBA, r chroma.ColorRange) (*image.RGBA, error) {
	if err := checkSizes(current, background); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, current.Rect.Dx(), current.Rect.Dy()))
	compositeRows(dst, current, background, r.ContainsRGB, 0, current.Rect.Dy())
	return dst, nil
}

// Composite returns a pooled frame holding the composited result. Release
// it with RecycleFrame when done.
func (c *Compositor) Composite(current, background *image.RGBA, r chroma.ColorRange) (*image.RGBA, error) {
	if err := checkSizes(current, background); err != nil {
		c.mismatches.Add(1)
		return nil, err
	}
	dst := AcquireFrame(image.Rect(0, 0, current.Rect.Dx(), current.Rect.Dy()))
	if err := c.CompositeInto(dst, current, background, r); err != nil {
		RecycleFrame(dst)
		return nil, err
	}
	return dst, nil
}

// CompositeInto writes the composited frame into dst, which must have the
// same dimensions as current. dst may alias current.
func (c *Compositor) CompositeInto(dst, current, background *image.RGBA, r chroma.ColorRange) error {
	if err := checkSizes(current, background); err != nil {
		c.mismatches.Add(1)
		return err
	}
	if dst == nil || dst.Rect.Dx() != current.Rect.Dx() || dst.Rect.Dy() != current.Rect.Dy() {
		return fmt.Errorf("compositor: destination does not match frame %dx%d", current.Rect.Dx(), current.Rect.Dy())
	}
	start := time.Now()

	match := r.ContainsRGB
	if c.tables != nil {
		if t := c.tables.get(r); t != nil {
			match = t.contains
		}
	}

	h := current.Rect.Dy()
	bands := c.workers
	if maxBands := h / minBandRows; bands > maxBands {
		bands = maxBands
	}
	var hits atomic.Int64
	if bands <= 1 {
		hits.Store(int64(compositeRows(dst, current, background, match, 0, h)))
	} else {
		p := pool.New().WithMaxGoroutines(c.workers)
		step := (h + bands - 1) / bands
		for y0 := 0; y0 < h; y0 += step {
			y1 := min(y0+step, h)
			p.Go(func() {
				hits.Add(int64(compositeRows(dst, current, background, match, y0, y1)))
			})
		}
		p.Wait()
	}

	c.frames.Add(1)
	c.nanos.Add(uint64(time.Since(start).Nanoseconds()))
	if total := current.Rect.Dx() * h; total > 0 {
		c.coverage.Store(uint64(hits.Load()) * 1_000_000 / uint64(total))
	}
	return nil
}

// Warm builds the lookup table for r synchronously. No-op without tables.
func (c *Compositor) Warm(r chroma.ColorRange) {
	if c.tables == nil {
		return
	}
	start := time.Now()
	c.tables.warm(r)
	if c.logger != nil {
		c.logger.Debug("compositor: lookup table ready", "range", r.String(), "took", time.Since(start))
	}
}

// Stats returns a throughput snapshot.
func (c *Compositor) Stats() Stats {
	frames := c.frames.Load()
	var avg time.Duration
	if frames > 0 {
		avg = time.Duration(c.nanos.Load() / frames)
	}
	return Stats{
		Frames:       frames,
		Mismatches:   c.mismatches.Load(),
		AvgComposite: avg,
		LastCoverage: float64(c.coverage.Load()) / 1_000_000,
	}
}

func checkSizes(current, background *image.RGBA) error {
	if current == nil || background == nil {
		return fmt.Errorf("compositor: nil frame")
	}
	if current.Rect.Dx() != background.Rect.Dx() || current.Rect.Dy() != background.Rect.Dy() {
		return &errs.SizeMismatchError{Current: current.Rect, Background: background.Rect}
	}
	return nil
}

// compositeRows processes rows [y0,y1) relative to the frame origin and
// returns the number of replaced pixels.
func compositeRows(dst, cur, bg *image.RGBA, match func(r, g, b uint8) bool, y0, y1 int) int {
	rowBytes := cur.Rect.Dx() * 4
	hits := 0
	for y := y0; y < y1; y++ {
		ci := cur.PixOffset(cur.Rect.Min.X, cur.Rect.Min.Y+y)
		bi := bg.PixOffset(bg.Rect.Min.X, bg.Rect.Min.Y+y)
		di := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		crow := cur.Pix[ci : ci+rowBytes]
		brow := bg.Pix[bi : bi+rowBytes]
		drow := dst.Pix[di : di+rowBytes]
		for x := 0; x < rowBytes; x += 4 {
			r, g, b := crow[x], crow[x+1], crow[x+2]
			if match(r, g, b) {
				drow[x], drow[x+1], drow[x+2] = brow[x], brow[x+1], brow[x+2]
				hits++
			} else {
				drow[x], drow[x+1], drow[x+2] = r, g, b
			}
			drow[x+3] = 0xFF
		}
	}
	return hits
}
