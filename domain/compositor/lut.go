package compositor

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/soocke/invisicam-go/domain/chroma"
)

// lookupTable is a membership bitset over the full 24-bit RGB cube for one
// ColorRange: 2 MiB per range. Building one costs a full HSV sweep, so tables
// are cached per range and built in the background on first use.
type lookupTable struct {
	bits []uint64
}

const rgbCube = 1 << 24

func buildLookupTable(r chroma.ColorRange, workers int) *lookupTable {
	t := &lookupTable{bits: make([]uint64, rgbCube/64)}
	p := pool.New().WithMaxGoroutines(workers)
	for red := 0; red < 256; red++ {
		// Each red plane covers a disjoint run of words; no locking needed.
		p.Go(func() {
			base := red << 16
			for g := 0; g < 256; g++ {
				for b := 0; b < 256; b++ {
					if r.ContainsRGB(uint8(red), uint8(g), uint8(b)) {
						idx := base | g<<8 | b
						t.bits[idx>>6] |= 1 << (uint(idx) & 63)
					}
				}
			}
		})
	}
	p.Wait()
	return t
}

func (t *lookupTable) contains(r, g, b uint8) bool {
	idx := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	return t.bits[idx>>6]&(1<<(idx&63)) != 0
}

// tableCache holds built tables keyed by range and tracks in-flight builds.
type tableCache struct {
	tables   *lru.Cache[chroma.ColorRange, *lookupTable]
	workers  int
	mu       sync.Mutex
	building map[chroma.ColorRange]bool
}

func newTableCache(size, workers int) (*tableCache, error) {
	if size <= 0 {
		size = 4
	}
	c, err := lru.New[chroma.ColorRange, *lookupTable](size)
	if err != nil {
		return nil, err
	}
	return &tableCache{tables: c, workers: workers, building: make(map[chroma.ColorRange]bool)}, nil
}

// get returns the table for r, or nil while it is still being built. The
// first miss for a range starts the build on a separate goroutine.
func (c *tableCache) get(r chroma.ColorRange) *lookupTable {
	if t, ok := c.tables.Get(r); ok {
		return t
	}
	c.mu.Lock()
	if c.building[r] {
		c.mu.Unlock()
		return nil
	}
	c.building[r] = true
	c.mu.Unlock()
	go c.build(r)
	return nil
}

// warm builds the table for r synchronously unless already cached.
func (c *tableCache) warm(r chroma.ColorRange) *lookupTable {
	if t, ok := c.tables.Get(r); ok {
		return t
	}
	return c.build(r)
}

func (c *tableCache) build(r chroma.ColorRange) *lookupTable {
	t := buildLookupTable(r, c.workers)
	c.tables.Add(r, t)
	c.mu.Lock()
	delete(c.building, r)
	c.mu.Unlock()
	return t
}
