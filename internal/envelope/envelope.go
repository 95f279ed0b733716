// Package envelope holds the canonicalized pulse envelope value type and the
// bounded, concurrency-safe cache of sampled envelope buffers keyed on
// sub-sample alignment.
package envelope

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/shape"
)

// DefaultCapacity is the cache size used when a Sampler doesn't configure its
// own envelope cache.
const DefaultCapacity = 1024

// Envelope is an immutable pulse envelope. Construction canonicalizes the
// (shape, width, plateau) triple so that either:
//
//   - Shape is non-nil, Width > 0, Plateau >= 0 (a shaped pulse), or
//   - Shape is nil, Width == 0, Plateau >= 0 (a pure rectangular pulse).
type Envelope struct {
	Shape   shape.Shape
	Width   quantity.Time
	Plateau quantity.Time
}

// New canonicalizes shape/width/plateau per the rules above.
func New(s shape.Shape, width, plateau quantity.Time) Envelope {
	if s == nil {
		plateau += width
		width = 0
	}
	if width == 0 {
		s = nil
	}
	return Envelope{Shape: s, Width: width, Plateau: plateau}
}

// cacheKey is the exact memoization key: shape identity, geometry, the
// sub-sample-quantized index offset, and sample rate.
type cacheKey struct {
	shape       shape.Shape
	width       quantity.Time
	plateau     quantity.Time
	indexOffset float64
	rate        quantity.Frequency
}

// Cache memoizes sampled envelope buffers. It is safe for concurrent use;
// readers never block writers of disjoint keys beyond the LRU's own internal
// locking. Construct a private Cache per test to avoid cross-test leakage.
type Cache struct {
	lru *lru.Cache[cacheKey, []float64]
}

// NewCache builds a cache bounded to capacity entries (LRU eviction).
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, _ := lru.New[cacheKey, []float64](capacity)
	return &Cache{lru: c}
}

// Clear evicts all cached envelope buffers.
func (c *Cache) Clear() { c.lru.Purge() }

// Get returns the sampled envelope for env at the given sub-sample index
// offset and sample rate, computing and memoizing it on a miss. env must
// have a non-nil Shape (callers render the plateau-only case directly).
func (c *Cache) Get(env Envelope, indexOffset float64, rate quantity.Frequency) []float64 {
	key := cacheKey{shape: env.Shape, width: env.Width, plateau: env.Plateau, indexOffset: indexOffset, rate: rate}
	if buf, ok := c.lru.Get(key); ok {
		return buf
	}
	buf := build(env, indexOffset, rate)
	c.lru.Add(key, buf)
	return buf
}

// build samples the envelope buffer per the rise/plateau/fall construction
// in the spec: the shape is sampled over x in [-0.5, 0.5], where x=-0.5 is
// rise-start, x=0 is the pulse centre (where any plateau is inserted), and
// x=0.5 is fall-complete. An envelope without a shape has no shaped samples.
func build(env Envelope, indexOffset float64, rate quantity.Frequency) []float64 {
	if env.Shape == nil {
		return nil
	}
	width := env.Width.Value()
	plateau := env.Plateau.Value()
	r := rate.Value()
	dt := 1.0 / r
	tOffset := indexOffset * dt

	t1 := width/2 - tOffset
	t2 := t1 + plateau
	t3 := width + plateau - tOffset

	length := int(math.Ceil(t3 * r))
	if length < 0 {
		length = 0
	}
	out := make([]float64, length)
	if length == 0 {
		return out
	}

	if plateau == 0 {
		env.Shape.SampleArray(-t1/width, dt/width, out)
		return out
	}

	pstart := int(math.Ceil(t1 * r))
	pend := int(math.Ceil(t2 * r))
	if pstart < 0 {
		pstart = 0
	}
	if pstart > length {
		pstart = length
	}
	if pend < pstart {
		pend = pstart
	}
	if pend > length {
		pend = length
	}

	env.Shape.SampleArray(-t1/width, dt/width, out[:pstart])
	for i := pstart; i < pend; i++ {
		out[i] = 1.0
	}
	x2 := (float64(pend)*dt - t2) / width
	env.Shape.SampleArray(x2, dt/width, out[pend:])
	return out
}
