package arena

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	fastrand "github.com/detailyang/fastrand-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop one free call in every 32 calls. Must be a power of 2.
const dropRate = 32

var stats = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "arena_stats",
	Help: "Stats about performance of arena",
}, []string{"metric", "name"})

/*
	Arena recycles slices of a single element type between producers and
	consumers. Histogram bin buffers and batch index slices are allocated
	and released on every batch or reset, so routing them through an arena
	saves the allocation and GC cost of remaking them each time.

	Like sync.Pool, an arena allocates on demand, accepts frees of slices it
	did not allocate, and sheds memory over time: a random fraction of frees
	is dropped instead of pooled, and frees beyond the configured total
	capacity are rejected. Slices handed out by Alloc are always zero-filled
	up to their capacity.

	Internally the arena keeps one free list per size class. The arena is
	safe for concurrent use; a single lock guards all classes.
*/
type Arena[T any] struct {
	maxalloc int
	capacity int
	cursz    int
	allocs   int64
	misses   int64
	frees    int64
	drops    int64
	rejects  int64
	free     [][][]T
	lock     sync.Mutex
}

// New creates an Arena pooling slices of capacity below maxCap (in
// elements), holding at most totalCap elements across all free lists.
func New[T any](maxCap, totalCap int) *Arena[T] {
	a := &Arena[T]{
		maxalloc: maxCap,
		capacity: totalCap,
		free:     make([][][]T, class(uint32(maxCap))+1),
	}
	go a.report()
	return a
}

// Alloc returns a zero-filled slice of the given length and at least the
// given capacity.
func (a *Arena[T]) Alloc(length, capacity int) []T {
	if capacity < length {
		capacity = length
	}
	if capacity <= 0 {
		return nil
	}
	if capacity >= a.maxalloc {
		return make([]T, length, capacity)
	}

	c := class(uint32(capacity))
	var ret []T

	a.lock.Lock()
	defer a.lock.Unlock()
	a.allocs++
	if l := len(a.free[c]) - 1; l >= 0 {
		ret = a.free[c][l]
		a.free[c] = a.free[c][:l]
		a.cursz -= cap(ret)
	}
	if cap(ret) < capacity {
		a.misses++
		ret = make([]T, capacity)
	}
	return ret[:length]
}

// Free returns a slice to the arena. The slice need not have come from
// Alloc. The caller must not use it afterwards.
func (a *Arena[T]) Free(b []T) {
	if cap(b) == 0 || cap(b) >= a.maxalloc {
		return
	}
	// Random shedding keeps the pool sized to current traffic instead of its
	// historical peak, and stops a few large slices from monopolizing the
	// capacity budget.
	drop := fastrand.FastRand()&(dropRate-1) == 0
	if !drop {
		// zero the full capacity so the next Alloc hands out clean memory
		var zero T
		b = b[:cap(b)]
		b[0] = zero
		for i := 1; i < len(b); i *= 2 {
			copy(b[i:], b[:i])
		}
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	a.frees++
	if a.cursz+cap(b) > a.capacity {
		a.rejects++
		return
	}
	if drop {
		a.drops++
		return
	}
	c := class(uint32(cap(b)))
	a.free[c] = append(a.free[c], b)
	a.cursz += cap(b)
}

// report publishes arena gauges every minute.
func (a *Arena[T]) report() {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	name := fmt.Sprintf("%T_%d_%d", zero, a.maxalloc, a.capacity)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		a.lock.Lock()
		stats.WithLabelValues("allocs", name).Set(float64(a.allocs))
		stats.WithLabelValues("misses", name).Set(float64(a.misses))
		stats.WithLabelValues("frees", name).Set(float64(a.frees))
		stats.WithLabelValues("drops", name).Set(float64(a.drops))
		stats.WithLabelValues("rejects", name).Set(float64(a.rejects))
		stats.WithLabelValues("size_bytes", name).Set(float64(sz * a.cursz))
		a.lock.Unlock()
		<-ticker.C
	}
}

// class is roughly lg2(n/8): sizes up to 8 share class 0, (8, 16] class 1,
// (16, 32] class 2, and so on.
func class(n uint32) uint32 {
	var c uint32
	for n > 8 {
		n >>= 1
		c++
	}
	return c
}
