package loader

import (
	"container/heap"
	"sync"
	"time"

	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
)

// Fetch of the payload of one octant
type LoadRequest struct {
	OctantID  octree.OctantID
	File      string
	Priority  float64
	Submitted time.Time

	octant     *ooc.Octant
	source     PayloadSource
	generation uint64
	index      int // position in the heap, -1 once popped or removed
	started    bool
}

type requestHeap []*LoadRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].octant.TexIndex < h[j].octant.TexIndex
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	r := x.(*LoadRequest)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

// Pending requests ordered by priority. Workers block in Pop until a request
// is available or the queue is closed. A popped request is started and can
// no longer be removed.
type requestQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    requestHeap
	closed   bool
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *requestQueue) Push(r *LoadRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, r)
	q.nonEmpty.Signal()
}

// Blocks until a request is available, returns false once the queue is closed
func (q *requestQueue) Pop() (*LoadRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}
	if q.closed {
		return nil, false
	}
	r := heap.Pop(&q.items).(*LoadRequest)
	r.started = true
	return r, true
}

// Removes a request a worker has not started yet
func (q *requestQueue) Remove(r *LoadRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if r.started || r.index < 0 {
		return false
	}
	heap.Remove(&q.items, r.index)
	return true
}

func (q *requestQueue) Update(r *LoadRequest, priority float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r.Priority = priority
	if !r.started && r.index >= 0 {
		heap.Fix(&q.items, r.index)
	}
}

func (q *requestQueue) Started(r *LoadRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return r.started
}

func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Removes and returns every request not started yet
func (q *requestQueue) Clear() []*LoadRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := make([]*LoadRequest, 0, len(q.items))
	for _, r := range q.items {
		r.index = -1
		removed = append(removed, r)
	}
	q.items = nil
	return removed
}

func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.nonEmpty.Broadcast()
}
