package services

import (
	"container/heap"
	"sync"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// BlockQueue is a priority queue of blocks. Lower priority values come out
// first; blocks of equal priority come out in insertion order.
type BlockQueue struct {
	mu    sync.Mutex
	items blockHeap
	seq   uint64
}

// NewBlockQueue creates an empty queue.
func NewBlockQueue() *BlockQueue {
	return &BlockQueue{}
}

// Push enqueues a block.
func (q *BlockQueue) Push(b domain.Block) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.items, queued{block: b, seq: q.seq})
}

// Pop removes the next block. ok is false when the queue is empty.
func (q *BlockQueue) Pop() (domain.Block, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Block{}, false
	}
	item := heap.Pop(&q.items).(queued)
	return item.block, true
}

// Len returns the number of queued blocks.
func (q *BlockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops every queued block.
func (q *BlockQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

type queued struct {
	block domain.Block
	seq   uint64
}

type blockHeap []queued

func (h blockHeap) Len() int { return len(h) }

func (h blockHeap) Less(i, j int) bool {
	if h[i].block.Priority != h[j].block.Priority {
		return h[i].block.Priority < h[j].block.Priority
	}
	return h[i].seq < h[j].seq
}

func (h blockHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *blockHeap) Push(x any) { *h = append(*h, x.(queued)) }

func (h *blockHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
