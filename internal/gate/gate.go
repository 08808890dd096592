package gate

import (
	"context"
	"sync"
)

const defaultBatchSize = 6

// Gate admits provider calls in FIFO batches. A batch of up to batchSize
// callers runs concurrently; once callers start queueing, the queued group
// is only admitted after the previous batch has fully drained. This keeps
// provider pressure bounded and arrival order fair.
type Gate struct {
	mu        sync.Mutex
	batchSize int
	inFlight  int
	queue     []chan struct{}
}

func New(batchSize int) *Gate {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Gate{batchSize: batchSize}
}

// Enter blocks until the caller is admitted. An arrival that finds no queue
// and spare batch capacity joins the running batch immediately; everyone
// else waits for a batch boundary. Cancelling ctx while queued removes the
// waiter and returns ctx.Err().
func (g *Gate) Enter(ctx context.Context) error {
	g.mu.Lock()
	if len(g.queue) == 0 && g.inFlight < g.batchSize {
		g.inFlight++
		g.mu.Unlock()
		return nil
	}

	admit := make(chan struct{})
	g.queue = append(g.queue, admit)
	g.mu.Unlock()

	select {
	case <-admit:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, ch := range g.queue {
			if ch == admit {
				g.queue = append(g.queue[:i], g.queue[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		// Admission raced the cancellation: the slot was already granted,
		// so hand it back before reporting the cancel.
		g.leaveLocked()
		g.mu.Unlock()
		return ctx.Err()
	}
}

// Leave releases one slot. The caller must have been admitted by Enter.
func (g *Gate) Leave() {
	g.mu.Lock()
	g.leaveLocked()
	g.mu.Unlock()
}

func (g *Gate) leaveLocked() {
	if g.inFlight > 0 {
		g.inFlight--
	}
	if g.inFlight > 0 || len(g.queue) == 0 {
		return
	}

	// Batch boundary: admit the next group of waiters together.
	n := g.batchSize
	if n > len(g.queue) {
		n = len(g.queue)
	}
	admitted := g.queue[:n]
	g.queue = append([]chan struct{}(nil), g.queue[n:]...)
	g.inFlight = n
	for _, ch := range admitted {
		close(ch)
	}
}

// InFlight reports how many admitted callers have not left yet.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Queued reports how many callers are waiting for a batch boundary.
func (g *Gate) Queued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}
