package session

import (
	"sync"

	"github.com/ayumu-t/kikitori/internal/types"
)

// notifier fans out state snapshots to subscribers. Each subscriber owns an
// unbounded in-order queue drained by its own pump goroutine, so a slow
// receiver delays only itself and never causes a transition to be dropped.
type notifier struct {
	mu   sync.Mutex
	subs []*subscriber
}

func newNotifier() *notifier {
	return &notifier{}
}

func (n *notifier) subscribe() <-chan types.Snapshot {
	s := newSubscriber()
	n.mu.Lock()
	n.subs = append(n.subs, s)
	n.mu.Unlock()
	return s.out
}

func (n *notifier) publish(snap types.Snapshot) {
	n.mu.Lock()
	subs := n.subs
	n.mu.Unlock()
	for _, s := range subs {
		s.push(snap)
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()
	for _, s := range subs {
		s.stop()
	}
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []types.Snapshot
	closed bool
	out    chan types.Snapshot
}

func newSubscriber() *subscriber {
	s := &subscriber{out: make(chan types.Snapshot)}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

func (s *subscriber) push(snap types.Snapshot) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, snap)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// pump delivers queued snapshots in order. After stop, anything already
// queued is still delivered before the channel closes.
func (s *subscriber) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- next
	}
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}
