package service

import "sync"

// Refresh tells subscribers that the guest collection changed.
type Refresh struct {
	Reason string // "added" or "removed"
	ID     string
}

// Notifier fans refresh events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event and catches up on its
// next poll.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan Refresh]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan Refresh]struct{})}
}

// Subscribe returns a channel of refresh events. Callers must Unsubscribe.
func (n *Notifier) Subscribe() <-chan Refresh {
	ch := make(chan Refresh, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *Notifier) Unsubscribe(sub <-chan Refresh) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		if ch == sub {
			delete(n.subs, ch)
			close(ch)
			return
		}
	}
}

func (n *Notifier) Publish(ev Refresh) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *Notifier) subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
