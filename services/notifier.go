package services

import (
	"sync"

	"github.com/lborres/coupons/core"
)

// Notifier fans out session changes that originate outside a single client,
// such as a password reset revoking every session of a user.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(core.SessionChange)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(core.SessionChange))}
}

func (n *Notifier) Subscribe(fn func(core.SessionChange)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers change to every subscriber on the caller's goroutine.
func (n *Notifier) Publish(change core.SessionChange) {
	n.mu.RLock()
	subs := make([]func(core.SessionChange), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
