// Package watch fans canonical-lead changes out to interested
// listeners. A listener is called once immediately on subscribe with
// the current lead list, then again after every recomputation.
package watch

import (
	"sync"

	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/platform/logger"
)

// Listener receives the full canonical lead list on every change.
type Listener func(leads []domain.Lead)

// Notifier is the subscription registry. Listeners are independent: a
// panicking listener is logged and skipped, never taking the others
// down with it.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	current   []domain.Lead
	log       *logger.Logger
}

func NewNotifier(log *logger.Logger) *Notifier {
	return &Notifier{
		listeners: make(map[int]Listener),
		log:       log,
	}
}

// Subscribe registers a listener and replays the current lead list to
// it before returning. The returned function removes the listener;
// calling it more than once is harmless.
func (n *Notifier) Subscribe(listener Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = listener
	snapshot := n.current
	n.mu.Unlock()

	n.invoke(listener, snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Notify records the new canonical lead list and fans it out to every
// subscribed listener.
func (n *Notifier) Notify(leads []domain.Lead) {
	n.mu.Lock()
	n.current = leads
	targets := make([]Listener, 0, len(n.listeners))
	for _, listener := range n.listeners {
		targets = append(targets, listener)
	}
	n.mu.Unlock()

	for _, listener := range targets {
		n.invoke(listener, leads)
	}
}

// Current returns the most recently published lead list.
func (n *Notifier) Current() []domain.Lead {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// ListenerCount reports the number of active subscriptions.
func (n *Notifier) ListenerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

func (n *Notifier) invoke(listener Listener, leads []domain.Lead) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("lead listener panicked", "panic", r)
		}
	}()
	listener(leads)
}
