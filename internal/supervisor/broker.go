package supervisor

import "sync"

// EventType distinguishes entries on the event stream
type EventType string

const (
	EventLog     EventType = "log"
	EventAutoFix EventType = "autofix"
	EventTick    EventType = "tick"
)

// Event is published to subscribers for every diagnostic, auto-fix and tick
type Event struct {
	Type    EventType      `json:"type"`
	Log     *DiagnosticLog `json:"log,omitempty"`
	AutoFix *AutoFix       `json:"autoFix,omitempty"`
	State   *State         `json:"state,omitempty"`
}

// broker is an in-process fan-out of supervisor events
type broker struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *broker) publish(event Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
