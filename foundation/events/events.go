// Package events fans the raw node events out to subscribers such as the
// websocket clients of the public api.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the number of events held for a subscriber that is slow to
// read. Once the buffer is full new events for that subscriber are dropped.
const messageBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	mu   sync.RWMutex
	subs map[string]chan string
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evts *Events) Shutdown() {
	evts.mu.Lock()
	defer evts.mu.Unlock()

	for id, ch := range evts.subs {
		delete(evts.subs, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evts *Events) Acquire(id string) <-chan string {
	evts.mu.Lock()
	defer evts.mu.Unlock()

	if ch, exists := evts.subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evts.subs[id] = ch

	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evts *Events) Release(id string) error {
	evts.mu.Lock()
	defer evts.mu.Unlock()

	ch, exists := evts.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evts.subs, id)
	close(ch)

	return nil
}

// Count returns the number of current subscribers.
func (evts *Events) Count() int {
	evts.mu.RLock()
	defer evts.mu.RUnlock()

	return len(evts.subs)
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evts *Events) Send(s string) {
	evts.mu.RLock()
	defer evts.mu.RUnlock()

	for _, ch := range evts.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
