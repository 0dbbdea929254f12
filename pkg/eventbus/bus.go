// Package eventbus implements component F: a small synchronous
// publish/subscribe registry keyed by event kind. Delivery happens
// after the KV batch that produced the event has committed, in
// subscription order; a panicking subscriber is logged and does not
// stop the remaining subscribers or undo the commit.
package eventbus

import (
	"fmt"
	"sync"

	"followstore/pkg/logging"
	"followstore/pkg/message"
)

// Kind identifies one of the three event kinds the follow store emits.
type Kind string

const (
	KindMerge  Kind = "mergeMessage"
	KindRevoke Kind = "revokeMessage"
	KindPrune  Kind = "pruneMessage"
)

// Handler receives a message affected by a committed event.
type Handler func(m *message.Message)

// Bus fans a published event out to every subscriber registered for its
// kind, synchronously and in the order they subscribed.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers h to be called whenever kind is published.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish delivers m to every subscriber of kind, in subscription
// order. A subscriber's panic is recovered, logged, and does not
// prevent the remaining subscribers from running.
func (b *Bus) Publish(kind Kind, m *message.Message) {
	b.mu.Lock()
	hs := append([]Handler(nil), b.handlers[kind]...)
	b.mu.Unlock()

	for _, h := range hs {
		invoke(kind, h, m)
	}
}

func invoke(kind Kind, h Handler, m *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("eventbus_subscriber_panic",
				"kind", string(kind),
				"panic", fmt.Sprintf("%v", r))
		}
	}()
	h(m)
}
