// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package status is the notification stream the front end subscribes to
// for user-visible outcomes.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event on the stream.
type Kind string

const (
	KindInfo         Kind = "info"
	KindDispatch     Kind = "dispatch"
	KindViewCredited Kind = "view_credited"
	KindViewRejected Kind = "view_rejected"
	KindTransfer     Kind = "transfer"
	KindError        Kind = "error"
)

// Event is a user-visible outcome.
type Event struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

const subscriberBuffer = 64

// Notifier fans events out to subscribers. Publishing never blocks: a
// subscriber that falls behind loses the event.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (n *Notifier) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	n.mu.Lock()
	n.subs[id] = ch
	n.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (n *Notifier) Publish(kind Kind, message string) {
	ev := Event{Kind: kind, Message: message, Time: time.Now()}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close drops all subscribers.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
