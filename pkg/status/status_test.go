// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishFansOut(t *testing.T) {
	require := require.New(t)
	n := NewNotifier()
	defer n.Close()

	_, a := n.Subscribe()
	_, b := n.Subscribe()

	n.Publish(KindViewCredited, "view for ad #1 counted")

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		require.Equal(KindViewCredited, ev.Kind)
		require.Equal("view for ad #1 counted", ev.Message)
		require.False(ev.Time.IsZero())
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	require := require.New(t)
	n := NewNotifier()
	defer n.Close()

	// Nobody is draining this subscriber; once its buffer fills, further
	// events are dropped rather than stalling the publisher.
	_, ch := n.Subscribe()
	for i := 0; i < subscriberBuffer*2; i++ {
		n.Publish(KindInfo, "tick")
	}
	require.Len(ch, subscriberBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	require := require.New(t)
	n := NewNotifier()

	id, ch := n.Subscribe()
	n.Unsubscribe(id)
	n.Unsubscribe(id) // idempotent

	_, open := <-ch
	require.False(open)

	// Publishing to an empty notifier is fine.
	n.Publish(KindError, "nobody listening")
}

func TestCloseDropsAllSubscribers(t *testing.T) {
	require := require.New(t)
	n := NewNotifier()

	_, a := n.Subscribe()
	_, b := n.Subscribe()
	n.Close()

	_, open := <-a
	require.False(open)
	_, open = <-b
	require.False(open)
}
