// Copyright 2025 The go-petstake Authors
// This file is part of the go-petstake library.
//
// The go-petstake library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-petstake library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-petstake library. If not, see <http://www.gnu.org/licenses/>.

package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedSendSubscribe(t *testing.T) {
	var feed Feed

	sub1 := feed.Subscribe(4)
	sub2 := feed.Subscribe(4)

	require.Equal(t, 2, feed.Send("hello"))
	require.Equal(t, "hello", <-sub1.C)
	require.Equal(t, "hello", <-sub2.C)
}

func TestFeedUnsubscribe(t *testing.T) {
	var feed Feed

	sub := feed.Subscribe(1)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	require.Equal(t, 0, feed.Send("dropped"))
	_, ok := <-sub.C
	require.False(t, ok)
}

func TestFeedFullSubscriberMissesEvent(t *testing.T) {
	var feed Feed

	sub := feed.Subscribe(1)
	require.Equal(t, 1, feed.Send(1))
	// The buffer is full now, so the next send skips this subscriber
	// instead of blocking the publisher.
	require.Equal(t, 0, feed.Send(2))
	require.Equal(t, 1, <-sub.C)
}
