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

// Package event implements the one-to-many event feed the ledger publishes
// its audit trail through.
package event

import "sync"

// Feed implements one-to-many event subscriptions. Sends never block the
// publisher: a subscriber whose channel is full misses the event. Events are
// the externally observable audit trail, so subscribers that must not miss
// any should size their buffers generously.
//
// The zero value is ready to use.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan interface{}
	nextID int
}

// Subscription represents a stream of events from a single Feed.
type Subscription struct {
	// C receives the published events.
	C <-chan interface{}

	feed *Feed
	id   int
	once sync.Once
}

// Unsubscribe removes the subscription from the feed and closes its channel.
// It can be called multiple times.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()
		close(s.feed.subs[s.id])
		delete(s.feed.subs, s.id)
	})
}

// Subscribe registers a new subscriber with the given channel buffer size.
func (f *Feed) Subscribe(buffer int) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs == nil {
		f.subs = make(map[int]chan interface{})
	}
	ch := make(chan interface{}, buffer)
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	return &Subscription{C: ch, feed: f, id: id}
}

// Send publishes the value to all current subscribers and returns the number
// of subscribers that received it.
func (f *Feed) Send(value interface{}) (delivered int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- value:
			delivered++
		default:
		}
	}
	return delivered
}
