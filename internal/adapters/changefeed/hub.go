// Package changefeed fans write notifications out to live subscribers.
//
// Notifications carry no data: a subscriber that wakes up re-reads the
// current state from the store. Each subscriber has a one-slot buffer, so
// a burst of writes collapses into one wake-up and a slow reader never
// blocks a writer.
package changefeed

import (
	"sync"
)

// Topic names a watched record set.
type Topic string

// Topics for the four watched record sets.
func UserTopic(uid string) Topic       { return Topic("user:" + uid) }
func TeamTopic(teamID string) Topic    { return Topic("team:" + teamID) }
func MembersTopic(teamID string) Topic { return Topic("members:" + teamID) }
func LineupsTopic(teamID string) Topic { return Topic("lineups:" + teamID) }

// Subscription receives a signal after each publish on its topic.
type Subscription struct {
	C     <-chan struct{}
	c     chan struct{}
	topic Topic
	hub   *Hub
	once  sync.Once
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub routes topic notifications to subscribers.
type Hub struct {
	mu     sync.RWMutex
	topics map[Topic]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[Topic]map[*Subscription]struct{})}
}

// Subscribe registers interest in topic.
// POST: caller must Close the subscription
func (h *Hub) Subscribe(topic Topic) *Subscription {
	c := make(chan struct{}, 1)
	s := &Subscription{C: c, c: c, topic: topic, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Publish wakes every subscriber of each topic without blocking.
func (h *Hub) Publish(topics ...Topic) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, t := range topics {
		for s := range h.topics[t] {
			select {
			case s.c <- struct{}{}:
			default:
				// already signalled; the reader will see the latest state
			}
		}
	}
}

// Subscribers reports the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[s.topic]
	delete(subs, s)
	if len(subs) == 0 {
		delete(h.topics, s.topic)
	}
}
