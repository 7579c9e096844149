package changefeed

import (
	"testing"
	"time"
)

func received(s *Subscription) bool {
	select {
	case <-s.C:
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func TestHub_PublishWakesTopicSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(TeamTopic("t1"))
	defer a.Close()
	b := h.Subscribe(TeamTopic("t2"))
	defer b.Close()

	h.Publish(TeamTopic("t1"))

	if !received(a) {
		t.Error("subscriber of t1 was not signalled")
	}
	if received(b) {
		t.Error("subscriber of t2 was signalled for t1")
	}
}

func TestHub_PublishCoalesces(t *testing.T) {
	h := NewHub()
	s := h.Subscribe(LineupsTopic("t1"))
	defer s.Close()

	for i := 0; i < 10; i++ {
		h.Publish(LineupsTopic("t1"))
	}
	if !received(s) {
		t.Fatal("expected one signal")
	}
	if received(s) {
		t.Error("expected bursts to collapse into one signal")
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	h := NewHub()
	s := h.Subscribe(UserTopic("u1"))
	if got := h.Subscribers(UserTopic("u1")); got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}
	s.Close()
	s.Close()
	if got := h.Subscribers(UserTopic("u1")); got != 0 {
		t.Errorf("Subscribers after close = %d, want 0", got)
	}
	h.Publish(UserTopic("u1"))
	if received(s) {
		t.Error("closed subscription was signalled")
	}
}

func TestHub_PublishManyTopics(t *testing.T) {
	h := NewHub()
	m := h.Subscribe(MembersTopic("t1"))
	defer m.Close()
	l := h.Subscribe(LineupsTopic("t1"))
	defer l.Close()

	h.Publish(MembersTopic("t1"), LineupsTopic("t1"))
	if !received(m) || !received(l) {
		t.Error("expected both topics to be signalled")
	}
}
