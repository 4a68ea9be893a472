package main

import (
	"fmt"
	"testing"
)

func drain(s *session) []Event {
	var out []Event
	for {
		select {
		case evt, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestPublishReachesBothParticipantsOnly(t *testing.T) {
	hub := newHub()
	aliceTab1 := hub.Subscribe(1)
	aliceTab2 := hub.Subscribe(1)
	bob := hub.Subscribe(2)
	carol := hub.Subscribe(3)

	match := Match{ID: 10, UserA: 1, UserB: 2}
	hub.Publish(matchCreatedEvent(match))

	for _, s := range []*session{aliceTab1, aliceTab2, bob} {
		evts := drain(s)
		if len(evts) != 1 {
			t.Fatalf("Expected 1 event per participant session, got %d", len(evts))
		}
		if evts[0].Type != EventMatchCreated || evts[0].Match.ID != 10 {
			t.Errorf("Unexpected event %+v", evts[0])
		}
	}

	if evts := drain(carol); len(evts) != 0 {
		t.Errorf("Expected no events for a third party, got %d", len(evts))
	}
}

func TestPublishPreservesOrderPerSession(t *testing.T) {
	hub := newHub()
	sub := hub.Subscribe(1)
	match := Match{ID: 10, UserA: 1, UserB: 2}

	hub.Publish(matchCreatedEvent(match))
	for i := 0; i < 3; i++ {
		msg := Message{ID: int64(i + 1), MatchID: 10, SenderID: 2, Body: fmt.Sprintf("msg %d", i+1)}
		hub.Publish(messageAppendedEvent(match, msg))
	}

	evts := drain(sub)
	if len(evts) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(evts))
	}
	if evts[0].Type != EventMatchCreated {
		t.Errorf("Expected match_created first, got %s", evts[0].Type)
	}
	for i := 1; i < 4; i++ {
		if evts[i].Type != EventMessageAppended || evts[i].Message.ID != int64(i) {
			t.Errorf("Event %d out of order: %+v", i, evts[i])
		}
	}
}

func TestPublishDropsForSlowSessionWithoutBlocking(t *testing.T) {
	hub := newHub()
	slow := hub.Subscribe(1)
	match := Match{ID: 10, UserA: 1, UserB: 2}

	// Nothing reads from slow, so past the buffer every publish must
	// drop instead of stalling. If Publish blocked, this test would
	// deadlock.
	for i := 0; i < sessionBuffer+5; i++ {
		hub.Publish(messageAppendedEvent(match, Message{ID: int64(i + 1), MatchID: 10}))
	}

	evts := drain(slow)
	if len(evts) != sessionBuffer {
		t.Fatalf("Expected exactly %d buffered events, got %d", sessionBuffer, len(evts))
	}
	// The survivors are the oldest events, still in order.
	for i, evt := range evts {
		if evt.Message.ID != int64(i+1) {
			t.Errorf("Event %d out of order: got message %d", i, evt.Message.ID)
		}
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := newHub()
	sub := hub.Subscribe(1)

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call must not panic on the closed channel

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected events channel to be closed after unsubscribe")
	}

	// Publishing after unsubscribe delivers nothing and must not panic.
	hub.Publish(matchCreatedEvent(Match{ID: 10, UserA: 1, UserB: 2}))
}

func TestSubscribeIsolatesSessions(t *testing.T) {
	hub := newHub()
	first := hub.Subscribe(1)
	second := hub.Subscribe(1)
	hub.Unsubscribe(first)

	hub.Publish(matchCreatedEvent(Match{ID: 10, UserA: 1, UserB: 2}))

	if evts := drain(second); len(evts) != 1 {
		t.Errorf("Expected surviving session to still receive events, got %d", len(evts))
	}
}
