package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubOneRoomPerName(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(newFakeStore(), nil, RoomOptions{}, nil)
	go hub.Run(ctx)

	a, err := hub.Acquire("general")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	b, err := hub.Acquire("general")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	other, err := hub.Acquire("random")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if a != b {
		t.Fatalf("expected the same actor for one name")
	}
	if a == other {
		t.Fatalf("expected distinct actors for distinct names")
	}
	if got := hub.Rooms(); got != 2 {
		t.Fatalf("expected 2 rooms, got %d", got)
	}

	hub.Release(a)
	if got := hub.Rooms(); got != 2 {
		t.Fatalf("room stopped while still held, rooms=%d", got)
	}
	hub.Release(b)
	hub.Release(other)
	if got := hub.Rooms(); got != 0 {
		t.Fatalf("expected idle rooms to stop, got %d", got)
	}
}

func TestHubRestartedRoomKeepsTranscript(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := newFakeStore()
	hub := NewHub(st, nil, RoomOptions{}, nil)
	go hub.Run(ctx)

	first, err := hub.Acquire("general")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ann, _ := connect(t, first, "ann")
	if err := first.Receive(ctx, ann, []byte(`{"name":"Ann","text":"remember me"}`)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := first.Disconnect(ctx, ann); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	hub.Release(first)

	second, err := hub.Acquire("general")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer hub.Release(second)
	if second == first {
		t.Fatalf("expected a fresh actor after the room went idle")
	}

	_, conn := connect(t, second, "bob")
	if got := mustMessage(t, conn); got.Text != "remember me" {
		t.Fatalf("unexpected replay: %+v", got)
	}
	if got := mustMessage(t, conn); got.Text != DisconnectText {
		t.Fatalf("unexpected replay: %+v", got)
	}
}

func TestHubClosedAfterRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(newFakeStore(), nil, RoomOptions{}, nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	room, err := hub.Acquire("general")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, conn := connect(t, room, "ann")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not stop")
	}

	if !conn.isClosed() {
		t.Fatalf("session left open after hub shutdown")
	}
	if _, err := hub.Acquire("general"); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
	hub.Release(room)
}
