package core

import (
	"context"
	"fmt"
	"testing"
)

// discardConn accepts every delivery.
type discardConn struct{}

func (discardConn) Send(context.Context, []byte) error { return nil }
func (discardConn) Close(string) error                 { return nil }

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	room := NewRoom("bench", newFakeStore(), nil, RoomOptions{}, nil)
	go room.Run(ctx)

	sender := NewSession("sender", discardConn{})
	if err := room.Connect(ctx, sender); err != nil {
		b.Fatalf("connect sender: %v", err)
	}
	for i := range recipients {
		if err := room.Connect(ctx, NewSession(fmt.Sprintf("c%d", i), discardConn{})); err != nil {
			b.Fatalf("connect: %v", err)
		}
	}

	payload := []byte(`{"name":"sender","text":"payload"}`)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := room.Receive(ctx, sender, payload); err != nil {
			b.Fatalf("receive: %v", err)
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
