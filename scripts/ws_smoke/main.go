package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/agentroom-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/api/chat/general", "room WebSocket address")
	name := flag.String("name", "tester", "display name for the handshake")
	text := flag.String("text", "hello from smoke test", "message text to send")
	wantAI := flag.Bool("expect-ai", false, "wait for an agent reply after the echo")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	// room messages are not size limited
	conn.SetReadLimit(-1)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Name: *name, ConnectionEstablished: true}); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	// a unique suffix keeps replayed messages from earlier runs apart
	body := fmt.Sprintf("%s (%d)", *text, time.Now().UnixNano())
	if err := wsjson.Write(ctx, conn, proto.Inbound{Name: *name, Text: body}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	sawEcho := false
	for {
		var msg proto.Outbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: type=%s name=%q text=%q\n", msg.Type, msg.Name, msg.Text)

		switch {
		case msg.Type == proto.TypeUser && msg.Name == *name && msg.Text == body:
			sawEcho = true
			if !*wantAI {
				return nil
			}
		case msg.Type == proto.TypeAI && sawEcho:
			return nil
		}
	}
}
