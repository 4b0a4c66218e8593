package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/agentroom-server/internal/proto"
)

type chatOptions struct {
	url  string
	room string
	name string
}

func newChatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "ws://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&opts.room, "room", "general", "room to join")
	cmd.Flags().StringVar(&opts.name, "name", "cli-user", "display name")
	return cmd
}

func roomURL(base, room string) string {
	return strings.TrimRight(base, "/") + "/api/chat/" + url.PathEscape(room)
}

func runChat(parent context.Context, opts chatOptions, in io.Reader, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	baseCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	addr := roomURL(opts.url, opts.room)
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	// room messages are not size limited
	conn.SetReadLimit(-1)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Name: opts.name, ConnectionEstablished: true}); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	fmt.Fprintf(out, "Connected to %s as %s\n", addr, opts.name)
	fmt.Fprintln(out, "Type messages and press Enter to send. Ctrl+C to exit.")

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- readLoop(ctx, conn, out)
	}()

	writeLoop(ctx, conn, opts.name, in, out)

	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return <-readErr
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer) error {
	for {
		var msg proto.Outbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintln(out, formatOutbound(msg))
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, name string, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Name: name, Text: text}); err != nil {
				fmt.Fprintf(out, "send error: %v\n", err)
				return
			}
		}
	}
}

func formatOutbound(msg proto.Outbound) string {
	switch msg.Type {
	case proto.TypeSystem:
		return "* " + msg.Text
	case proto.TypeAI:
		return fmt.Sprintf("[%s] %s", msg.Name, msg.Text)
	default:
		return fmt.Sprintf("%s: %s", msg.Name, msg.Text)
	}
}
