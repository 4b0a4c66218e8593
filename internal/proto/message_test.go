package proto

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr bool
	}{
		{
			name: "user message",
			raw:  `{"name":"Ann","text":"hello"}`,
			want: Inbound{Name: "Ann", Text: "hello"},
		},
		{
			name: "handshake without text",
			raw:  `{"name":"Ann","connectionEstablished":true}`,
			want: Inbound{Name: "Ann", ConnectionEstablished: true},
		},
		{
			name: "text kept verbatim",
			raw:  `{"name":"  Ann ","text":"  spaced  "}`,
			want: Inbound{Name: "  Ann ", Text: "  spaced  "},
		},
		{
			name: "unknown fields ignored",
			raw:  `{"name":"Ann","text":"hi","color":"red","extra":{"a":1}}`,
			want: Inbound{Name: "Ann", Text: "hi"},
		},
		{
			name:    "explicit false handshake needs text",
			raw:     `{"name":"Ann","connectionEstablished":false}`,
			wantErr: true,
		},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "array", raw: `["Ann","hi"]`, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "missing name", raw: `{"text":"hi"}`, wantErr: true},
		{name: "missing text", raw: `{"name":"Ann"}`, wantErr: true},
		{name: "numeric name", raw: `{"name":5,"text":"hi"}`, wantErr: true},
		{name: "object text", raw: `{"name":"Ann","text":{"a":1}}`, wantErr: true},
		{name: "string flag", raw: `{"name":"Ann","connectionEstablished":"yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedInput) {
					t.Fatalf("expected ErrMalformedInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected inbound: got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeOmitsNameForSystem(t *testing.T) {
	raw, err := Encode(Outbound{Type: TypeSystem, Text: "Welcome Ann!", Name: "ignored"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(raw), `"name"`) {
		t.Fatalf("system message carries a name: %s", raw)
	}
	if string(raw) != `{"type":"system","text":"Welcome Ann!"}` {
		t.Fatalf("unexpected encoding: %s", raw)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	messages := []Outbound{
		{Type: TypeSystem, Text: "a member has disconnected"},
		{Type: TypeUser, Text: "hello @bob", Name: "Ann"},
		{Type: TypeAI, Text: "banana bread!", Name: "BOB (AI) (BANANA BREAD)"},
	}

	for _, msg := range messages {
		raw, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode %+v: %v", msg, err)
		}

		got, err := DecodeOutbound(raw)
		if err != nil {
			t.Fatalf("decode outbound %s: %v", raw, err)
		}
		if got != msg {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
		}

		// The same bytes read as a client payload keep name and text.
		if msg.Type == TypeSystem {
			continue
		}
		in, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode as inbound %s: %v", raw, err)
		}
		if in.Name != msg.Name || in.Text != msg.Text {
			t.Fatalf("inbound mismatch: got %+v want %+v", in, msg)
		}
	}
}

func TestDecodeOutboundRejectsUnknownType(t *testing.T) {
	if _, err := DecodeOutbound([]byte(`{"type":"event","text":"x"}`)); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}
