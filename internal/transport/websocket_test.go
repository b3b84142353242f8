package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer echoes every text frame back, then closes normally after "bye".
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(data) == "bye" {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestDial_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := Dial(ctx, wsURL(srv), nil, WithPingInterval(0))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer tr.Close()

	if tr.ID() == "" {
		t.Error("ID() is empty")
	}
	if info := tr.Info(); info.Type != "websocket" || info.RemoteAddr == "" {
		t.Errorf("Info() = %+v, want websocket with remote address", info)
	}

	frame := `[null,"1","room:1","phx_join",{}]`
	if err := tr.Write(ctx, []byte(frame)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := tr.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != frame {
		t.Errorf("Read() = %q, want %q", got, frame)
	}
}

func TestDial_CleanClose(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := Dial(ctx, wsURL(srv), nil, WithPingInterval(0))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer tr.Close()

	if err := tr.Write(ctx, []byte("bye")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := tr.Read(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Read() after server close = %v, want io.EOF", err)
	}
}

func TestDial_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), nil)
	if err == nil {
		t.Fatal("Dial() to a non-websocket endpoint succeeded")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Dial() error = %v, want status in message", err)
	}
}

func TestWebSocketTransport_Close(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	tr, err := Dial(context.Background(), wsURL(srv), nil, WithPingInterval(0))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := tr.Write(context.Background(), []byte("x")); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Write() after Close = %v, want ErrTransportClosed", err)
	}
	if _, err := tr.Read(context.Background()); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Read() after Close = %v, want ErrTransportClosed", err)
	}
}
