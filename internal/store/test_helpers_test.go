package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/flowfilt/internal/flow"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestFlows returns flows covering the pushed-down columns.
func createTestFlows() []*flow.Flow {
	size := int64(1234)
	return []*flow.Flow{
		{
			ID:   "a-get",
			Kind: flow.KindHTTP,
			Request: &flow.Request{
				Method: "GET", Scheme: "https", Host: "example.com", Port: 443, Path: "/",
				Headers: flow.Headers{{Name: "Accept", Value: "text/html"}},
			},
			Response: &flow.Response{
				StatusCode:    200,
				Headers:       flow.Headers{{Name: "Content-Type", Value: "text/html; charset=utf-8"}},
				ContentLength: &size,
			},
			ServerConn: &flow.Conn{Address: &flow.Address{Host: "93.184.216.34", Port: 443}, TLSEstablished: true},
		},
		{
			ID:   "b-css",
			Kind: flow.KindHTTP,
			Request: &flow.Request{
				Method: "GET", Scheme: "http", Host: "cdn.example.com", Port: 80, Path: "/site.css",
			},
			Response: &flow.Response{
				StatusCode: 304,
				Headers:    flow.Headers{{Name: "Content-Type", Value: "text/css"}},
			},
		},
		{
			ID:   "c-post",
			Kind: flow.KindHTTP,
			Request: &flow.Request{
				Method: "POST", Scheme: "http", Host: "api.test", Port: 8080, Path: "/v1",
			},
			Marked: true,
		},
		{
			ID:      "d-error",
			Kind:    flow.KindHTTP,
			Request: &flow.Request{Method: "PUT", Scheme: "https", Host: "example.org", Port: 443, Path: "/"},
			Error:   &flow.Error{Msg: "connection reset", Timestamp: 1700000000.5},
		},
		{
			ID:         "e-tcp",
			Kind:       flow.KindTCP,
			ClientConn: &flow.Conn{Address: &flow.Address{Host: "127.0.0.1", Port: 50000}},
			ServerConn: &flow.Conn{Address: &flow.Address{Host: "10.0.0.9", Port: 5432}},
		},
		{
			ID:       "f-ws",
			Kind:     flow.KindWebSocket,
			Request:  &flow.Request{Method: "GET", Scheme: "wss", Host: "socket.example.com", Port: 443, Path: "/ws"},
			Response: &flow.Response{StatusCode: 101},
		},
	}
}
