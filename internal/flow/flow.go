package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the protocol of a flow.
type Kind string

const (
	KindHTTP      Kind = "http"
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
)

// ValidKinds lists the flow kinds understood by the filter engine.
var ValidKinds = map[Kind]bool{
	KindHTTP:      true,
	KindTCP:       true,
	KindWebSocket: true,
}

// defaultPorts maps schemes to the port elided from pretty URLs.
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// Flow is a single intercepted exchange.
type Flow struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        Kind      `json:"type" yaml:"type"`
	Request     *Request  `json:"request,omitempty" yaml:"request,omitempty"`
	Response    *Response `json:"response,omitempty" yaml:"response,omitempty"`
	Error       *Error    `json:"error,omitempty" yaml:"error,omitempty"`
	ClientConn  *Conn     `json:"client_conn,omitempty" yaml:"client_conn,omitempty"`
	ServerConn  *Conn     `json:"server_conn,omitempty" yaml:"server_conn,omitempty"`
	Intercepted bool      `json:"intercepted" yaml:"intercepted"`
	Marked      bool      `json:"marked" yaml:"marked"`
}

// Request is the client side of an HTTP exchange.
type Request struct {
	Method        string  `json:"method" yaml:"method"`
	Scheme        string  `json:"scheme" yaml:"scheme"`
	Host          string  `json:"host" yaml:"host"`
	Port          int     `json:"port" yaml:"port"`
	Path          string  `json:"path" yaml:"path"`
	HTTPVersion   string  `json:"http_version,omitempty" yaml:"http_version,omitempty"`
	Headers       Headers `json:"headers" yaml:"headers"`
	ContentLength *int64  `json:"content_length,omitempty" yaml:"content_length,omitempty"`
	HasContent    bool    `json:"has_content" yaml:"has_content"`
}

// PrettyURL renders scheme://host[:port]path, omitting the port when it is
// the default for the scheme.
func (r *Request) PrettyURL() string {
	var b strings.Builder
	b.WriteString(r.Scheme)
	b.WriteString("://")
	b.WriteString(r.Host)
	if p, ok := defaultPorts[r.Scheme]; !ok || p != r.Port {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.Port))
	}
	b.WriteString(r.Path)
	return b.String()
}

// Response is the server side of an HTTP exchange.
type Response struct {
	StatusCode    int     `json:"status_code" yaml:"status_code"`
	Reason        string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	HTTPVersion   string  `json:"http_version,omitempty" yaml:"http_version,omitempty"`
	Headers       Headers `json:"headers" yaml:"headers"`
	ContentLength *int64  `json:"content_length,omitempty" yaml:"content_length,omitempty"`
	HasContent    bool    `json:"has_content" yaml:"has_content"`
}

// Error describes an abnormal termination.
type Error struct {
	Msg       string  `json:"msg" yaml:"msg"`
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`
}

// Conn is one end of the proxied connection.
type Conn struct {
	Address        *Address `json:"address,omitempty" yaml:"address,omitempty"`
	TLSEstablished bool     `json:"tls_established" yaml:"tls_established"`
	SNI            string   `json:"sni,omitempty" yaml:"sni,omitempty"`
	ALPN           string   `json:"alpn,omitempty" yaml:"alpn,omitempty"`
}

// Address is a network endpoint.
type Address struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// String returns "host:port".
func (a Address) String() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// ErrResponseAndError is returned by Validate for flows carrying both a
// response and an error.
var ErrResponseAndError = errors.New("flow has both a response and an error")

// Validate checks the structural invariants of a flow record.
func (f *Flow) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("flow id is required")
	}
	if !ValidKinds[f.Kind] {
		return fmt.Errorf("flow %s: invalid type %q", f.ID, f.Kind)
	}
	if f.Response != nil && f.Error != nil {
		return fmt.Errorf("flow %s: %w", f.ID, ErrResponseAndError)
	}
	if f.Response != nil && f.Request == nil {
		return fmt.Errorf("flow %s: response without request", f.ID)
	}
	return nil
}
