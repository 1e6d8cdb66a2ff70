package filter

import (
	"github.com/roach88/flowfilt/internal/flow"
)

// Test fixture constructors.

func httpFlow(method, scheme, host string, port int, path string) *flow.Flow {
	return &flow.Flow{
		ID:   method + " " + host + path,
		Kind: flow.KindHTTP,
		Request: &flow.Request{
			Method: method,
			Scheme: scheme,
			Host:   host,
			Port:   port,
			Path:   path,
		},
	}
}

func withResponse(f *flow.Flow, code int, headers ...flow.Header) *flow.Flow {
	f.Response = &flow.Response{StatusCode: code, Headers: headers}
	return f
}

func withError(f *flow.Flow, msg string) *flow.Flow {
	f.Error = &flow.Error{Msg: msg}
	return f
}

func hdr(name, value string) flow.Header {
	return flow.Header{Name: name, Value: value}
}

// corpus is a set of flows covering every leaf's present and absent cases.
func corpus() []*flow.Flow {
	get := withResponse(httpFlow("GET", "https", "example.com", 443, "/index.html"), 200,
		hdr("Content-Type", "text/html; charset=utf-8"), hdr("Server", "nginx"))
	get.Request.Headers = flow.Headers{hdr("Accept", "*/*"), hdr("User-Agent", "curl/8")}
	get.ClientConn = &flow.Conn{Address: &flow.Address{Host: "127.0.0.1", Port: 50000}}
	get.ServerConn = &flow.Conn{Address: &flow.Address{Host: "93.184.216.34", Port: 443}}

	css := withResponse(httpFlow("GET", "http", "cdn.example.com", 80, "/site.css"), 304,
		hdr("content-type", "text/css"))

	post := httpFlow("POST", "http", "api.test", 8080, "/v1/items")
	post.Request.Headers = flow.Headers{hdr("Content-Type", "application/json")}
	post.Marked = true

	failed := withError(httpFlow("PUT", "https", "example.org", 443, "/upload"), "connection reset")

	server := withResponse(httpFlow("DELETE", "https", "example.com", 443, "/x"), 500)

	tcp := &flow.Flow{
		ID:         "tcp",
		Kind:       flow.KindTCP,
		ServerConn: &flow.Conn{Address: &flow.Address{Host: "10.0.0.9", Port: 5432}},
	}

	ws := withResponse(httpFlow("GET", "wss", "socket.example.com", 443, "/ws"), 101)
	ws.Kind = flow.KindWebSocket

	img := withResponse(httpFlow("GET", "https", "img.example.com", 443, "/a.png"), 200,
		hdr("Content-Type", "image/png"))

	return []*flow.Flow{get, css, post, failed, server, tcp, ws, img, {ID: "empty", Kind: flow.KindHTTP}}
}
