package filter

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// describeCases covers every directive and combinator. Regenerate with
//
//	go test ./internal/filter -update
var describeCases = []string{
	"",
	"true",
	"false",
	"example",
	"~u example",
	"~m GET",
	"~d example\\.com",
	"~dst 10.0.0.1",
	"~src 127.0.0.1",
	"~h x-trace",
	"~hq accept",
	"~hs server",
	"~t json",
	"~tq json",
	"~ts html",
	"~c 304",
	"~a",
	"~e",
	"~q",
	"~s",
	"~http",
	"~tcp",
	"~websocket",
	"~marked",
	"~b secret",
	"~bq secret",
	"~bs secret",
	"!~q",
	"!!~e",
	"~d example\\.com & ~c 200",
	"~m GET ~d example",
	"(~e | ~c 500)",
	"~e | ~s & ~q",
	"!(~a | ~t css) ~s",
}

func TestDescriptionsGolden(t *testing.T) {
	var b strings.Builder
	for _, expr := range describeCases {
		p, err := Parse(expr)
		require.NoError(t, err, expr)
		b.WriteString(backquote(expr))
		b.WriteString(" => ")
		b.WriteString(p.Description())
		b.WriteByte('\n')
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "descriptions", []byte(b.String()))
}

func backquote(s string) string {
	return "`" + s + "`"
}
