package filter

import (
	"regexp"
	"sort"

	"github.com/roach88/flowfilt/internal/flow"
)

// ArgKind is the argument a directive takes.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgPattern
	ArgInteger
)

// String returns the placeholder used in help output.
func (k ArgKind) String() string {
	switch k {
	case ArgPattern:
		return "regex"
	case ArgInteger:
		return "int"
	default:
		return ""
	}
}

// Directive describes one "~" leaf.
type Directive struct {
	Name string
	Arg  ArgKind
	Help string

	build leafBuilder
}

// leafBuilder turns a leaf into its match function and description. re is
// the compiled argument for pattern directives.
type leafBuilder func(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string)

// directiveTable is keyed by the full directive word.
var directiveTable = map[string]*Directive{
	"~a":         {Name: "~a", Arg: ArgNone, Help: "Asset content-type in response. Asset content types are: text/javascript, application/x-javascript, application/javascript, text/css, image/*, application/x-shockwave-flash", build: buildAsset},
	"~b":         {Name: "~b", Arg: ArgPattern, Help: "Body", build: buildBody},
	"~bq":        {Name: "~bq", Arg: ArgPattern, Help: "Request body", build: buildBody},
	"~bs":        {Name: "~bs", Arg: ArgPattern, Help: "Response body", build: buildBody},
	"~c":         {Name: "~c", Arg: ArgInteger, Help: "HTTP response code", build: buildCode},
	"~d":         {Name: "~d", Arg: ArgPattern, Help: "Domain", build: buildDomain},
	"~dst":       {Name: "~dst", Arg: ArgPattern, Help: "Match destination address", build: buildDestination},
	"~e":         {Name: "~e", Arg: ArgNone, Help: "Match error", build: buildError},
	"~h":         {Name: "~h", Arg: ArgPattern, Help: "Header", build: buildHeader},
	"~hq":        {Name: "~hq", Arg: ArgPattern, Help: "Request header", build: buildRequestHeader},
	"~hs":        {Name: "~hs", Arg: ArgPattern, Help: "Response header", build: buildResponseHeader},
	"~http":      {Name: "~http", Arg: ArgNone, Help: "Match HTTP flows", build: buildKind(flow.KindHTTP)},
	"~m":         {Name: "~m", Arg: ArgPattern, Help: "Method", build: buildMethod},
	"~marked":    {Name: "~marked", Arg: ArgNone, Help: "Match marked flows", build: buildMarked},
	"~q":         {Name: "~q", Arg: ArgNone, Help: "Request without response", build: buildNoResponse},
	"~s":         {Name: "~s", Arg: ArgNone, Help: "Response", build: buildResponse},
	"~src":       {Name: "~src", Arg: ArgPattern, Help: "Match source address", build: buildSource},
	"~t":         {Name: "~t", Arg: ArgPattern, Help: "Content-type header", build: buildContentType},
	"~tcp":       {Name: "~tcp", Arg: ArgNone, Help: "Match TCP flows", build: buildKind(flow.KindTCP)},
	"~tq":        {Name: "~tq", Arg: ArgPattern, Help: "Request Content-Type header", build: buildRequestContentType},
	"~ts":        {Name: "~ts", Arg: ArgPattern, Help: "Response Content-Type header", build: buildResponseContentType},
	"~u":         {Name: "~u", Arg: ArgPattern, Help: "URL", build: buildURL},
	"~websocket": {Name: "~websocket", Arg: ArgNone, Help: "Match WebSocket flows", build: buildKind(flow.KindWebSocket)},
}

// HelpEntry is one row of the filter syntax reference.
type HelpEntry struct {
	Syntax      string `json:"syntax"`
	Description string `json:"description"`
}

// Directives returns every directive sorted by name.
func Directives() []Directive {
	out := make([]Directive, 0, len(directiveTable))
	for _, d := range directiveTable {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupDirective returns the directive named name ("~d", "~hq", ...).
func LookupDirective(name string) (Directive, bool) {
	d, ok := directiveTable[name]
	if !ok {
		return Directive{}, false
	}
	return *d, true
}

// Help returns the syntax reference: every directive followed by the
// operators.
func Help() []HelpEntry {
	dirs := Directives()
	out := make([]HelpEntry, 0, len(dirs)+5)
	for _, d := range dirs {
		syntax := d.Name
		if arg := d.Arg.String(); arg != "" {
			syntax += " " + arg
		}
		out = append(out, HelpEntry{Syntax: syntax, Description: d.Help})
	}
	out = append(out,
		HelpEntry{Syntax: "regex", Description: "Bare string matches the URL"},
		HelpEntry{Syntax: "!", Description: "unary not"},
		HelpEntry{Syntax: "&", Description: "and"},
		HelpEntry{Syntax: "|", Description: "or"},
		HelpEntry{Syntax: "(...)", Description: "grouping"},
	)
	return out
}
