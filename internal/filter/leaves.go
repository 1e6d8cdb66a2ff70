package filter

import (
	"regexp"
	"strconv"

	"github.com/roach88/flowfilt/internal/flow"
)

// assetTypes are the response content types ~a treats as static assets.
var assetTypes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)text/javascript`),
	regexp.MustCompile(`(?i)application/x-javascript`),
	regexp.MustCompile(`(?i)application/javascript`),
	regexp.MustCompile(`(?i)text/css`),
	regexp.MustCompile(`(?i)image/.*`),
	regexp.MustCompile(`(?i)application/x-shockwave-flash`),
}

const bodyStubDescription = "body filters are not implemented"

// compilePattern compiles a pattern argument for case-insensitive search.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

func describePattern(prefix, pattern string) string {
	return prefix + "/" + pattern + "/i"
}

func buildURL(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Request != nil && re.MatchString(f.Request.PrettyURL())
	}, describePattern("url matches ", l.Arg)
}

func buildMethod(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Request != nil && re.MatchString(f.Request.Method)
	}, describePattern("method matches ", l.Arg)
}

func buildDomain(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Request != nil && re.MatchString(f.Request.Host)
	}, describePattern("domain matches ", l.Arg)
}

func buildDestination(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return connMatches(f.ServerConn, re)
	}, describePattern("destination address matches ", l.Arg)
}

func buildSource(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return connMatches(f.ClientConn, re)
	}, describePattern("source address matches ", l.Arg)
}

func connMatches(c *flow.Conn, re *regexp.Regexp) bool {
	return c != nil && c.Address != nil && re.MatchString(c.Address.String())
}

func buildHeader(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return requestHeaderMatches(f, re) || responseHeaderMatches(f, re)
	}, describePattern("header matches ", l.Arg)
}

func buildRequestHeader(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return requestHeaderMatches(f, re)
	}, describePattern("req. header matches ", l.Arg)
}

func buildResponseHeader(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return responseHeaderMatches(f, re)
	}, describePattern("resp. header matches ", l.Arg)
}

func requestHeaderMatches(f *flow.Flow, re *regexp.Regexp) bool {
	return f.Request != nil && headersMatch(f.Request.Headers, re)
}

func responseHeaderMatches(f *flow.Flow, re *regexp.Regexp) bool {
	return f.Response != nil && headersMatch(f.Response.Headers, re)
}

// headersMatch tests each header as the line "name value".
func headersMatch(h flow.Headers, re *regexp.Regexp) bool {
	for _, line := range h.Lines() {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func buildContentType(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return requestTypeMatches(f, re) || responseTypeMatches(f, re)
	}, describePattern("content type matches ", l.Arg)
}

func buildRequestContentType(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return requestTypeMatches(f, re)
	}, describePattern("req. content type matches ", l.Arg)
}

func buildResponseContentType(l *Leaf, re *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return responseTypeMatches(f, re)
	}, describePattern("resp. content type matches ", l.Arg)
}

func requestTypeMatches(f *flow.Flow, re *regexp.Regexp) bool {
	return f.Request != nil && contentTypeMatches(f.Request.Headers, re)
}

func responseTypeMatches(f *flow.Flow, re *regexp.Regexp) bool {
	return f.Response != nil && contentTypeMatches(f.Response.Headers, re)
}

// contentTypeMatches is false when no Content-Type header is present.
func contentTypeMatches(h flow.Headers, re *regexp.Regexp) bool {
	ct, ok := h.ContentType()
	return ok && re.MatchString(ct)
}

func buildCode(l *Leaf, _ *regexp.Regexp) (func(*flow.Flow) bool, string) {
	code := l.Code
	return func(f *flow.Flow) bool {
		return f.Response != nil && f.Response.StatusCode == code
	}, "resp. code is " + strconv.Itoa(code)
}

func buildAsset(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		if f.Response == nil {
			return false
		}
		ct, ok := f.Response.Headers.ContentType()
		if !ok {
			return false
		}
		for _, re := range assetTypes {
			if re.MatchString(ct) {
				return true
			}
		}
		return false
	}, "is asset"
}

func buildError(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Error != nil
	}, "has error"
}

func buildNoResponse(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Request != nil && f.Response == nil
	}, "has no response"
}

func buildResponse(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Response != nil
	}, "has response"
}

func buildMarked(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(f *flow.Flow) bool {
		return f.Marked
	}, "is marked"
}

func buildKind(kind flow.Kind) leafBuilder {
	desc := "is " + string(kind)
	return func(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
		return func(f *flow.Flow) bool {
			return f.Kind == kind
		}, desc
	}
}

// buildBody is a placeholder until flow records carry body content.
func buildBody(*Leaf, *regexp.Regexp) (func(*flow.Flow) bool, string) {
	return func(*flow.Flow) bool {
		return true
	}, bodyStubDescription
}
