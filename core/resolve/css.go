// Package resolve maps references found in a document or style sheet to
// chunks of the archive and rewrites them into data URIs.
package resolve

import (
	"regexp"
	"strings"
)

// cssURL matches a url() token with a double-quoted, single-quoted or bare
// argument. It does not understand comments or escaped quotes.
var cssURL = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^"'()\s]*))\s*\)`)

// RewriteFunc returns the replacement for a url() token. token is the whole
// match, value the unquoted argument.
type RewriteFunc func(token, value string) string

// RewriteURLs calls fn for every url() token in css and splices in the
// returned text. All url() scanning goes through this function.
func RewriteURLs(css string, fn RewriteFunc) string {
	matches := cssURL.FindAllStringSubmatchIndex(css, -1)
	if len(matches) == 0 {
		return css
	}

	var b strings.Builder
	b.Grow(len(css))
	last := 0
	for _, m := range matches {
		b.WriteString(css[last:m[0]])
		token := css[m[0]:m[1]]
		b.WriteString(fn(token, argument(css, m)))
		last = m[1]
	}
	b.WriteString(css[last:])
	return b.String()
}

// argument returns whichever capture group matched.
func argument(s string, m []int) string {
	for g := 1; g <= 3; g++ {
		if start := m[2*g]; start >= 0 {
			return strings.TrimSpace(s[start:m[2*g+1]])
		}
	}
	return ""
}
