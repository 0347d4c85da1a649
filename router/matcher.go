package router

import (
	"strings"

	"github.com/xy-planning-network/switchyard"
)

// NoMatch is the code a Matcher reports when no pattern matches.
const NoMatch = -1

const (
	// NumberWildcard matches one segment made up only of digits.
	NumberWildcard = "#"

	// TextWildcard matches any one segment.
	TextWildcard = "*"
)

// A Matcher pairs URI shapes with codes a Handler switches on.
//
// Patterns are paths of segments relative to an authority, e.g.:
//
//	m.Add(authority, "books", booksDir)
//	m.Add(authority, "books/#", booksItem)
//
// At each segment, a literal match is preferred over NumberWildcard,
// which is preferred over TextWildcard.
//
// Add all patterns before calling Match;
// Match is safe for concurrent use only once Add calls are done.
type Matcher struct {
	roots map[string]*matchNode
}

type matchNode struct {
	code     int
	literals map[string]*matchNode
	number   *matchNode
	text     *matchNode
}

func newMatchNode() *matchNode { return &matchNode{code: NoMatch} }

// NewMatcher constructs an empty *Matcher.
func NewMatcher() *Matcher {
	return &Matcher{roots: make(map[string]*matchNode)}
}

// Add pairs pattern under authority with code.
// Adding the same pattern again replaces its code.
// An empty pattern matches a URI with no segments.
func (m *Matcher) Add(authority, pattern string, code int) {
	n, ok := m.roots[authority]
	if !ok {
		n = newMatchNode()
		m.roots[authority] = n
	}

	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" {
			continue
		}

		switch seg {
		case NumberWildcard:
			if n.number == nil {
				n.number = newMatchNode()
			}
			n = n.number

		case TextWildcard:
			if n.text == nil {
				n.text = newMatchNode()
			}
			n = n.text

		default:
			if n.literals == nil {
				n.literals = make(map[string]*matchNode)
			}
			child, ok := n.literals[seg]
			if !ok {
				child = newMatchNode()
				n.literals[seg] = child
			}
			n = child
		}
	}

	n.code = code
}

// Match returns the code paired with the pattern uri matches.
// If none match, Match returns NoMatch and false.
func (m *Matcher) Match(uri switchyard.URI) (int, bool) {
	root, ok := m.roots[uri.Authority]
	if !ok {
		return NoMatch, false
	}

	code := root.match(uri.Segments)
	return code, code != NoMatch
}

func (n *matchNode) match(segs []string) int {
	if len(segs) == 0 {
		return n.code
	}

	seg, rest := segs[0], segs[1:]
	if child, ok := n.literals[seg]; ok {
		if code := child.match(rest); code != NoMatch {
			return code
		}
	}

	if n.number != nil && isNumber(seg) {
		if code := n.number.match(rest); code != NoMatch {
			return code
		}
	}

	if n.text != nil {
		return n.text.match(rest)
	}

	return NoMatch
}

func isNumber(seg string) bool {
	if seg == "" {
		return false
	}

	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
