package switchyard

import (
	"encoding"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultScheme is the scheme a URI renders with when none is set.
const DefaultScheme = "content"

var (
	_ encoding.TextMarshaler   = URI{}
	_ encoding.TextUnmarshaler = new(URI)
	_ fmt.Stringer             = URI{}
)

// A URI identifies a table and, optionally, records within it.
//
// The first path segment names the table.
// A URI without any segments cannot be routed to a table.
//
//	content://world.switchyard.library/books/42
//	          └──────── Authority ─────┘└ Segments ┘
type URI struct {
	Scheme    string
	Authority string
	Segments  []string
}

// NewURI constructs a URI under authority made up of segments.
func NewURI(authority string, segments ...string) URI {
	return URI{
		Scheme:    DefaultScheme,
		Authority: authority,
		Segments:  append([]string(nil), segments...),
	}
}

// ParseURI parses raw into a URI.
//
// Empty path segments are dropped, so "content://a//books/" has the single segment "books".
// Percent-encoded segments are decoded.
// If raw cannot be parsed, ParseURI returns ErrNotValid.
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %s", ErrNotValid, err)
	}

	uri := URI{Scheme: u.Scheme, Authority: u.Host}
	for _, seg := range strings.Split(u.EscapedPath(), "/") {
		if seg == "" {
			continue
		}

		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return URI{}, fmt.Errorf("%w: segment %q: %s", ErrNotValid, seg, err)
		}

		uri.Segments = append(uri.Segments, decoded)
	}

	return uri, nil
}

// MustParseURI is like ParseURI but panics if raw cannot be parsed.
func MustParseURI(raw string) URI {
	uri, err := ParseURI(raw)
	if err != nil {
		panic(err)
	}

	return uri
}

// Append returns a copy of the URI with segs added to the end of its path.
func (u URI) Append(segs ...string) URI {
	n := u
	n.Segments = make([]string, 0, len(u.Segments)+len(segs))
	n.Segments = append(n.Segments, u.Segments...)
	n.Segments = append(n.Segments, segs...)

	return n
}

// AppendID returns a copy of the URI with id added to the end of its path.
func (u URI) AppendID(id int64) URI { return u.Append(strconv.FormatInt(id, 10)) }

// Equal asserts whether u and other identify the same resource.
func (u URI) Equal(other URI) bool {
	if u.scheme() != other.scheme() || u.Authority != other.Authority {
		return false
	}

	if len(u.Segments) != len(other.Segments) {
		return false
	}

	for i := range u.Segments {
		if u.Segments[i] != other.Segments[i] {
			return false
		}
	}

	return true
}

// HasPrefix asserts whether prefix shares u's scheme and authority
// and its segments lead u's segments.
// A URI is a prefix of itself.
func (u URI) HasPrefix(prefix URI) bool {
	if u.scheme() != prefix.scheme() || u.Authority != prefix.Authority {
		return false
	}

	if len(prefix.Segments) > len(u.Segments) {
		return false
	}

	for i := range prefix.Segments {
		if u.Segments[i] != prefix.Segments[i] {
			return false
		}
	}

	return true
}

// ID parses the last segment of the URI as a record key.
//
// If the URI has no segments or the last one is not an integer, ID returns ErrNotValid.
func (u URI) ID() (int64, error) {
	last := u.Last()
	if last == "" {
		return 0, fmt.Errorf("%w: %s has no record segment", ErrNotValid, u)
	}

	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a record id", ErrNotValid, u, last)
	}

	return id, nil
}

// IsZero asserts whether the URI is the zero value.
func (u URI) IsZero() bool {
	return u.Scheme == "" && u.Authority == "" && len(u.Segments) == 0
}

// Last returns the final segment of the URI or an empty string if there are none.
func (u URI) Last() string {
	if len(u.Segments) == 0 {
		return ""
	}

	return u.Segments[len(u.Segments)-1]
}

// Table returns the first segment of the URI, which names a table.
// If the URI has no segments, Table returns false.
func (u URI) Table() (string, bool) {
	if len(u.Segments) == 0 {
		return "", false
	}

	return u.Segments[0], true
}

// String renders the URI, escaping each segment.
//
// String implements fmt.Stringer.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.scheme())
	b.WriteString("://")
	b.WriteString(u.Authority)
	for _, seg := range u.Segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}

	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (u URI) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URI) UnmarshalText(text []byte) error {
	parsed, err := ParseURI(string(text))
	if err != nil {
		return err
	}

	*u = parsed
	return nil
}

func (u URI) scheme() string {
	if u.Scheme == "" {
		return DefaultScheme
	}

	return u.Scheme
}
