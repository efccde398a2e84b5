// Package urlstate maps dashboard control values to and from a URL query
// string so that a view can be bookmarked and shared.
//
// Keys are control ids, or "id::property" when the property is not
// "value". Values are written in literal syntax (see Repr) with double
// quotes only, and percent-encoded with a broadened safe set so that the
// address bar stays readable:
//
//	?spore-id::data="S042"&slider-storage=[0.2,%200.9]
package urlstate

import (
	"strings"
)

// Separator joins a control id and a property name in a query key
const Separator = "::"

// DefaultProperty is the property addressed by a bare control id
const DefaultProperty = "value"

// safeChars are left unescaped in addition to letters, digits and "_.-~"
const safeChars = `%/:?~#+!$,;'@()*[]"`

// Param is one control property and its value
type Param struct {
	ID       string
	Property string
	Value    any
}

// State is a decoded query: control id -> property -> value
type State map[string]map[string]any

// Set stores value under id and property
func (s State) Set(id, property string, value any) {
	props, ok := s[id]
	if !ok {
		props = make(map[string]any)
		s[id] = props
	}
	props[property] = value
}

// Get returns the value stored under id and property
func (s State) Get(id, property string) (any, bool) {
	props, ok := s[id]
	if !ok {
		return nil, false
	}
	v, ok := props[property]
	return v, ok
}

// Key returns the query key of a control property
func Key(id, property string) string {
	if property == DefaultProperty {
		return id
	}
	return id + Separator + property
}

// SplitKey is the inverse of Key. It reports false for keys that use the
// separator more than once or leave either side empty.
func SplitKey(key string) (id, property string, ok bool) {
	parts := strings.Split(key, Separator)
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], DefaultProperty, true
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], true
	}
	return "", "", false
}

// Encode renders params, in order, as a query string starting with "?"
func Encode(params []Param) (string, error) {
	var b strings.Builder
	b.WriteByte('?')
	for i, p := range params {
		lit, err := Repr(p.Value)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(Key(p.ID, p.Property)))
		b.WriteByte('=')
		b.WriteString(Escape(lit))
	}
	return b.String(), nil
}

// Escape percent-encodes s, leaving letters, digits, "_.-~" and the
// broadened safe set untouched
func Escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safeChars, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '.' || c == '-' || c == '~'
}

// Unescape decodes "%XX" sequences. A "%" that is not followed by two hex
// digits is kept as it is, so values containing a raw "%" survive.
func Unescape(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}

// Decode reads the query of rawURL, which may be a full URL, a path with a
// query, or a bare "?query". Parameters without "=", with an empty value,
// with a malformed key or with a value that is not a valid literal are
// skipped. Later duplicates win. "+" is kept literally since Encode never
// produces it for spaces.
func Decode(rawURL string) State {
	state := State{}

	i := strings.IndexByte(rawURL, '?')
	if i < 0 {
		return state
	}
	query := rawURL[i+1:]

	for _, pair := range strings.Split(query, "&") {
		k, v, found := strings.Cut(pair, "=")
		if !found || v == "" {
			continue
		}
		id, property, ok := SplitKey(Unescape(k))
		if !ok {
			continue
		}
		lit, err := Parse(Unescape(v))
		if err != nil {
			continue
		}
		state.Set(id, property, lit)
	}
	return state
}

// AsRange converts a decoded literal into a (lo, hi) pair of numbers
func AsRange(v any) ([2]float64, bool) {
	items, ok := v.([]any)
	if !ok || len(items) != 2 {
		return [2]float64{}, false
	}
	var out [2]float64
	for i, item := range items {
		f, ok := AsFloat(item)
		if !ok {
			return [2]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

// AsFloat converts a decoded int or float literal to float64
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// AsString converts a decoded literal to a string. None yields "" and
// false.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
