// Package fieldpath resolves bracketed field expressions against nested API
// records and flattens each record into one ordered row.
//
// An expression is a base field name followed by zero or more bracket
// groups:
//
//	impressions
//	creative[id]
//	link_url_asset[website_url]
//	actions[action_type:link_click]
//	actions[action_type:video_view][action_device:iphone]
//	actions[action_type:link_click][1d_click]
//
// A group holding "key:value" is a filter that selects, in an array of
// objects, the first element whose key equals value. A group without ':'
// is a nested key lookup.
package fieldpath

import (
	"strings"

	"github.com/ajitpratap0/adreader/pkg/errors"
)

// SegmentKind tags a Segment variant.
type SegmentKind int

const (
	// KeySegment looks up a key in an object.
	KeySegment SegmentKind = iota
	// FilterSegment selects array elements whose Key equals Value.
	FilterSegment
)

// Segment is one step of an expression after its base field.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Value string
}

// String renders the segment the way it appears in a field path.
func (s Segment) String() string {
	if s.Kind == FilterSegment {
		return s.Key + ":" + s.Value
	}
	return s.Key
}

// Expression is a parsed field expression. It is immutable once parsed.
type Expression struct {
	Raw      string
	Base     string
	Segments []Segment
}

// String returns the expression text as requested.
func (e Expression) String() string {
	return e.Raw
}

// Path returns the base followed by every segment, filters rendered as
// "key:value". No filter is ever dropped.
func (e Expression) Path() []string {
	path := make([]string, 0, len(e.Segments)+1)
	path = append(path, e.Base)
	for _, s := range e.Segments {
		path = append(path, s.String())
	}
	return path
}

// Filters returns the filter segments in order.
func (e Expression) Filters() []Segment {
	var out []Segment
	for _, s := range e.Segments {
		if s.Kind == FilterSegment {
			out = append(out, s)
		}
	}
	return out
}

// HasFilters reports whether the expression selects array elements.
func (e Expression) HasFilters() bool {
	for _, s := range e.Segments {
		if s.Kind == FilterSegment {
			return true
		}
	}
	return false
}

// Parse parses a field expression.
func Parse(text string) (Expression, error) {
	open := strings.IndexByte(text, '[')
	base := text
	if open >= 0 {
		base = text[:open]
	}
	if base == "" {
		return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q has no base name", text)
	}
	if strings.ContainsAny(base, "]:") {
		return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q has an invalid base name", text)
	}

	expr := Expression{Raw: text, Base: base}
	if open < 0 {
		return expr, nil
	}

	rest := text[open:]
	for rest != "" {
		if rest[0] != '[' {
			return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q: unexpected %q after bracket group", text, rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q: unbalanced bracket", text)
		}
		group := rest[1:end]
		if group == "" {
			return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q: empty bracket group", text)
		}
		if strings.IndexByte(group, '[') >= 0 {
			return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q: nested bracket", text)
		}

		if key, value, ok := strings.Cut(group, ":"); ok {
			if key == "" {
				return Expression{}, errors.Newf(errors.ErrorTypeConfig, "field %q: filter %q has no key", text, group)
			}
			expr.Segments = append(expr.Segments, Segment{Kind: FilterSegment, Key: key, Value: value})
		} else {
			expr.Segments = append(expr.Segments, Segment{Kind: KeySegment, Key: group})
		}
		rest = rest[end+1:]
	}

	return expr, nil
}

// ParseAll parses every expression, failing on the first malformed one.
func ParseAll(texts []string) ([]Expression, error) {
	out := make([]Expression, 0, len(texts))
	for _, text := range texts {
		e, err := Parse(text)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Paths returns the field path of every expression in order.
func Paths(exprs []Expression) [][]string {
	out := make([][]string, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e.Path())
	}
	return out
}
