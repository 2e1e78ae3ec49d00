package fieldpath

import (
	"fmt"
	"iter"

	"github.com/ajitpratap0/adreader/pkg/models"
)

// DefaultValueKey names the sub-value of a selected array element when the
// expression does not name one.
const DefaultValueKey = "value"

// Extractor flattens raw records into rows keyed by expression text.
type Extractor struct {
	exprs []Expression
}

// NewExtractor creates an extractor for the given expressions. Output keys
// follow the order of exprs.
func NewExtractor(exprs []Expression) *Extractor {
	return &Extractor{exprs: exprs}
}

// BaseFields returns the distinct base names in request order.
func (x *Extractor) BaseFields() []string {
	seen := make(map[string]struct{}, len(x.exprs))
	out := make([]string, 0, len(x.exprs))
	for _, e := range x.exprs {
		if _, ok := seen[e.Base]; ok {
			continue
		}
		seen[e.Base] = struct{}{}
		out = append(out, e.Base)
	}
	return out
}

// Extract produces exactly one row for raw. Every expression yields a key;
// values that cannot be resolved are nil.
func (x *Extractor) Extract(raw map[string]interface{}) *models.Record {
	row := models.NewRecord(len(x.exprs))
	for _, e := range x.exprs {
		row.Set(e.Raw, Resolve(raw, e))
	}
	return row
}

// ExtractAll lazily maps raw records to rows. Errors from the source are
// passed through and do not stop iteration.
func (x *Extractor) ExtractAll(raws iter.Seq2[map[string]interface{}, error]) iter.Seq2[*models.Record, error] {
	return func(yield func(*models.Record, error) bool) {
		for raw, err := range raws {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(x.Extract(raw), nil) {
				return
			}
		}
	}
}

// Resolve evaluates one expression against raw. A missing value, a filter
// without a matching element, or an array reached without a filter all
// resolve to nil.
func Resolve(raw map[string]interface{}, e Expression) interface{} {
	v, ok := raw[e.Base]
	if !ok {
		return nil
	}
	return resolveSegments(v, e.Segments)
}

func resolveSegments(v interface{}, segs []Segment) interface{} {
	i := 0
	for i < len(segs) {
		switch cur := v.(type) {
		case map[string]interface{}:
			if segs[i].Kind != KeySegment {
				return nil
			}
			next, ok := cur[segs[i].Key]
			if !ok {
				return nil
			}
			v = next
			i++

		case []interface{}:
			j := i
			for j < len(segs) && segs[j].Kind == FilterSegment {
				j++
			}
			if j == i {
				return nil
			}
			elem := firstMatch(cur, segs[i:j])
			if elem == nil {
				return nil
			}
			i = j
			if i == len(segs) {
				return scalarOrNil(elem[DefaultValueKey])
			}
			v = elem

		default:
			return nil
		}
	}
	return scalarOrNil(v)
}

// firstMatch returns the first object element matching every filter.
func firstMatch(arr []interface{}, filters []Segment) map[string]interface{} {
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		matched := true
		for _, f := range filters {
			val, ok := obj[f.Key]
			if !ok || !equalText(val, f.Value) {
				matched = false
				break
			}
		}
		if matched {
			return obj
		}
	}
	return nil
}

func equalText(v interface{}, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case nil:
		return false
	case fmt.Stringer:
		return t.String() == want
	default:
		return fmt.Sprint(t) == want
	}
}

// scalarOrNil drops arrays, which have no single value without a filter.
func scalarOrNil(v interface{}) interface{} {
	if _, ok := v.([]interface{}); ok {
		return nil
	}
	return v
}
