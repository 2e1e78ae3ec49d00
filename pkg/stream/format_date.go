package stream

import (
	"time"

	"github.com/ajitpratap0/adreader/pkg/models"
)

// inputLayouts are the date renderings seen in API exports, most specific
// first.
var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02",
	"20060102",
}

// FormatDate re-renders the values of keys in layout. Values that are not
// strings or do not parse are left unchanged. An empty layout returns
// records untouched.
func FormatDate(records Records, keys []string, layout string) Records {
	if layout == "" || len(keys) == 0 {
		return records
	}
	return func(yield func(*models.Record, error) bool) {
		for rec, err := range records {
			if err == nil {
				for _, k := range keys {
					v, ok := rec.Get(k)
					if !ok {
						continue
					}
					if s, isString := v.(string); isString {
						if formatted, ok := reformat(s, layout); ok {
							rec.Set(k, formatted)
						}
					}
				}
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

func reformat(value, layout string) (string, bool) {
	for _, in := range inputLayouts {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format(layout), true
		}
	}
	return "", false
}
