package bigquery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/adreader/pkg/connector/core"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/ajitpratap0/adreader/pkg/stream"
)

const maxColumnLength = 300

var invalidColumnChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// ColumnName maps a record key to a valid BigQuery column name: runs of
// characters outside [A-Za-z0-9_] become one underscore, and a name that
// would start with a digit gets a leading underscore.
func ColumnName(key string) string {
	name := strings.Trim(invalidColumnChars.ReplaceAllString(key, "_"), "_")
	if name == "" {
		name = "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	if len(name) > maxColumnLength {
		name = name[:maxColumnLength]
	}
	return name
}

// columnNamer remembers the column chosen for each key so every record of
// a stream maps identically. Distinct keys that sanitize to the same name
// get a numeric suffix.
type columnNamer struct {
	byKey map[string]string
	taken map[string]bool
}

func newColumnNamer() *columnNamer {
	return &columnNamer{byKey: map[string]string{}, taken: map[string]bool{}}
}

func (c *columnNamer) name(key string) string {
	if n, ok := c.byKey[key]; ok {
		return n
	}
	base := ColumnName(key)
	n := base
	for i := 2; c.taken[strings.ToLower(n)]; i++ {
		n = base + "_" + strconv.Itoa(i)
	}
	c.byKey[key] = n
	c.taken[strings.ToLower(n)] = true
	return n
}

// withColumnNames rekeys the records of a JSON stream. Other streams are
// returned unchanged; CSV header names are rewritten by schema autodetect.
func withColumnNames(s core.Stream) core.Stream {
	js, ok := s.(*stream.JSONStream)
	if !ok {
		return s
	}
	names := newColumnNamer()
	records := js.Records()
	return stream.NewJSONStream(js.Name(), func(yield func(*models.Record, error) bool) {
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			out := models.NewRecord(rec.Len())
			for _, k := range rec.Keys() {
				v, _ := rec.Get(k)
				out.Set(names.name(k), v)
			}
			if !yield(out, nil) {
				return
			}
		}
	})
}
