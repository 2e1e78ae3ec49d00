// Package json wraps goccy/go-json with the settings adreader relies on:
// numbers decode as json.Number so API values keep their exact text, and
// encoding never escapes HTML.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Number is a JSON number kept as its literal text
type Number = gojson.Number

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1<<20 {
		return
	}
	bufferPool.Put(buf)
}

// Decode reads one JSON value from r into v
func Decode(r io.Reader, v interface{}) error {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

// Unmarshal decodes data into v, keeping numbers as Number
func Unmarshal(data []byte, v interface{}) error {
	return Decode(bytes.NewReader(data), v)
}

// Marshal encodes v without HTML escaping
func Marshal(v interface{}) ([]byte, error) {
	return gojson.MarshalWithOption(v, gojson.DisableHTMLEscape())
}

// LineWriter writes values as newline-delimited JSON
type LineWriter struct {
	w   io.Writer
	buf *bytes.Buffer
}

// NewLineWriter creates a LineWriter on w
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w, buf: GetBuffer()}
}

// Write encodes v followed by a newline
func (lw *LineWriter) Write(v interface{}) error {
	lw.buf.Reset()
	var (
		data []byte
		err  error
	)
	if m, ok := v.(gojson.Marshaler); ok {
		data, err = m.MarshalJSON()
	} else {
		data, err = Marshal(v)
	}
	if err != nil {
		return err
	}
	lw.buf.Write(data)
	lw.buf.WriteByte('\n')
	_, err = lw.w.Write(lw.buf.Bytes())
	return err
}

// Release returns the internal buffer to the pool
func (lw *LineWriter) Release() {
	if lw.buf != nil {
		PutBuffer(lw.buf)
		lw.buf = nil
	}
}
