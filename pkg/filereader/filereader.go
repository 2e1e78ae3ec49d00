// Package filereader unpacks downloaded archives and reads delimited files
// lazily, one row at a time.
package filereader

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/models"
	"github.com/ajitpratap0/adreader/pkg/stream"
	"github.com/klauspost/compress/zip"
)

// Unzip extracts every file of the archive at path into dir and returns
// the extracted paths keyed by archive entry name.
func Unzip(path, dir string) (map[string]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open archive")
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create extraction directory")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to resolve extraction directory")
	}

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return nil, errors.Newf(errors.ErrorTypeFile, "archive entry %q escapes extraction directory", f.Name)
		}
		if err := extract(f, target); err != nil {
			return nil, err
		}
		out[f.Name] = target
	}
	return out, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory")
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open archive entry "+f.Name)
	}
	defer rc.Close()

	dst, err := os.Create(target)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create "+target)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to extract "+f.Name)
	}
	if err := dst.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close "+target)
	}
	return nil
}

// CSVRecords reads the CSV file at path lazily. The first row is the
// header; each later row becomes a record keyed by header in column order.
// Short rows get empty strings for their missing columns.
func CSVRecords(path string) stream.Records {
	return func(yield func(*models.Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open "+path))
			return
		}
		defer f.Close()

		r := csv.NewReader(bufio.NewReader(f))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		header, err := r.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read header of "+path))
			return
		}
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], "\ufeff")
		}

		for {
			row, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read "+path))
				return
			}
			rec := models.NewRecord(len(header))
			for i, col := range header {
				if i < len(row) {
					rec.Set(col, row[i])
				} else {
					rec.Set(col, "")
				}
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Lines reads the text file at path lazily, one line at a time, without
// line terminators.
func Lines(path string) stream.Lines {
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield("", errors.Wrap(err, errors.ErrorTypeFile, "failed to open "+path))
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
		for sc.Scan() {
			if !yield(strings.TrimSuffix(sc.Text(), "\r"), nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", errors.Wrap(err, errors.ErrorTypeData, "failed to read "+path))
		}
	}
}
