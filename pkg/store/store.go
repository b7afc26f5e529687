// Package store loads and saves study books as JSON files.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/japaniel/studybook/pkg/studybook"
)

// ErrCorrupt is returned when a stored book does not match the schema.
var ErrCorrupt = errors.New("stored book is corrupt")

// Load reads the book at path. It returns (nil, nil) when the file does not
// exist, an error wrapping ErrCorrupt when the content does not decode and
// any other read error as is. Only the schema is checked; a book whose
// entries disagree with each other still loads, see studybook.Book.Validate.
func Load(path string) (*studybook.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	return decode(f, path)
}

func decode(r io.Reader, name string) (*studybook.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read book %s: %w", name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var b studybook.Book
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after book", ErrCorrupt, name)
	}
	return &b, nil
}

// Save writes b to path. The file is replaced atomically: the book is
// written to a temporary file in the same directory and renamed over path.
func Save(path string, b *studybook.Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create book directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
