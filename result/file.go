package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes s as an indented JSON array.
func Encode(w io.Writer, s *Set) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(s)
}

// Decode reads a JSON array of measurements.
func Decode(r io.Reader) (*Set, error) {
	s := NewSet()
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	return s, nil
}

// WriteFile serializes s to path. The file is only replaced once encoding
// has succeeded.
func WriteFile(path string, s *Set) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrSerialization, path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSerialization, path, err)
	}

	return nil
}

// ReadFile loads a result set from path.
func ReadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSerialization, path, err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSerialization, path, err)
	}

	return s, nil
}
