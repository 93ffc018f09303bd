// Package jsonstream pulls a single scalar out of a JSON document without decoding the rest of it.
package jsonstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type (
	// Path is a dotted key path such as ".assets.name". Keys may be empty or contain spaces,
	// but not dots.
	Path []string

	Seeker struct {
		dec  *json.Decoder
		path Path
		seen strings.Builder
	}
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNotScalar   = errors.New("value is not a scalar")
)

func ParsePath(path string) (Path, error) {
	if !strings.HasPrefix(path, ".") {
		return nil, fmt.Errorf(`path %q must start with "."`, path)
	}

	if path == "." || strings.HasSuffix(path, ".") {
		return nil, fmt.Errorf(`path %q must not end with "."`, path)
	}

	return strings.Split(path, ".")[1:], nil
}

func (p Path) String() string {
	var b strings.Builder

	for _, k := range p {
		b.WriteString(".")
		b.WriteString(quoteKey(k))
	}

	return b.String()
}

func quoteKey(k string) string {
	if k == "" || strings.Contains(k, " ") {
		return `"` + k + `"`
	}

	return k
}

func NewSeeker(r io.Reader, path string) (*Seeker, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	return &Seeker{dec: dec, path: p}, nil
}

// Seek walks down the path and returns the scalar found there. Numbers come back as json.Number.
func (s *Seeker) Seek(ctx context.Context) (any, error) {
	for _, key := range s.path {
		if err := s.enter(ctx, key); err != nil {
			return nil, err
		}
	}

	t, err := s.dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read the value at %q: %w", s.seen.String(), err)
	}

	if _, ok := t.(json.Delim); ok {
		return nil, fmt.Errorf("%w: %q", ErrNotScalar, s.seen.String())
	}

	return t, nil
}

// enter consumes tokens of the current object up to and including key.
func (s *Seeker) enter(ctx context.Context, key string) error {
	where := s.seen.String()
	if where == "" {
		where = "."
	}

	t, err := s.dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read the value at %q: %w", where, err)
	}

	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("the value at %q is not a JSON object", where)
	}

	s.seen.WriteString("." + quoteKey(key))

	for s.dec.More() {
		if err = context.Cause(ctx); err != nil {
			return fmt.Errorf("stopped looking for %q: %w", s.seen.String(), err)
		}

		if t, err = s.dec.Token(); err != nil {
			return fmt.Errorf("failed to read key while looking for %q: %w", s.seen.String(), err)
		}

		if name, ok := t.(string); ok && name == key {
			return nil
		}

		if err = s.skip(); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %q", ErrKeyNotFound, s.seen.String())
}

// skip consumes one whole value, however deeply nested.
func (s *Seeker) skip() error {
	depth := 0

	for {
		t, err := s.dec.Token()
		if err != nil {
			return fmt.Errorf("failed to skip value while looking for %q: %w", s.seen.String(), err)
		}

		if d, ok := t.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			default:
				depth--
			}
		}

		if depth == 0 {
			return nil
		}
	}
}

// String returns the string found at path in r.
func String(ctx context.Context, r io.Reader, path string) (string, error) {
	s, err := NewSeeker(r, path)
	if err != nil {
		return "", err
	}

	v, err := s.Seek(ctx)
	if err != nil {
		return "", err
	}

	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("the value at %q is %v, not a string", path, v)
	}

	return str, nil
}
