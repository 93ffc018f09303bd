package options

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/kxue43/appkit/apperr"
)

var ErrNotFound = errors.New("options document not found")

func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Exists reports whether root holds an options document, without parsing it.
func Exists(root string) (bool, error) {
	info, err := os.Stat(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat %q: %w", Path(root), err)
	}

	return !info.IsDir(), nil
}

// Load reads the options document under root. A missing document wraps [ErrNotFound];
// an unreadable one is an [apperr.EConfigCorrupt] error.
func Load(root string) (Options, error) {
	path := Path(root)

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return Decode(path, contents)
}

// Decode parses a document; path only labels errors.
func Decode(path string, contents []byte) (Options, error) {
	if len(bytes.TrimSpace(contents)) == 0 {
		return nil, apperr.ConfigCorrupt(path, errors.New("document is empty"))
	}

	var raw map[string]any

	if err := yaml.Unmarshal(contents, &raw); err != nil {
		return nil, apperr.ConfigCorrupt(path, err)
	}

	if raw == nil && !bytes.Equal(bytes.TrimSpace(contents), []byte("{}")) {
		return nil, apperr.ConfigCorrupt(path, errors.New("top level is not a mapping"))
	}

	opts := make(Options, len(raw))
	for k, v := range raw {
		opts[k] = normalize(v)
	}

	return opts, nil
}

// Encode renders opts with sorted keys so that an unchanged document is byte-identical.
func Encode(opts Options) ([]byte, error) {
	if len(opts) == 0 {
		return []byte("{}\n"), nil
	}

	contents, err := yaml.Marshal(toMapSlice(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}

	return contents, nil
}

// Save replaces the document under root with opts minus excluded and minus [SessionOnly].
func Save(root string, opts Options, excluded ...string) error {
	persisted := opts.Without(SessionOnly...).Without(excluded...)

	contents, err := Encode(persisted)
	if err != nil {
		return err
	}

	dir := filepath.Join(root, Dir)
	if err = os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	return writeFileAtomic(Path(root), contents, 0644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	fd, err := os.CreateTemp(filepath.Dir(path), ".app_options-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file next to %q: %w", path, err)
	}

	tmpPath := fd.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = fd.Write(data); err != nil {
		_ = fd.Close()

		return fmt.Errorf("failed to write %q: %w", tmpPath, err)
	}

	if err = fd.Close(); err != nil {
		return fmt.Errorf("failed to close %q after writing: %w", tmpPath, err)
	}

	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %q: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}

	return nil
}

func toMapSlice(m map[string]any) yaml.MapSlice {
	keys := Options(m).Keys()

	out := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		out = append(out, yaml.MapItem{Key: k, Value: encodable(m[k])})
	}

	return out
}

func encodable(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return toMapSlice(t)
	case Options:
		return toMapSlice(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = encodable(t[i])
		}

		return out
	default:
		return v
	}
}

// normalize folds the integer types the decoder may produce into int and nested maps into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case int32:
		return int(t)
	case uint32:
		return int(t)
	case uint:
		return int(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}

		return out
	default:
		return v
	}
}
