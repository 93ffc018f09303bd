// Package credentials stores the AppKit license key: in the operating system's credential store
// when one is available, otherwise in a file under the user's home directory.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/ui"
)

type (
	Store interface {
		Get() (string, error)
		Set(key string) error
		String() string
	}

	KeyringStore struct {
		service string
		user    string
	}

	FileStore struct {
		Path string
	}

	// Chain prefers Primary and falls back to Fallback when Primary is unusable.
	Chain struct {
		Primary  Store
		Fallback Store
		sink     *ui.Sink
	}
)

const (
	Service  = "appkit"
	fileName = "license_key"
)

var ErrNoKey = errors.New("no license key has been stored")

func NewKeyringStore(service, user string) KeyringStore {
	return KeyringStore{service: service, user: user}
}

func (s KeyringStore) Get() (string, error) {
	key, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoKey
	} else if err != nil {
		return "", fmt.Errorf("failed to read license key from the OS keyring: %w", err)
	}

	return key, nil
}

func (s KeyringStore) Set(key string) error {
	if err := keyring.Set(s.service, s.user, key); err != nil {
		return fmt.Errorf("failed to save license key to the OS keyring: %w", err)
	}

	return nil
}

func (s KeyringStore) String() string {
	return "the OS keyring"
}

// DefaultFilePath is ~/.appkit/license_key for the given home directory. It is empty when home is.
func DefaultFilePath(home string) string {
	if strings.TrimSpace(home) == "" {
		return ""
	}

	return filepath.Join(home, ".appkit", fileName)
}

func (s FileStore) Get() (string, error) {
	if s.Path == "" {
		return "", ErrNoKey
	}

	contents, err := os.ReadFile(filepath.Clean(s.Path))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoKey
	} else if err != nil {
		return "", fmt.Errorf("failed to read license key file %q: %w", s.Path, err)
	}

	key := strings.TrimSpace(string(contents))
	if key == "" {
		return "", ErrNoKey
	}

	return key, nil
}

func (s FileStore) Set(key string) error {
	if s.Path == "" {
		return apperr.EnvMissing("HOME is not set, so the license key cannot be stored outside the OS keyring").
			WithHint("set HOME, or make an OS keyring available")
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", s.Path, err)
	}

	if err := os.WriteFile(filepath.Clean(s.Path), []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write license key file %q: %w", s.Path, err)
	}

	return nil
}

func (s FileStore) String() string {
	if s.Path == "" {
		return "~/.appkit/" + fileName
	}

	return s.Path
}

func NewChain(primary, fallback Store, sink *ui.Sink) *Chain {
	return &Chain{Primary: primary, Fallback: fallback, sink: sink}
}

// Set stores key and returns where it went.
func (c *Chain) Set(key string) (Store, error) {
	err := c.Primary.Set(key)
	if err == nil {
		return c.Primary, nil
	}

	c.sink.Warn("%s; storing the key in %s instead", err.Error(), c.Fallback)

	if err = c.Fallback.Set(key); err != nil {
		return nil, err
	}

	return c.Fallback, nil
}

// Get returns the first key found. A broken primary degrades to the fallback with a warning.
func (c *Chain) Get() (string, error) {
	key, err := c.Primary.Get()
	if err == nil {
		return key, nil
	}

	if !errors.Is(err, ErrNoKey) {
		c.sink.Warn("%s", err.Error())
	}

	return c.Fallback.Get()
}
