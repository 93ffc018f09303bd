// Package deploy reads the deploy configuration, writes per-stage server profiles and hands the
// actual deployment to an external deploy tool.
package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/ui"
)

// Config holds the settings appkit understands. Anything else in the file is dropped.
type Config struct {
	Stage    string   `toml:"stage"`
	Host     string   `toml:"host"`
	User     string   `toml:"user"`
	KeyFile  string   `toml:"key_file"`
	Tool     string   `toml:"tool"`
	DeployTo string   `toml:"deploy_to"`
	Roles    []string `toml:"roles"`
	Port     int      `toml:"port"`
}

const (
	ConfigPathEnv = "APPKIT_DEPLOY_CONFIG"

	DefaultStage = "production"
	DefaultTool  = "cap"
	DefaultPort  = 22
)

// ConfigPath returns the deploy configuration named by the environment. It fails before anything
// else happens when the variable is unset or names a file that does not exist.
func ConfigPath(getenv func(string) string) (string, error) {
	path := strings.TrimSpace(getenv(ConfigPathEnv))
	if path == "" {
		return "", apperr.EnvMissing(ConfigPathEnv + " is not set").
			WithHint("export " + ConfigPathEnv + "=/path/to/deploy.toml")
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.EnvMissing(fmt.Sprintf("%s points to %s, which does not exist", ConfigPathEnv, path))
	} else if err != nil {
		return "", apperr.EnvInvalid(fmt.Sprintf("cannot access %s", path), err)
	} else if info.IsDir() {
		return "", apperr.EnvInvalid(fmt.Sprintf("%s points to a directory", ConfigPathEnv), nil)
	}

	return path, nil
}

// LoadConfig decodes the file at path. Unknown keys are dropped with a debug note.
func LoadConfig(path string, sink *ui.Sink) (Config, error) {
	var cfg Config

	md, err := toml.DecodeFile(filepath.Clean(path), &cfg)
	if err != nil {
		return Config{}, apperr.EnvInvalid(fmt.Sprintf("deploy configuration %s is invalid", path), err)
	}

	for _, key := range md.Undecoded() {
		sink.Debug("dropping unknown deploy setting", zap.String("key", key.String()), zap.String("file", path))
	}

	cfg.applyDefaults()

	if cfg.Host == "" {
		return Config{}, apperr.EnvInvalid(fmt.Sprintf("deploy configuration %s has no host", path), nil)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Stage == "" {
		c.Stage = DefaultStage
	}

	if c.Tool == "" {
		c.Tool = DefaultTool
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if len(c.Roles) == 0 {
		c.Roles = []string{"app", "web"}
	}
}

// Load is ConfigPath followed by LoadConfig.
func Load(getenv func(string) string, sink *ui.Sink) (Config, error) {
	path, err := ConfigPath(getenv)
	if err != nil {
		return Config{}, err
	}

	return LoadConfig(path, sink)
}
