package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/options"
)

type (
	// ServerSettings adapts the deploy configuration to what a server profile needs:
	// a host name, a login user and a key.
	ServerSettings struct {
		host    string
		user    string
		keyFile string
		port    int
	}

	Profile struct {
		Stage    string   `yaml:"stage"`
		App      string   `yaml:"app"`
		Host     string   `yaml:"host"`
		User     string   `yaml:"user"`
		KeyFile  string   `yaml:"key_file,omitempty"`
		DeployTo string   `yaml:"deploy_to"`
		Roles    []string `yaml:"roles"`
		Port     int      `yaml:"port"`
	}
)

const ProfileDir = "config/deploy"

func NewServerSettings() *ServerSettings {
	return &ServerSettings{port: DefaultPort}
}

func (s *ServerSettings) Hostname(host string) *ServerSettings {
	s.host = host

	return s
}

func (s *ServerSettings) User(user string) *ServerSettings {
	s.user = user

	return s
}

func (s *ServerSettings) Key(path string) *ServerSettings {
	s.keyFile = path

	return s
}

func (s *ServerSettings) Port(port int) *ServerSettings {
	if port > 0 {
		s.port = port
	}

	return s
}

// Target is the ssh style address, e.g. deploy@app.example.com:22.
func (s *ServerSettings) Target() string {
	host := s.host + ":" + strconv.Itoa(s.port)
	if s.user == "" {
		return host
	}

	return s.user + "@" + host
}

// Env exposes the settings to the deploy tool.
func (s *ServerSettings) Env() map[string]string {
	env := map[string]string{
		"APPKIT_DEPLOY_HOST": s.host,
		"APPKIT_DEPLOY_PORT": strconv.Itoa(s.port),
	}

	if s.user != "" {
		env["APPKIT_DEPLOY_USER"] = s.user
	}

	if s.keyFile != "" {
		env["APPKIT_DEPLOY_KEY"] = s.keyFile
	}

	return env
}

func SettingsFromConfig(cfg Config) *ServerSettings {
	return NewServerSettings().Hostname(cfg.Host).User(cfg.User).Key(cfg.KeyFile).Port(cfg.Port)
}

// NewProfile combines the server settings with the project's effective context.
func NewProfile(cfg Config, ctx options.Context) Profile {
	s := SettingsFromConfig(cfg)
	app := ctx.String(options.KeyIdentifier, "app")

	deployTo := cfg.DeployTo
	if deployTo == "" {
		deployTo = "/srv/" + app
	}

	return Profile{
		Stage:    ctx.String(options.KeyStage, cfg.Stage),
		App:      app,
		Host:     s.host,
		User:     s.user,
		KeyFile:  s.keyFile,
		Port:     s.port,
		DeployTo: deployTo,
		Roles:    cfg.Roles,
	}
}

// CheckStage rejects stage names that are not a single path element.
func CheckStage(stage string) error {
	if stage == "" || stage == "." || stage == ".." || strings.ContainsAny(stage, `/\`) || strings.Contains(stage, "..") {
		return apperr.Usage("invalid deploy stage %q; use a plain name such as production", stage)
	}

	return nil
}

func ProfilePath(root, stage string) string {
	return filepath.Join(root, ProfileDir, stage+".yaml")
}

// WriteProfile replaces config/deploy/<stage>.yaml under root.
func WriteProfile(root string, p Profile) (string, error) {
	if err := CheckStage(p.Stage); err != nil {
		return "", err
	}

	contents, err := yaml.Marshal(&p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal server profile: %w", err)
	}

	path := ProfilePath(root, p.Stage)

	if err = os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", filepath.Dir(path), err)
	}

	if err = os.WriteFile(path, contents, 0644); err != nil {
		return "", fmt.Errorf("failed to write server profile %q: %w", path, err)
	}

	return path, nil
}
