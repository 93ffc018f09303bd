package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/credentials"
	"github.com/kxue43/appkit/deploy"
	"github.com/kxue43/appkit/manual"
	"github.com/kxue43/appkit/options"
)

const deployConfig = `
host = "app.example.com"
user = "deploy"
stage = "production"
linked_files = ["config/master.key"]
`

func (h *harness) withDeployConfig(t *testing.T) {
	t.Helper()

	path := filepath.Join(h.home, "deploy.toml")
	require.NoError(t, os.WriteFile(path, []byte(deployConfig), 0600))

	h.env[deploy.ConfigPathEnv] = path
}

func TestDeploy(t *testing.T) {
	t.Run("environment missing", func(t *testing.T) {
		h := newHarness(t, "cap")
		h.cwd = h.newProject()

		assert.Equal(t, apperr.ExitGeneric, h.run("deploy", "--yes"))
		assert.Contains(t, h.stderr.String(), "APPKIT_DEPLOY_CONFIG is not set")
		assert.Contains(t, h.stderr.String(), "hint: export APPKIT_DEPLOY_CONFIG=")
		assert.Empty(t, h.runner.Calls)
	})

	t.Run("environment points nowhere", func(t *testing.T) {
		h := newHarness(t, "cap")
		h.cwd = h.newProject()
		h.env[deploy.ConfigPathEnv] = filepath.Join(h.home, "missing.toml")

		assert.Equal(t, apperr.ExitGeneric, h.run("deploy", "--yes"))
		assert.Empty(t, h.runner.Calls)
	})

	t.Run("environment is checked before the project", func(t *testing.T) {
		h := newHarness(t, "cap")

		assert.Equal(t, apperr.ExitGeneric, h.run("deploy"))
		assert.Contains(t, h.stderr.String(), "APPKIT_DEPLOY_CONFIG")
	})

	t.Run("pauses and runs the deploy tool", func(t *testing.T) {
		h := newHarness(t, "cap")
		root := h.newProject()
		h.cwd = root
		h.withDeployConfig(t)
		h.stdin = "\n"

		require.Equal(t, apperr.ExitOK, h.run("deploy", "--stage", "staging"), h.stderr.String())

		assert.Contains(t, h.stdout.String(), "deploy@app.example.com:22")
		assert.Contains(t, h.stdout.String(), "Press enter")
		assert.Equal(t, []string{"cap staging deploy"}, h.runner.Invoked())
		assert.Equal(t, root, h.runner.Calls[0].Dir)
		assert.NotContains(t, h.load(root), options.KeyStage)
	})

	t.Run("interrupt at the pause aborts", func(t *testing.T) {
		h := newHarness(t, "cap")
		h.cwd = h.newProject()
		h.withDeployConfig(t)

		pr, pw := io.Pipe()
		t.Cleanup(func() { _ = pw.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h.stdout.Reset()
		h.stderr.Reset()

		done := make(chan int, 1)

		go func() {
			done <- h.app().Run(ctx, []string{"deploy"}, pr, &h.stdout, &h.stderr)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case code := <-done:
			assert.Equal(t, apperr.ExitInterrupted, code)
		case <-time.After(3 * time.Second):
			require.FailNow(t, "deploy did not stop after the interrupt")
		}

		assert.Contains(t, h.stderr.String(), "interrupted")
		assert.Empty(t, h.runner.Calls)
	})

	t.Run("deploy tool status is the exit code", func(t *testing.T) {
		h := newHarness(t, "cap")
		h.cwd = h.newProject()
		h.withDeployConfig(t)
		h.runner.Statuses["cap"] = 9

		assert.Equal(t, 9, h.run("deploy", "-y"))
		assert.Equal(t, []string{"cap production deploy"}, h.runner.Invoked())
	})
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	root := h.newProject()
	h.cwd = root
	h.withDeployConfig(t)

	require.Equal(t, apperr.ExitOK, h.run("profile", "--stage", "staging"), h.stderr.String())

	assert.FileExists(t, deploy.ProfilePath(root, "staging"))
	assert.Equal(t, "staging", h.load(root)[options.KeyStage])

	contents, err := os.ReadFile(deploy.ProfilePath(root, "staging"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "host: app.example.com")
	assert.Contains(t, string(contents), "app: my_app")
	assert.NotContains(t, string(contents), "linked_files")

	// the recorded stage is reused by the next deploy
	h.stdin = "\n"
	h.runner.Paths["cap"] = "/usr/bin/cap"

	require.Equal(t, apperr.ExitOK, h.run("deploy"), h.stderr.String())
	assert.Equal(t, []string{"cap staging deploy"}, h.runner.Invoked())
}

func TestProfileStageStaysInProject(t *testing.T) {
	h := newHarness(t, "cap")
	root := h.newProject()
	h.cwd = root
	h.withDeployConfig(t)

	before := h.document(root)

	assert.Equal(t, apperr.ExitUsage, h.run("profile", "--stage", "../../x"))
	assert.Contains(t, h.stderr.String(), "invalid deploy stage")
	assert.NoFileExists(t, filepath.Join(root, "x.yaml"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "x.yaml"))
	assert.Equal(t, before, h.document(root))

	assert.Equal(t, apperr.ExitUsage, h.run("deploy", "--yes", "--stage", "a/b"))
	assert.Empty(t, h.runner.Calls)
}

func TestConfig(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		h := newHarness(t)
		h.cwd = h.newProject("--key", "secret-1234")

		require.Equal(t, apperr.ExitOK, h.run("config"), h.stderr.String())

		out := h.stdout.String()
		assert.Contains(t, out, "my_app")
		assert.Contains(t, out, "*******1234")
		assert.NotContains(t, out, "secret-1234")
		assert.Contains(t, out, "bento/ubuntu-24.04")
		assert.Contains(t, out, "default")
	})

	t.Run("set", func(t *testing.T) {
		h := newHarness(t)
		root := h.newProject()
		h.cwd = root

		code := h.run("config", "--set", "cpus=6", "--set", "vm_box=org/box,v2", "--set", "tls=true")
		require.Equal(t, apperr.ExitOK, code, h.stderr.String())

		opts := h.load(root)
		assert.Equal(t, 6, opts[options.KeyCPUs])
		assert.Equal(t, "org/box,v2", opts[options.KeyVMBox])
		assert.Equal(t, true, opts["tls"])
		assert.Equal(t, "My-App", opts[options.KeyName])
	})

	t.Run("session-only keys are rejected", func(t *testing.T) {
		h := newHarness(t)
		root := h.newProject()
		h.cwd = root

		before := h.document(root)

		assert.Equal(t, apperr.ExitUsage, h.run("config", "--set", "force=true"))
		assert.Equal(t, apperr.ExitUsage, h.run("config", "--set", "novalue"))
		assert.Equal(t, before, h.document(root))
	})
}

func TestParseAssignment(t *testing.T) {
	var tests = []struct {
		in    string
		key   string
		value any
	}{
		{in: "cpus=4", key: "cpus", value: 4},
		{in: "tls=false", key: "tls", value: false},
		{in: "box=a=b", key: "box", value: "a=b"},
		{in: " name =x", key: "name", value: "x"},
		{in: "empty=", key: "empty", value: ""},
	}

	for _, test := range tests {
		key, value, err := ParseAssignment(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.key, key)
		assert.Equal(t, test.value, value)
	}

	for _, bad := range []string{"", "=x", "cpus", "root=/tmp"} {
		_, _, err := ParseAssignment(bad)
		assert.Equal(t, apperr.EUsage, apperr.CodeOf(err), bad)
	}
}

func TestKey(t *testing.T) {
	t.Run("outside a project", func(t *testing.T) {
		h := newHarness(t)

		require.Equal(t, apperr.ExitOK, h.run("key", "k-1"), h.stderr.String())

		key, err := credentials.FileStore{Path: filepath.Join(h.home, "keyring", "license")}.Get()
		require.NoError(t, err)
		assert.Equal(t, "k-1", key)
		assert.NoDirExists(t, filepath.Join(h.cwd, options.Dir))
	})

	t.Run("inside a project", func(t *testing.T) {
		h := newHarness(t)
		root := h.newProject()
		h.cwd = root

		require.Equal(t, apperr.ExitOK, h.run("key", "k-2"), h.stderr.String())
		assert.Equal(t, "k-2", h.load(root)[options.KeyKey])
		assert.Contains(t, h.stdout.String(), "recorded for")
	})

	t.Run("no keyring and no HOME", func(t *testing.T) {
		keyring.MockInitWithError(errors.New("no dbus session"))

		defer keyring.MockInit()

		h := newHarness(t)
		h.env["HOME"] = ""

		app := h.app()
		app.Credentials = nil

		code := app.Run(context.Background(), []string{"key", "k-4"}, strings.NewReader(""), &h.stdout, &h.stderr)

		assert.Equal(t, apperr.ExitGeneric, code)
		assert.Contains(t, h.stderr.String(), "HOME is not set")
		assert.NoDirExists(t, filepath.Join(h.cwd, ".appkit"))
	})

	t.Run("explicit root must be a project", func(t *testing.T) {
		h := newHarness(t)

		assert.Equal(t, apperr.ExitGeneric, h.run("key", "k-3", "--root", h.cwd))
		assert.Contains(t, h.stderr.String(), "is not an appkit project")
	})
}

func TestSources(t *testing.T) {
	var opened []string

	old := openURL
	openURL = func(u string) error {
		opened = append(opened, u)

		return nil
	}

	t.Cleanup(func() { openURL = old })

	t.Run("community", func(t *testing.T) {
		h := newHarness(t)
		h.cwd = h.newProject()

		require.Equal(t, apperr.ExitOK, h.run("sources", "--open"), h.stderr.String())
		assert.Equal(t, "https://packages.appkit.dev/community/go\n", h.stdout.String())
		assert.Equal(t, []string{"https://packages.appkit.dev/community/go"}, opened)
	})

	t.Run("enterprise", func(t *testing.T) {
		h := newHarness(t)
		h.cwd = h.newProject("--enterprise", "--key", "k-9")

		require.Equal(t, apperr.ExitOK, h.run("sources"), h.stderr.String())
		assert.Equal(t, "https://k-9@packages.appkit.dev/enterprise/go\nhttps://packages.appkit.dev/community/go\n", h.stdout.String())
	})
}

func TestHelp(t *testing.T) {
	t.Run("bundled document", func(t *testing.T) {
		h := newHarness(t)

		require.Equal(t, apperr.ExitOK, h.run("help", "vm"), h.stderr.String())
		assert.Contains(t, h.stdout.String(), "# appkit vm")
		assert.Empty(t, h.runner.Calls)
	})

	t.Run("man page", func(t *testing.T) {
		h := newHarness(t, manual.Viewer)

		dir := filepath.Join(h.home, "share", "man", "man1")
		require.NoError(t, os.MkdirAll(dir, 0750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "appkit-deploy.1"), []byte(".TH\n"), 0644))

		require.Equal(t, apperr.ExitOK, h.run("help", "deploy"), h.stderr.String())
		assert.Equal(t, []string{"man " + filepath.Join(dir, "appkit-deploy.1")}, h.runner.Invoked())
	})

	t.Run("generic usage", func(t *testing.T) {
		h := newHarness(t)

		require.Equal(t, apperr.ExitOK, h.run("help"), h.stderr.String())
		assert.Contains(t, h.stdout.String(), "Usage: appkit")
		assert.Contains(t, h.stdout.String(), "provision")

		require.Equal(t, apperr.ExitOK, h.run("help", "frobnicate"), h.stderr.String())
		assert.Contains(t, h.stdout.String(), "Usage: appkit")
	})

	t.Run("web", func(t *testing.T) {
		var page []byte

		old := manual.OpenReader
		manual.OpenReader = func(r io.Reader) error {
			var err error
			page, err = io.ReadAll(r)

			return err
		}

		t.Cleanup(func() { manual.OpenReader = old })

		h := newHarness(t)

		require.Equal(t, apperr.ExitOK, h.run("help", "profile", "--web"), h.stderr.String())
		assert.Contains(t, string(page), "APPKIT_DEPLOY_CONFIG")

		assert.Equal(t, apperr.ExitUsage, h.run("help", "frobnicate", "--web"))
	})
}
