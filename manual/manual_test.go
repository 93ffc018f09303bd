package manual

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/ui"
)

func installPage(t *testing.T, dir, command string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0750))

	path := filepath.Join(dir, PagePrefix+command+".1")
	require.NoError(t, os.WriteFile(path, []byte(".TH APPKIT\n"), 0644))

	return path
}

func TestManDirs(t *testing.T) {
	getenv := func(string) string { return "/opt/man" + string(filepath.ListSeparator) + " " }

	dirs := ManDirs(getenv, "/usr/local/bin/appkit")

	assert.Equal(t, []string{
		filepath.Join("/opt/man", "man1"),
		"/opt/man",
		filepath.Join("/usr/local/bin", "..", "share", "man", "man1"),
	}, dirs)

	assert.Empty(t, ManDirs(func(string) string { return "" }, ""))
}

func TestFindPage(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	want := installPage(t, second, "vm")

	path, ok := FindPage([]string{first, second}, "vm")
	require.True(t, ok)
	assert.Equal(t, want, path)

	_, ok = FindPage([]string{first, second}, "deploy")
	assert.False(t, ok)
}

func TestShow(t *testing.T) {
	base := t.TempDir()
	exe := filepath.Join(base, "bin", "appkit")
	page := installPage(t, filepath.Join(base, "share", "man", "man1"), "vm")

	noEnv := func(string) string { return "" }

	t.Run("man page with man", func(t *testing.T) {
		r := gateway.NewStubRunner(Viewer)

		shown, err := Show(context.Background(), r, ui.Discard(), Request{Getenv: noEnv, Command: "vm", Executable: exe})
		require.NoError(t, err)
		assert.Equal(t, ManPage, shown)
		assert.Equal(t, []string{"man " + page}, r.Invoked())
	})

	t.Run("man page without man", func(t *testing.T) {
		var out, errOut bytes.Buffer

		sink := ui.New(ui.Config{Out: &out, Err: &errOut})

		shown, err := Show(context.Background(), gateway.NewStubRunner(), sink, Request{Getenv: noEnv, Command: "vm", Executable: exe})
		require.NoError(t, err)
		assert.Equal(t, Text, shown)
		assert.Contains(t, errOut.String(), "warning:")
		assert.Contains(t, out.String(), "# appkit vm")
	})

	t.Run("no man page", func(t *testing.T) {
		var out bytes.Buffer

		r := gateway.NewStubRunner(Viewer)

		shown, err := Show(context.Background(), r, ui.New(ui.Config{Out: &out, Err: io.Discard}), Request{Getenv: noEnv, Command: "deploy", Executable: exe})
		require.NoError(t, err)
		assert.Equal(t, Text, shown)
		assert.Empty(t, r.Invoked())
		assert.Contains(t, out.String(), "APPKIT_DEPLOY_CONFIG")
	})

	t.Run("nothing at all", func(t *testing.T) {
		shown, err := Show(context.Background(), gateway.NewStubRunner(Viewer), ui.Discard(), Request{Getenv: noEnv, Command: "frobnicate"})
		require.NoError(t, err)
		assert.Equal(t, Nothing, shown)
	})

	t.Run("man fails", func(t *testing.T) {
		r := gateway.NewStubRunner(Viewer)
		r.Statuses[Viewer] = 16

		_, err := Show(context.Background(), r, ui.Discard(), Request{Getenv: noEnv, Command: "vm", Executable: exe})
		require.Error(t, err)
	})
}

func TestDoc(t *testing.T) {
	for _, c := range Commands() {
		contents, err := Doc(c)
		require.NoError(t, err)
		assert.Contains(t, string(contents), "# appkit "+c)
	}

	assert.Contains(t, Commands(), "new")

	_, err := Doc("../go")
	require.ErrorIs(t, err, ErrNoDoc)
}

func TestShowWeb(t *testing.T) {
	var opened bytes.Buffer

	old := OpenReader
	OpenReader = func(r io.Reader) error {
		_, err := io.Copy(&opened, r)

		return err
	}

	t.Cleanup(func() { OpenReader = old })

	require.NoError(t, ShowWeb("new"))

	page := opened.String()
	assert.Contains(t, page, "<title>appkit new</title>")
	assert.Contains(t, page, `<h1 id="appkit-new">appkit new</h1>`)
	assert.Contains(t, page, "<table>")

	require.ErrorIs(t, ShowWeb("frobnicate"), ErrNoDoc)
}
