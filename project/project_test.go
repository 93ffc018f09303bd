package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/options"
)

func fixedWd(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestSanitizeName(t *testing.T) {
	var tests = []struct {
		in       string
		expected string
	}{
		{in: "My-App", expected: "my_app"},
		{in: "my_app/", expected: "my_app"},
		{in: "shop--front end", expected: "shop_front_end"},
		{in: "Billing.Service", expected: "billingservice"},
		{in: "42things", expected: "app_42things"},
		{in: "-edge-", expected: "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := SanitizeName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}

	_, err := SanitizeName("///")
	require.Error(t, err)
	assert.Equal(t, apperr.UserInput, apperr.KindOf(err))
}

func TestResolveNew(t *testing.T) {
	t.Run("defaults to a directory named after the project", func(t *testing.T) {
		cwd := t.TempDir()

		root, err := Resolve(Request{Getwd: fixedWd(cwd), Name: "My-App"})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(cwd, "my_app"), root.Path)
		assert.Equal(t, "my_app", root.Identifier)
		assert.False(t, root.Existing)
	})

	t.Run("explicit root wins", func(t *testing.T) {
		cwd := t.TempDir()

		root, err := Resolve(Request{Getwd: fixedWd(cwd), Name: "shop", Root: "srv/shop"})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(cwd, "srv/shop"), root.Path)
		assert.Equal(t, "shop", root.Identifier)
	})

	t.Run("existing document at target", func(t *testing.T) {
		cwd := t.TempDir()
		target := filepath.Join(cwd, "shop")

		require.NoError(t, options.Save(target, options.Options{"name": "shop"}))

		before, err := os.ReadFile(options.Path(target))
		require.NoError(t, err)

		_, err = Resolve(Request{Getwd: fixedWd(cwd), Name: "shop"})
		require.Error(t, err)
		assert.Equal(t, apperr.EAlreadyExists, apperr.CodeOf(err))

		after, err := os.ReadFile(options.Path(target))
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("nesting inside an existing project", func(t *testing.T) {
		cwd := t.TempDir()

		require.NoError(t, options.Save(cwd, options.Options{"name": "outer"}))

		_, err := Resolve(Request{Getwd: fixedWd(cwd), Name: "inner"})
		require.Error(t, err)
		assert.Equal(t, apperr.EAlreadyExists, apperr.CodeOf(err))

		_, err = os.Stat(filepath.Join(cwd, "inner"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestResolveInPlace(t *testing.T) {
	t.Run("not a project", func(t *testing.T) {
		cwd := t.TempDir()

		_, err := Resolve(Request{Getwd: fixedWd(cwd), InPlace: true})
		require.Error(t, err)
		assert.Equal(t, apperr.ENotAProject, apperr.CodeOf(err))

		_, err = os.Stat(filepath.Join(cwd, options.Dir))
		assert.True(t, os.IsNotExist(err), "the guard must not create anything")
	})

	t.Run("cwd is a project", func(t *testing.T) {
		cwd := t.TempDir()

		require.NoError(t, options.Save(cwd, options.Options{"name": "shop", "identifier": "shop"}))

		root, opts, err := Open(Request{Getwd: fixedWd(cwd)})
		require.NoError(t, err)

		assert.Equal(t, cwd, root.Path)
		assert.Equal(t, "shop", root.Identifier)
		assert.True(t, root.Existing)
		assert.Equal(t, "shop", opts["name"])
	})

	t.Run("root override", func(t *testing.T) {
		cwd := t.TempDir()
		other := t.TempDir()

		require.NoError(t, options.Save(other, options.Options{"name": "x"}))

		root, err := Resolve(Request{Getwd: fixedWd(cwd), Root: other, InPlace: true})
		require.NoError(t, err)
		assert.Equal(t, other, root.Path)
	})
}
