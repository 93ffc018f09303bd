// Package project resolves the root directory an invocation works on.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/options"
)

type (
	// Request describes where the user wants to work.
	// Root is the --root override; Name is only used for new projects.
	Request struct {
		Getwd   func() (string, error)
		Root    string
		Name    string
		InPlace bool
	}

	Root struct {
		Path       string
		Identifier string
		Existing   bool
	}
)

var (
	separatorRun = regexp.MustCompile(`[\s\-_]+`)
	disallowed   = regexp.MustCompile(`[^a-z0-9_]`)
	leadingDigit = regexp.MustCompile(`^[0-9]`)
)

// SanitizeName turns a user supplied project name into an identifier that is safe both as a
// directory name and as a Go package name. "My-App/" becomes "my_app".
func SanitizeName(name string) (string, error) {
	id := strings.TrimRight(strings.TrimSpace(name), `/\`)
	id = strings.ToLower(id)
	id = separatorRun.ReplaceAllString(id, "_")
	id = disallowed.ReplaceAllString(id, "")
	id = strings.Trim(id, "_")

	if id == "" {
		return "", apperr.Usage("%q does not contain any usable characters for a project name", name)
	}

	if leadingDigit.MatchString(id) {
		id = "app_" + id
	}

	return id, nil
}

func (r Request) getwd() (string, error) {
	getwd := r.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}

	cwd, err := getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	return cwd, nil
}

func (r Request) absolute(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(cwd, path)
}

// Resolve binds the project root for this run. In-place requests require an options document at the
// root; new-project requests require its absence at the root and at the root's parent.
func Resolve(r Request) (Root, error) {
	cwd, err := r.getwd()
	if err != nil {
		return Root{}, err
	}

	if r.InPlace {
		return resolveExisting(r, cwd)
	}

	return resolveNew(r, cwd)
}

func resolveExisting(r Request, cwd string) (Root, error) {
	path := cwd
	if r.Root != "" {
		path = r.absolute(cwd, r.Root)
	}

	ok, err := options.Exists(path)
	if err != nil {
		return Root{}, err
	} else if !ok {
		return Root{}, apperr.NotAProject(path)
	}

	return Root{Path: path, Existing: true}, nil
}

func resolveNew(r Request, cwd string) (Root, error) {
	id, err := SanitizeName(r.Name)
	if err != nil {
		return Root{}, err
	}

	path := filepath.Join(cwd, id)
	if r.Root != "" {
		path = r.absolute(cwd, r.Root)
	}

	for _, dir := range []string{path, filepath.Dir(path)} {
		ok, err := options.Exists(dir)
		if err != nil {
			return Root{}, err
		} else if ok {
			return Root{}, apperr.AlreadyExists(dir)
		}
	}

	return Root{Path: path, Identifier: id}, nil
}

// Open resolves an existing project and loads its options document.
func Open(r Request) (Root, options.Options, error) {
	r.InPlace = true

	root, err := Resolve(r)
	if err != nil {
		return Root{}, nil, err
	}

	opts, err := options.Load(root.Path)
	if err != nil {
		return Root{}, nil, err
	}

	root.Identifier = options.Merge(opts, nil).String(options.KeyIdentifier, "")

	return root, opts, nil
}
