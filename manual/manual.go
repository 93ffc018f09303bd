// Package manual finds and shows per-command documentation: an installed man page when possible,
// the bundled Markdown document otherwise.
package manual

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/browser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/ui"
)

type (
	Shown int

	Request struct {
		Getenv     func(string) string
		Command    string
		Executable string
	}
)

const (
	// Nothing was shown; the caller prints generic usage.
	Nothing Shown = iota
	ManPage
	Text
)

const (
	ManPathEnv = "APPKIT_MANPATH"
	Viewer     = "man"
	PagePrefix = "appkit-"
)

var (
	//go:embed docs/*.md
	docs embed.FS

	//go:embed page.tmplt
	pageTemplate string

	// OpenReader shows rendered HTML; swapped out in tests.
	OpenReader = browser.OpenReader

	ErrNoDoc = errors.New("no bundled document")
)

// Doc returns the bundled Markdown document of command.
func Doc(command string) ([]byte, error) {
	if command == "" || strings.ContainsAny(command, `/\.`) {
		return nil, fmt.Errorf("%w for %q", ErrNoDoc, command)
	}

	contents, err := fs.ReadFile(docs, "docs/"+command+".md")
	if err != nil {
		return nil, fmt.Errorf("%w for %q", ErrNoDoc, command)
	}

	return contents, nil
}

// Commands lists the commands that have a bundled document.
func Commands() []string {
	entries, _ := fs.ReadDir(docs, "docs")

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}

	return names
}

// ManDirs returns the directories searched for man pages, in order.
func ManDirs(getenv func(string) string, executable string) []string {
	var dirs []string

	for _, d := range filepath.SplitList(getenv(ManPathEnv)) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, filepath.Join(d, "man1"), d)
		}
	}

	if executable != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(executable), "..", "share", "man", "man1"))
	}

	return dirs
}

// FindPage returns the first appkit-<command>.1 file in dirs.
func FindPage(dirs []string, command string) (string, bool) {
	name := PagePrefix + command + ".1"

	for _, d := range dirs {
		path := filepath.Clean(filepath.Join(d, name))

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return "", false
}

// Show displays the help for req.Command and reports how.
func Show(ctx context.Context, r gateway.Runner, sink *ui.Sink, req Request) (Shown, error) {
	if page, ok := FindPage(ManDirs(req.Getenv, req.Executable), req.Command); ok {
		sink.Debug("found man page", zap.String("path", page))

		ran, err := gateway.Optional(ctx, r, sink, gateway.Command{Name: Viewer, Args: []string{page}})
		if err != nil {
			return Nothing, err
		}

		if ran {
			return ManPage, nil
		}
	}

	contents, err := Doc(req.Command)
	if err != nil {
		return Nothing, nil
	}

	_, err = sink.Out().Write(contents)
	if err != nil {
		return Nothing, fmt.Errorf("failed to print help for %q: %w", req.Command, err)
	}

	return Text, nil
}

// RenderHTML converts the bundled document of command into a standalone HTML page.
func RenderHTML(command string, w io.Writer) error {
	source, err := Doc(command)
	if err != nil {
		return err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	var body bytes.Buffer

	if err = md.Convert(source, &body); err != nil {
		return fmt.Errorf("failed to convert help for %q to HTML: %w", command, err)
	}

	tmplt, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return fmt.Errorf("failed to load page template: %w", err)
	}

	err = tmplt.Execute(w, struct {
		Title string
		Body  string
	}{Title: "appkit " + command, Body: body.String()})
	if err != nil {
		return fmt.Errorf("failed to insert converted HTML into template: %w", err)
	}

	return nil
}

// ShowWeb renders the bundled document of command and opens it in the default browser.
func ShowWeb(command string) error {
	var out bytes.Buffer

	if err := RenderHTML(command, &out); err != nil {
		return err
	}

	if err := OpenReader(&out); err != nil {
		return fmt.Errorf("failed to open rendered HTML in default browser: %w", err)
	}

	return nil
}
