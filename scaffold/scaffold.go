package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/mod/modfile"
)

type (
	WriteHook func(io.Writer) error

	// Entry maps one template in the embedded tree to a path relative to the project root.
	Entry struct {
		Source string
		Dest   string
	}

	TemplateSet string
)

const (
	Base       TemplateSet = "templates/base"
	Enterprise TemplateSet = "templates/enterprise"
	VM         TemplateSet = "templates/vm"
)

var (
	//go:embed "all:templates"
	templatesFS embed.FS

	tmpltExt = ".tmplt"

	executableExt = ".sh"
)

func ToModFile(modulePath, goVersion string) WriteHook {
	return func(fd io.Writer) error {
		goModFile := new(modfile.File)

		err := goModFile.AddModuleStmt(modulePath)
		if err != nil {
			return fmt.Errorf("failed to add module statement to go.mod file: %w", err)
		}

		err = goModFile.AddGoStmt(goVersion)
		if err != nil {
			return fmt.Errorf("failed to add go statement to go.mod file: %w", err)
		}

		contents, err := goModFile.Format()
		if err != nil {
			return fmt.Errorf("failed to format starter go.mod file: %w", err)
		}

		_, err = fd.Write(contents)

		return err
	}
}

func WriteToFile(dir, name string, hook WriteHook) (err error) {
	fd, err := os.Create(filepath.Clean(filepath.Join(dir, name)))
	if err != nil {
		return fmt.Errorf("failed to create %q file: %w", name, err)
	}

	err = hook(fd)
	if err != nil {
		_ = fd.Close()

		return fmt.Errorf("failed to write to %q: %w", name, err)
	}

	if err = fd.Close(); err != nil {
		return fmt.Errorf("failed to close %q after writing: %w", name, err)
	}

	return nil
}

func dashLower(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

// Plan walks one template set breadth first and lists what it would write.
func Plan(srcFS fs.FS, set TemplateSet) (entries []Entry, err error) {
	prefix := string(set)

	if _, err = fs.ReadDir(srcFS, prefix); err != nil {
		return nil, fmt.Errorf("%q is not a directory of template files: %w", prefix, err)
	}

	srcDirs := []string{prefix}

	for len(srcDirs) > 0 {
		srcDir := srcDirs[0]
		srcDirs = srcDirs[1:]

		items, err := fs.ReadDir(srcFS, srcDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open the directory %q in the template tree: %w", srcDir, err)
		}

		for _, item := range items {
			src := path.Join(srcDir, item.Name())

			if item.IsDir() {
				srcDirs = append(srcDirs, src)

				continue
			}

			entries = append(entries, Entry{
				Source: src,
				Dest:   strings.TrimSuffix(strings.TrimPrefix(src, prefix+"/"), tmpltExt),
			})
		}
	}

	return entries, nil
}

// Materialize renders every entry into dest, one after the other, creating parent directories.
func Materialize(dest string, srcFS fs.FS, entries []Entry, data any) error {
	if len(entries) == 0 {
		return nil
	}

	tmplt := template.New("entry").Delims("{%", "%}").Funcs(template.FuncMap{"DashLower": dashLower})

	// Templates are named by their source path, not their base name.
	for _, entry := range entries {
		contents, err := fs.ReadFile(srcFS, entry.Source)
		if err != nil {
			return fmt.Errorf("failed to read template file %q: %w", entry.Source, err)
		}

		if _, err = tmplt.New(entry.Source).Parse(string(contents)); err != nil {
			return fmt.Errorf("failed to parse template file %q: %w", entry.Source, err)
		}
	}

	for _, entry := range entries {
		dir := filepath.Join(dest, filepath.Dir(filepath.FromSlash(entry.Dest)))
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}

		err := WriteToFile(dest, filepath.FromSlash(entry.Dest), func(fd io.Writer) error {
			return tmplt.ExecuteTemplate(fd, entry.Source, data)
		})
		if err != nil {
			return fmt.Errorf("failed to create new file from template %q: %w", entry.Source, err)
		}

		if strings.HasSuffix(entry.Dest, executableExt) {
			if err = os.Chmod(filepath.Join(dest, filepath.FromSlash(entry.Dest)), 0750); err != nil {
				return fmt.Errorf("failed to mark %q executable: %w", entry.Dest, err)
			}
		}
	}

	return nil
}

// RenderSets plans and renders the given embedded template sets in order.
func RenderSets(dest string, data any, sets ...TemplateSet) ([]Entry, error) {
	var all []Entry

	for _, set := range sets {
		entries, err := Plan(templatesFS, set)
		if err != nil {
			return nil, err
		}

		if err = Materialize(dest, templatesFS, entries, data); err != nil {
			return nil, err
		}

		all = append(all, entries...)
	}

	return all, nil
}
