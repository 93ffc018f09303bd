// Package scaffold renders the embedded AppKit template sets into a project root.
package scaffold

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/vm"
)

// Data is the substitution context handed to every template.
type Data struct {
	Name        string
	Identifier  string
	DisplayName string
	Module      string
	ProjectID   string
	ToolVersion string
	Edition     string
	GoVersion   string
	VM          vm.Settings
	Enterprise  bool
}

const (
	DefaultEdition   = "community"
	DefaultGoVersion = "1.24"
)

func DisplayName(identifier string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(identifier, "_", " "))
}

func NewData(ctx options.Context) Data {
	id := ctx.String(options.KeyIdentifier, "")

	return Data{
		Name:        ctx.String(options.KeyName, id),
		Identifier:  id,
		DisplayName: DisplayName(id),
		Module:      ctx.String(options.KeyModule, id),
		ProjectID:   ctx.String(options.KeyProjectID, ""),
		ToolVersion: ctx.String(options.KeyToolVersion, ""),
		Edition:     ctx.String(options.KeyEdition, DefaultEdition),
		GoVersion:   DefaultGoVersion,
		VM:          vm.FromContext(ctx),
		Enterprise:  ctx.Enterprise(),
	}
}

// Project renders a complete application skeleton. The enterprise set is only added for
// enterprise contexts.
func Project(dest string, data Data) ([]Entry, error) {
	sets := []TemplateSet{Base}
	if data.Enterprise {
		sets = append(sets, Enterprise)
	}

	sets = append(sets, VM)

	entries, err := RenderSets(dest, data, sets...)
	if err != nil {
		return nil, err
	}

	if err = WriteToFile(dest, "go.mod", ToModFile(data.Module, data.GoVersion)); err != nil {
		return nil, err
	}

	return append(entries, Entry{Dest: "go.mod"}), nil
}

// VMConfig renders only the VM files, for refreshing an existing project.
func VMConfig(dest string, data Data) ([]Entry, error) {
	return RenderSets(dest, data, VM)
}
