package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/scaffold"
	"github.com/kxue43/appkit/vm"
)

type ConfigCmd struct {
	RootFlag

	Set []string `name:"set" sep:"none" placeholder:"KEY=VALUE" help:"Record an option. Repeatable."`
}

// defaults are shown next to the recorded options when the project does not record them.
var defaults = options.Options{
	options.KeyCPUs:    vm.DefaultCPUs,
	options.KeyMemory:  vm.DefaultMemory,
	options.KeyEdition: scaffold.DefaultEdition,
	options.KeyVMUser:  vm.DefaultUser,
	options.KeyVMBox:   vm.DefaultBox,
}

// ParseAssignment turns KEY=VALUE into a typed option. Integers and booleans keep their type.
func ParseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)

	if !ok || key == "" {
		return "", nil, apperr.Usage("%q is not of the form KEY=VALUE", s)
	}

	if options.IsSessionOnly(key) {
		return "", nil, apperr.Usage("%q only applies to a single run and cannot be recorded", key)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return key, n, nil
	}

	if b, err := strconv.ParseBool(raw); err == nil {
		return key, b, nil
	}

	return key, raw, nil
}

func (c *ConfigCmd) Run(e *Env) error {
	root, persisted, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	if len(c.Set) == 0 {
		e.UI.Say("%s", optionsTable(persisted))

		return nil
	}

	inv := options.Invocation{}

	for _, s := range c.Set {
		key, value, err := ParseAssignment(s)
		if err != nil {
			return err
		}

		inv.Set(key, value)
	}

	if err = e.saveProject(root.Path, options.Merge(persisted, inv)); err != nil {
		return err
	}

	e.UI.Success("Recorded %s in %s", strings.Join(options.Options(inv).Keys(), ", "), options.Path(root.Path))

	return nil
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}

	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func optionsTable(persisted options.Options) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Option", "Value", "Origin"})

	effective := options.Merge(defaults, options.Invocation(persisted)).Options()

	for _, k := range effective.Keys() {
		origin := "project"
		if _, ok := persisted[k]; !ok {
			origin = "default"
		}

		value := fmt.Sprint(effective[k])
		if k == options.KeyKey {
			value = mask(value)
		}

		tw.AppendRow(table.Row{k, value, origin})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignLeft, WidthMax: 64},
	})

	return tw.Render()
}
