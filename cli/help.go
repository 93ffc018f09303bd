package cli

import (
	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/manual"
)

type HelpCmd struct {
	Command string `arg:"" optional:"" help:"Command to show help for."`
	Web     bool   `name:"web" help:"Open the help in the default browser."`
}

// Run prefers an installed man page, then the bundled document, then the generic usage.
func (c *HelpCmd) Run(e *Env) error {
	if c.Command == "" {
		return e.Usage()
	}

	if c.Web {
		err := manual.ShowWeb(c.Command)
		if err != nil {
			return apperr.Wrap(apperr.UserInput, apperr.EUsage, "no help document for "+c.Command, err)
		}

		return nil
	}

	shown, err := manual.Show(e.Ctx, e.Runner, e.UI, manual.Request{
		Getenv:     e.Getenv,
		Command:    c.Command,
		Executable: e.Executable,
	})
	if err != nil {
		return err
	}

	if shown == manual.Nothing {
		return e.Usage()
	}

	return nil
}
