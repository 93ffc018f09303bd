package cli

import (
	"strings"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/options"
)

type KeyCmd struct {
	RootFlag

	Key string `arg:"" help:"The license key."`
}

// Run stores the key for the user and, when run inside a project, records it in the project too.
// An explicit --root must point at a project.
func (c *KeyCmd) Run(e *Env) error {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		return apperr.Usage("the license key must not be empty")
	}

	store, err := e.Credentials.Set(key)
	if err != nil {
		return err
	}

	e.UI.Success("License key stored in %s", store)

	root, persisted, err := e.openProject(c.Root)
	if apperr.CodeOf(err) == apperr.ENotAProject && c.Root == "" {
		return nil
	} else if err != nil {
		return err
	}

	ctx := options.Merge(persisted, options.Invocation{}.SetString(options.KeyKey, key))

	if err = e.saveProject(root.Path, ctx); err != nil {
		return err
	}

	e.UI.Success("License key recorded for %s", root.Path)

	return nil
}
