package cli

import (
	"go.uber.org/zap"

	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/project"
	"github.com/kxue43/appkit/version"
)

// openProject resolves and loads an existing project, warning when it was last written by a newer
// appkit than the one running.
func (e *Env) openProject(root string) (project.Root, options.Options, error) {
	r, opts, err := project.Open(project.Request{Getwd: e.Getwd, Root: root})
	if err != nil {
		return project.Root{}, nil, err
	}

	e.UI.Debug("resolved project", zap.String("root", r.Path), zap.String("identifier", r.Identifier))

	recorded := options.Merge(opts, nil).String(options.KeyToolVersion, "")
	if current := version.Current(); version.NewerThan(recorded, current) {
		e.UI.Warn("this project was created with appkit %s but you are running %s; consider upgrading", recorded, current)
	}

	return r, opts, nil
}

// saveProject persists the effective context. Session-only keys never reach the document.
func (e *Env) saveProject(root string, ctx options.Context, excluded ...string) error {
	if err := options.Save(root, ctx.Options(), excluded...); err != nil {
		return err
	}

	e.UI.Debug("saved options", zap.String("path", options.Path(root)))

	return nil
}
