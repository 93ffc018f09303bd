package cli

import (
	"github.com/kxue43/appkit/deploy"
	"github.com/kxue43/appkit/options"
)

type (
	ProfileCmd struct {
		RootFlag

		Stage string `name:"stage" help:"Deploy stage. Defaults to the recorded stage, then to the deploy configuration."`
	}

	DeployCmd struct {
		RootFlag

		Stage string `name:"stage" help:"Deploy stage. Defaults to the recorded stage, then to the deploy configuration."`
		Yes   bool   `name:"yes" short:"y" help:"Do not wait for Enter before deploying."`
	}
)

// Run validates the deploy environment before it touches the project.
func (c *ProfileCmd) Run(e *Env) error {
	cfg, err := deploy.Load(e.Getenv, e.UI)
	if err != nil {
		return err
	}

	root, persisted, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	ctx := options.Merge(persisted, options.Invocation{}.SetString(options.KeyStage, c.Stage))

	path, err := deploy.WriteProfile(root.Path, deploy.NewProfile(cfg, ctx))
	if err != nil {
		return err
	}

	if err = e.saveProject(root.Path, ctx); err != nil {
		return err
	}

	e.UI.Success("Server profile written to %s", path)

	return nil
}

func (c *DeployCmd) Run(e *Env) error {
	cfg, err := deploy.Load(e.Getenv, e.UI)
	if err != nil {
		return err
	}

	root, persisted, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	ctx := options.Merge(persisted, options.Invocation{}.SetString(options.KeyStage, c.Stage))

	return deploy.Run(e.Ctx, e.Runner, e.UI, root.Path, cfg, deploy.RunOptions{
		Stage: ctx.String(options.KeyStage, cfg.Stage),
		Yes:   c.Yes,
	})
}
