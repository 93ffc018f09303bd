package deploy

import (
	"context"

	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/ui"
)

type RunOptions struct {
	Stage string
	Yes   bool
}

// Run hands the deployment to the configured tool in root, after an interactive pause unless
// opts.Yes is set. The tool's exit status is passed through.
func Run(ctx context.Context, r gateway.Runner, sink *ui.Sink, root string, cfg Config, opts RunOptions) error {
	stage := opts.Stage
	if stage == "" {
		stage = cfg.Stage
	}

	if err := CheckStage(stage); err != nil {
		return err
	}

	settings := SettingsFromConfig(cfg)

	sink.Say("Deploying %s to %s (stage %s) with %s.", root, sink.Emph(settings.Target()), stage, cfg.Tool)

	if !opts.Yes {
		if err := sink.Pause(ctx, "Press enter to continue, or Ctrl-C to abort..."); err != nil {
			return err
		}
	}

	return gateway.Require(ctx, r, sink, gateway.Command{
		Name: cfg.Tool,
		Args: []string{stage, "deploy"},
		Dir:  root,
		Env:  settings.Env(),
	})
}
