package cli

import (
	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/version"
)

type VersionCmd struct {
	Check bool `name:"check" help:"Also look up the latest release."`
}

func (c *VersionCmd) Run(e *Env) error {
	e.UI.Say("%s %s", Name, version.FromBuildInfo())

	if !c.Check {
		return nil
	}

	latest, err := version.LatestRelease(e.Ctx, e.HTTP)
	if err != nil {
		return apperr.Wrap(apperr.Environment, apperr.EEnvInvalid, "could not check for a newer release", err)
	}

	if current := version.Current(); version.NewerThan(latest, current) {
		e.UI.Warn("appkit %s is available; you are running %s", latest, current)
	} else {
		e.UI.Success("appkit is up to date")
	}

	return nil
}
