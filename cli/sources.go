package cli

import (
	"fmt"
	"net/url"

	"github.com/pkg/browser"

	"github.com/kxue43/appkit/options"
)

type SourcesCmd struct {
	RootFlag

	Open bool `name:"open" help:"Open the first source in the default browser."`
}

const sourcesHost = "packages.appkit.dev"

// openURL is replaced in tests.
var openURL = browser.OpenURL

// Sources lists the package sources for ctx. Enterprise sources carry the license key as the user.
func Sources(ctx options.Context) []string {
	community := url.URL{Scheme: "https", Host: sourcesHost, Path: "/community/go"}

	if !ctx.Enterprise() {
		return []string{community.String()}
	}

	enterprise := url.URL{
		Scheme: "https",
		User:   url.User(ctx.String(options.KeyKey, "")),
		Host:   sourcesHost,
		Path:   "/enterprise/go",
	}

	return []string{enterprise.String(), community.String()}
}

func (c *SourcesCmd) Run(e *Env) error {
	_, persisted, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	sources := Sources(options.Merge(persisted, nil))

	for _, s := range sources {
		e.UI.Say("%s", s)
	}

	if c.Open {
		if err = openURL(sources[0]); err != nil {
			return fmt.Errorf("failed to open %s in the default browser: %w", sources[0], err)
		}
	}

	return nil
}
