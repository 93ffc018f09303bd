package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/credentials"
	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/project"
	"github.com/kxue43/appkit/scaffold"
	"github.com/kxue43/appkit/tui"
	"github.com/kxue43/appkit/version"
	"github.com/kxue43/appkit/vm"
)

type NewCmd struct {
	RootFlag

	Name        string `arg:"" optional:"" help:"Application name, e.g. My-App."`
	Module      string `name:"module" placeholder:"PATH" help:"Go module path. Defaults to the identifier."`
	Key         string `name:"key" help:"License key. Defaults to the key stored with appkit key."`
	Edition     string `name:"edition" placeholder:"community|enterprise" help:"Edition of the framework to use."`
	CPUs        int    `name:"cpus" help:"Number of CPUs of the development VM."`
	Memory      int    `name:"memory" placeholder:"MB" help:"Memory of the development VM in MB."`
	Enterprise  bool   `name:"enterprise" help:"Shorthand for --edition enterprise."`
	Interactive bool   `name:"interactive" short:"i" help:"Fill in the options with a form."`
	Force       bool   `name:"force" help:"Render into a directory that already has files."`
	NoGit       bool   `name:"no-git" help:"Do not initialize a git repository."`
	SkipDeps    bool   `name:"skip-deps" help:"Do not run go mod tidy."`
}

var editions = []string{scaffold.DefaultEdition, options.EditionEnterprise}

func (c *NewCmd) ask(e *Env) error {
	answers, err := e.Form(e.Ctx, e.UI, tui.Answers{
		Name:    c.Name,
		Edition: c.edition(),
		Key:     c.Key,
		CPUs:    c.CPUs,
		Memory:  c.Memory,
	})
	if errors.Is(err, tui.ErrCancelled) {
		return apperr.Interrupt()
	} else if err != nil {
		return err
	}

	c.Name, c.Edition, c.Key, c.CPUs, c.Memory = answers.Name, answers.Edition, answers.Key, answers.CPUs, answers.Memory

	return nil
}

func (c *NewCmd) edition() string {
	if c.Enterprise {
		return options.EditionEnterprise
	}

	return c.Edition
}

func (c *NewCmd) invocation(id string) options.Invocation {
	return options.Invocation{}.
		SetString(options.KeyName, c.Name).
		SetString(options.KeyIdentifier, id).
		SetString(options.KeyModule, c.Module).
		SetString(options.KeyKey, c.Key).
		SetString(options.KeyEdition, c.edition()).
		SetInt(options.KeyCPUs, c.CPUs).
		SetInt(options.KeyMemory, c.Memory).
		SetString(options.KeyRoot, c.Root).
		SetBool(options.KeyEnterprise, c.Enterprise).
		SetBool(options.KeyInteractive, c.Interactive).
		SetBool(options.KeyForce, c.Force).
		SetBool(options.KeyNoGit, c.NoGit).
		SetBool(options.KeySkipDeps, c.SkipDeps)
}

func checkEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	if len(entries) > 0 {
		return apperr.New(apperr.ProjectState, apperr.EAlreadyExists, fmt.Sprintf("%s already exists and is not empty", dir)).
			WithHint("pass --force to create the project in it anyway")
	}

	return nil
}

func (c *NewCmd) Run(e *Env) error {
	if c.Interactive {
		if err := c.ask(e); err != nil {
			return err
		}
	}

	if c.Name == "" {
		return apperr.Usage("a name is required, e.g. appkit new my_app")
	}

	if ed := c.edition(); ed != "" && !slices.Contains(editions, ed) {
		return apperr.Usage("unknown edition %q; use one of %v", ed, editions)
	}

	root, err := project.Resolve(project.Request{Getwd: e.Getwd, Root: c.Root, Name: c.Name})
	if err != nil {
		return err
	}

	if !c.Force {
		if err = checkEmpty(root.Path); err != nil {
			return err
		}
	}

	ctx := options.Merge(nil, c.invocation(root.Identifier))

	if !ctx.Has(options.KeyKey) {
		if key, err := e.Credentials.Get(); err == nil {
			ctx.Set(options.KeyKey, key)
		} else if !errors.Is(err, credentials.ErrNoKey) {
			return err
		}
	}

	ctx.SetDefault(options.KeyEdition, scaffold.DefaultEdition)
	ctx.SetDefault(options.KeyCPUs, vm.DefaultCPUs)
	ctx.SetDefault(options.KeyMemory, vm.DefaultMemory)
	ctx.Set(options.KeyProjectID, uuid.NewString())
	ctx.Set(options.KeyToolVersion, version.Current())

	if ctx.String(options.KeyEdition, "") == options.EditionEnterprise && !ctx.Enterprise() {
		e.UI.Warn("the enterprise edition needs a license key; rendering the community files only")
		e.UI.Warn("store a key with `appkit key <KEY>` and run `appkit new` again")
	}

	entries, err := scaffold.Project(root.Path, scaffold.NewData(ctx))
	if err != nil {
		return err
	}

	e.UI.Debug("rendered templates", zap.Int("files", len(entries)), zap.String("root", root.Path))

	if err = e.saveProject(root.Path, ctx); err != nil {
		return err
	}

	if err = c.initRepo(e, root.Path); err != nil {
		return err
	}

	if !c.SkipDeps {
		_, err = gateway.Optional(e.Ctx, e.Runner, e.UI, gateway.Command{Name: "go", Args: []string{"mod", "tidy"}, Dir: root.Path})
		if err != nil {
			return err
		}
	}

	e.UI.Success("Created %s in %s", e.UI.Emph(ctx.String(options.KeyName, root.Identifier)), root.Path)
	e.UI.Say("Next: cd %s && appkit up", root.Path)

	return nil
}

func (c *NewCmd) initRepo(e *Env, root string) error {
	if c.NoGit {
		return nil
	}

	ran, err := gateway.Optional(e.Ctx, e.Runner, e.UI, gateway.Command{Name: "git", Args: []string{"init", "--quiet"}, Dir: root})
	if err != nil || !ran {
		return err
	}

	_, err = gateway.Optional(e.Ctx, e.Runner, e.UI, gateway.Command{Name: "git", Args: []string{"add", "."}, Dir: root})

	return err
}
