package cli

import (
	"go.uber.org/zap"

	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/scaffold"
	"github.com/kxue43/appkit/vm"
)

type (
	VMCmd struct {
		RootFlag

		CPUs   int  `name:"cpus" help:"Number of CPUs of the development VM."`
		Memory int  `name:"memory" placeholder:"MB" help:"Memory of the development VM in MB."`
		Reuse  bool `name:"reuse" negatable:"" default:"true" help:"Reuse the recorded options. --no-reuse keeps only the project identity."`
	}

	UpCmd struct {
		RootFlag
	}

	ProvisionCmd struct {
		RootFlag
	}

	SSHCmd struct {
		RootFlag
	}
)

func (c *VMCmd) Run(e *Env) error {
	root, persisted, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	if !c.Reuse {
		e.UI.Debug("discarding recorded options", zap.Strings("kept", options.IdentityKeys))

		persisted = persisted.Only(options.IdentityKeys...)
	}

	inv := options.Invocation{}.
		SetInt(options.KeyCPUs, c.CPUs).
		SetInt(options.KeyMemory, c.Memory).
		SetString(options.KeyRoot, c.Root)

	if !c.Reuse {
		inv.Set(options.KeyReuse, false)
	}

	ctx := options.Merge(persisted, inv)
	ctx.SetDefault(options.KeyCPUs, vm.DefaultCPUs)
	ctx.SetDefault(options.KeyMemory, vm.DefaultMemory)

	if _, err = scaffold.VMConfig(root.Path, scaffold.NewData(ctx)); err != nil {
		return err
	}

	if err = e.saveProject(root.Path, ctx); err != nil {
		return err
	}

	s := vm.FromContext(ctx)

	e.UI.Success("VM configuration written (%d CPUs, %d MB)", s.CPUs, s.Memory)

	return nil
}

func (c *UpCmd) Run(e *Env) error {
	root, _, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	return vm.Up(e.Ctx, e.Runner, e.UI, root.Path)
}

func (c *ProvisionCmd) Run(e *Env) error {
	root, _, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	return vm.Provision(e.Ctx, e.Runner, e.UI, root.Path)
}

func (c *SSHCmd) Run(e *Env) error {
	root, _, err := e.openProject(c.Root)
	if err != nil {
		return err
	}

	return vm.SSH(e.Ctx, e.Runner, e.UI, root.Path, e.Passthrough)
}
