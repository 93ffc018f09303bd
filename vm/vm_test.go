package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/ui"
)

func TestFromContext(t *testing.T) {
	s := FromContext(options.Merge(nil, nil))
	assert.Equal(t, Settings{User: DefaultUser, Box: DefaultBox, CPUs: DefaultCPUs, Memory: DefaultMemory}, s)

	persisted := options.Options{options.KeyCPUs: 4, options.KeyVMBox: "org/box"}
	s = FromContext(options.Merge(persisted, options.Invocation{}.SetInt(options.KeyMemory, 8192)))

	assert.Equal(t, Settings{User: DefaultUser, Box: "org/box", CPUs: 4, Memory: 8192}, s)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	r := gateway.NewStubRunner(Provisioner)

	require.NoError(t, Up(ctx, r, ui.Discard(), "/srv/shop"))
	require.NoError(t, Provision(ctx, r, ui.Discard(), "/srv/shop"))
	require.NoError(t, SSH(ctx, r, ui.Discard(), "/srv/shop", []string{"-c", "make test"}))

	assert.Equal(t, []string{"vagrant up", "vagrant provision", "vagrant ssh -c make test"}, r.Invoked())

	for _, c := range r.Calls {
		assert.Equal(t, "/srv/shop", c.Dir)
	}

	t.Run("vagrant missing", func(t *testing.T) {
		err := Up(ctx, gateway.NewStubRunner(), ui.Discard(), "/srv/shop")
		assert.Equal(t, apperr.ExitToolMissing, apperr.ExitCode(err))
	})
}
