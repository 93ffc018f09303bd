// Package options holds the per-project option document and the merge that turns persisted
// options plus the flags of one invocation into the effective context.
package options

import (
	"maps"
	"slices"
	"sort"
)

type (
	// Options is the durable key/value state of one project.
	Options map[string]any

	// Invocation holds only the flags the user actually supplied on this run.
	Invocation map[string]any
)

const (
	Dir      = "config"
	FileName = "app_options.yaml"
)

const (
	KeyName        = "name"
	KeyIdentifier  = "identifier"
	KeyModule      = "module"
	KeyProjectID   = "project_id"
	KeyToolVersion = "tool_version"
	KeyCPUs        = "cpus"
	KeyMemory      = "memory"
	KeyKey         = "key"
	KeyEdition     = "edition"
	KeyVMUser      = "vm_user"
	KeyVMBox       = "vm_box"
	KeyStage       = "stage"
)

const (
	KeyReuse       = "reuse"
	KeyRoot        = "root"
	KeyInteractive = "interactive"
	KeyForce       = "force"
	KeyEnterprise  = "enterprise"
	KeyNoGit       = "no_git"
	KeySkipDeps    = "skip_deps"
)

var (
	// SessionOnly keys describe one run and are stripped by every Save.
	SessionOnly = []string{KeyReuse, KeyRoot, KeyInteractive, KeyForce, KeyEnterprise, KeyNoGit, KeySkipDeps}

	// IdentityKeys survive --no-reuse.
	IdentityKeys = []string{KeyName, KeyIdentifier, KeyModule, KeyProjectID, KeyToolVersion}
)

func IsSessionOnly(key string) bool {
	return slices.Contains(SessionOnly, key)
}

func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}

	return maps.Clone(o)
}

// Only returns the subset of o holding the given keys.
func (o Options) Only(keys ...string) Options {
	out := Options{}

	for _, k := range keys {
		if v, ok := o[k]; ok {
			out[k] = v
		}
	}

	return out
}

// Without returns a copy of o minus the given keys.
func (o Options) Without(keys ...string) Options {
	out := o.Clone()

	for _, k := range keys {
		delete(out, k)
	}

	return out
}

func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func (inv Invocation) Set(key string, value any) Invocation {
	inv[key] = value

	return inv
}

// SetInt records value unless it is zero, i.e. the flag was not given.
func (inv Invocation) SetInt(key string, value int) Invocation {
	if value != 0 {
		inv[key] = value
	}

	return inv
}

func (inv Invocation) SetString(key, value string) Invocation {
	if value != "" {
		inv[key] = value
	}

	return inv
}

func (inv Invocation) SetBool(key string, value bool) Invocation {
	if value {
		inv[key] = true
	}

	return inv
}

func (inv Invocation) Has(key string) bool {
	_, ok := inv[key]

	return ok
}
