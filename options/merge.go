package options

import (
	"fmt"
	"strconv"
)

// Context is the effective configuration of one run. It is rebuilt every invocation and
// never persisted as such; [Context.Options] is what gets saved.
type Context struct {
	values Options
}

const EditionEnterprise = "enterprise"

// Merge overlays inv on persisted. The overlay is shallow: a nested value in inv replaces the
// persisted value of the same key as a whole. Defaults are not applied here.
func Merge(persisted Options, inv Invocation) Context {
	values := persisted.Clone()

	for k, v := range inv {
		values[k] = v
	}

	return Context{values: values}
}

func (c Context) Has(key string) bool {
	_, ok := c.values[key]

	return ok
}

func (c Context) Get(key string) (any, bool) {
	v, ok := c.values[key]

	return v, ok
}

// Set records a value that should be persisted with the rest of the context.
func (c Context) Set(key string, value any) {
	c.values[key] = value
}

// SetDefault records value only when key is absent.
func (c Context) SetDefault(key string, value any) {
	if !c.Has(key) {
		c.values[key] = value
	}
}

func (c Context) String(key, def string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

func (c Context) Int(key string, def int) int {
	v, ok := c.values[key]
	if !ok {
		return def
	}

	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}

	return def
}

func (c Context) Bool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok {
		return def
	}

	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}

	return def
}

// Enterprise is derived on every run from the edition and the credential key.
func (c Context) Enterprise() bool {
	return c.String(KeyEdition, "") == EditionEnterprise && c.String(KeyKey, "") != ""
}

// Options returns a copy of the merged values, session-only keys included.
func (c Context) Options() Options {
	return c.values.Clone()
}
