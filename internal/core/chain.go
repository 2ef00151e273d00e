package core

import (
	"fmt"

	d "ldapcore/internal/domain"
)

// Interceptor is a named pipeline stage. Every method receives the
// operation context and a next-link closure; a stage that wants to
// short-circuit simply does not call next. Embed BaseInterceptor to
// get pass-through defaults for the methods a concrete interceptor
// doesn't care about.
type Interceptor interface {
	Name() string
	Add(ctx *AddContext, next func(*AddContext) error) error
	Delete(ctx *DeleteContext, next func(*DeleteContext) error) error
	Modify(ctx *ModifyContext, next func(*ModifyContext) error) error
	ModifyDN(ctx *ModifyDNContext, next func(*ModifyDNContext) error) error
	Lookup(ctx *LookupContext, next func(*LookupContext) (*d.Entry, error)) (*d.Entry, error)
	Search(ctx *SearchContext, next func(*SearchContext) (Cursor, error)) (Cursor, error)
	Bind(ctx *BindContext, next func(*BindContext) (*d.Entry, error)) (*d.Entry, error)
	Compare(ctx *CompareContext, next func(*CompareContext) (bool, error)) (bool, error)
}

// BaseInterceptor forwards every call unchanged. Concrete interceptors
// embed it and override only the operations they care about.
type BaseInterceptor struct{ name string }

func NewBaseInterceptor(name string) BaseInterceptor {
	return BaseInterceptor{name}
}

func (b BaseInterceptor) Name() string { return b.name }

func (BaseInterceptor) Add(ctx *AddContext, next func(*AddContext) error) error {
	return next(ctx)
}

func (BaseInterceptor) Delete(ctx *DeleteContext, next func(*DeleteContext) error) error {
	return next(ctx)
}

func (BaseInterceptor) Modify(ctx *ModifyContext, next func(*ModifyContext) error) error {
	return next(ctx)
}

func (BaseInterceptor) ModifyDN(ctx *ModifyDNContext, next func(*ModifyDNContext) error) error {
	return next(ctx)
}

func (BaseInterceptor) Lookup(ctx *LookupContext, next func(*LookupContext) (*d.Entry, error)) (*d.Entry, error) {
	return next(ctx)
}

func (BaseInterceptor) Search(ctx *SearchContext, next func(*SearchContext) (Cursor, error)) (Cursor, error) {
	return next(ctx)
}

func (BaseInterceptor) Bind(ctx *BindContext, next func(*BindContext) (*d.Entry, error)) (*d.Entry, error) {
	return next(ctx)
}

func (BaseInterceptor) Compare(ctx *CompareContext, next func(*CompareContext) (bool, error)) (bool, error) {
	return next(ctx)
}

// Chain is the ordered, named interceptor pipeline. Stages are added at
// either end or by name-relative insertion before the chain is frozen;
// any mutation attempt after Freeze panics, since misconfiguration here
// is a programmer error, not a runtime one.
type Chain struct {
	stages   []Interceptor
	terminal Interceptor
	frozen   bool
}

func NewChain(terminal Interceptor) *Chain {
	return &Chain{terminal: terminal}
}

func (c *Chain) checkMutable() {
	if c.frozen {
		panic("ldapcore: attempted to mutate a frozen interceptor chain")
	}
}

func (c *Chain) indexOf(name string) int {
	for i, s := range c.stages {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (c *Chain) AddFirst(stage Interceptor) *Chain {
	c.checkMutable()
	c.stages = append([]Interceptor{stage}, c.stages...)
	return c
}

func (c *Chain) AddLast(stage Interceptor) *Chain {
	c.checkMutable()
	c.stages = append(c.stages, stage)
	return c
}

func (c *Chain) InsertBefore(name string, stage Interceptor) *Chain {
	c.checkMutable()
	idx := c.indexOf(name)
	if idx == -1 {
		panic(fmt.Sprintf("ldapcore: no such interceptor %q", name))
	}
	c.stages = append(c.stages[:idx], append([]Interceptor{stage}, c.stages[idx:]...)...)
	return c
}

func (c *Chain) InsertAfter(name string, stage Interceptor) *Chain {
	c.checkMutable()
	idx := c.indexOf(name)
	if idx == -1 {
		panic(fmt.Sprintf("ldapcore: no such interceptor %q", name))
	}
	c.stages = append(c.stages[:idx+1], append([]Interceptor{stage}, c.stages[idx+1:]...)...)
	return c
}

func (c *Chain) Freeze() *Chain {
	c.frozen = true
	return c
}

func (c *Chain) Add(ctx *AddContext) error {
	return c.buildAdd(0)(ctx)
}

func (c *Chain) buildAdd(pos int) func(*AddContext) error {
	if pos >= len(c.stages) {
		return func(ctx *AddContext) error { return c.terminal.Add(ctx, func(*AddContext) error { return nil }) }
	}
	stage := c.stages[pos]
	nextFn := c.buildAdd(pos + 1)
	return func(ctx *AddContext) error {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Add(ctx, nextFn)
	}
}

func (c *Chain) Delete(ctx *DeleteContext) error {
	return c.buildDelete(0)(ctx)
}

func (c *Chain) buildDelete(pos int) func(*DeleteContext) error {
	if pos >= len(c.stages) {
		return func(ctx *DeleteContext) error {
			return c.terminal.Delete(ctx, func(*DeleteContext) error { return nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildDelete(pos + 1)
	return func(ctx *DeleteContext) error {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Delete(ctx, nextFn)
	}
}

func (c *Chain) Modify(ctx *ModifyContext) error {
	return c.buildModify(0)(ctx)
}

func (c *Chain) buildModify(pos int) func(*ModifyContext) error {
	if pos >= len(c.stages) {
		return func(ctx *ModifyContext) error {
			return c.terminal.Modify(ctx, func(*ModifyContext) error { return nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildModify(pos + 1)
	return func(ctx *ModifyContext) error {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Modify(ctx, nextFn)
	}
}

func (c *Chain) ModifyDN(ctx *ModifyDNContext) error {
	return c.buildModifyDN(0)(ctx)
}

func (c *Chain) buildModifyDN(pos int) func(*ModifyDNContext) error {
	if pos >= len(c.stages) {
		return func(ctx *ModifyDNContext) error {
			return c.terminal.ModifyDN(ctx, func(*ModifyDNContext) error { return nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildModifyDN(pos + 1)
	return func(ctx *ModifyDNContext) error {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.ModifyDN(ctx, nextFn)
	}
}

func (c *Chain) Lookup(ctx *LookupContext) (*d.Entry, error) {
	return c.buildLookup(0)(ctx)
}

func (c *Chain) buildLookup(pos int) func(*LookupContext) (*d.Entry, error) {
	if pos >= len(c.stages) {
		return func(ctx *LookupContext) (*d.Entry, error) {
			return c.terminal.Lookup(ctx, func(*LookupContext) (*d.Entry, error) { return nil, nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildLookup(pos + 1)
	return func(ctx *LookupContext) (*d.Entry, error) {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Lookup(ctx, nextFn)
	}
}

func (c *Chain) Search(ctx *SearchContext) (Cursor, error) {
	return c.buildSearch(0)(ctx)
}

func (c *Chain) buildSearch(pos int) func(*SearchContext) (Cursor, error) {
	if pos >= len(c.stages) {
		return func(ctx *SearchContext) (Cursor, error) {
			return c.terminal.Search(ctx, func(*SearchContext) (Cursor, error) { return NewSliceCursor(nil), nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildSearch(pos + 1)
	return func(ctx *SearchContext) (Cursor, error) {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Search(ctx, nextFn)
	}
}

func (c *Chain) Bind(ctx *BindContext) (*d.Entry, error) {
	return c.buildBind(0)(ctx)
}

func (c *Chain) buildBind(pos int) func(*BindContext) (*d.Entry, error) {
	if pos >= len(c.stages) {
		return func(ctx *BindContext) (*d.Entry, error) {
			return c.terminal.Bind(ctx, func(*BindContext) (*d.Entry, error) { return nil, nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildBind(pos + 1)
	return func(ctx *BindContext) (*d.Entry, error) {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Bind(ctx, nextFn)
	}
}

func (c *Chain) Compare(ctx *CompareContext) (bool, error) {
	return c.buildCompare(0)(ctx)
}

func (c *Chain) buildCompare(pos int) func(*CompareContext) (bool, error) {
	if pos >= len(c.stages) {
		return func(ctx *CompareContext) (bool, error) {
			return c.terminal.Compare(ctx, func(*CompareContext) (bool, error) { return false, nil })
		}
	}
	stage := c.stages[pos]
	nextFn := c.buildCompare(pos + 1)
	return func(ctx *CompareContext) (bool, error) {
		if ctx.Bypass.skips(stage.Name()) {
			return nextFn(ctx)
		}
		return stage.Compare(ctx, nextFn)
	}
}
