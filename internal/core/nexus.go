package core

import (
	"sort"

	d "ldapcore/internal/domain"
)

// Nexus is the terminal stage of the chain: it routes each operation to
// the partition owning the target DN by longest-suffix match, and
// synthesizes the root DSE by aggregating registered suffixes.
type Nexus struct {
	BaseInterceptor
	schema     *d.Schema
	partitions []Partition // ordered longest-suffix-first
}

const NexusName = "nexus"

func NewNexus(schema *d.Schema) *Nexus {
	return &Nexus{BaseInterceptor: NewBaseInterceptor(NexusName), schema: schema}
}

func (n *Nexus) Register(p Partition) {
	n.partitions = append(n.partitions, p)
	sort.Slice(n.partitions, func(i, j int) bool {
		return n.partitions[i].Suffix().Depth() > n.partitions[j].Suffix().Depth()
	})
}

// find returns the partition whose suffix is the longest proper prefix
// of, or equal to, dn.
func (n *Nexus) find(dn d.DN) (Partition, bool) {
	for _, p := range n.partitions {
		suffix := p.Suffix()
		if suffix.Equals(dn) || suffix.IsAncestorOf(dn) {
			return p, true
		}
	}
	return nil, false
}

// NamingContexts lists the suffix of every registered partition, the
// values the synthesized root DSE advertises.
func (n *Nexus) NamingContexts() []d.DN {
	out := make([]d.DN, len(n.partitions))
	for i, p := range n.partitions {
		out[i] = p.Suffix()
	}
	return out
}

func (n *Nexus) Add(ctx *AddContext, next func(*AddContext) error) error {
	p, ok := n.find(ctx.Entry.Dn())
	if !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.Entry.Dn())
	}
	return p.Add(ctx.Entry)
}

func (n *Nexus) Delete(ctx *DeleteContext, next func(*DeleteContext) error) error {
	p, ok := n.find(ctx.DN)
	if !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}
	return p.Delete(ctx.DN)
}

func (n *Nexus) Modify(ctx *ModifyContext, next func(*ModifyContext) error) error {
	p, ok := n.find(ctx.DN)
	if !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}
	return p.Modify(ctx.DN, ctx.Ops...)
}

func (n *Nexus) ModifyDN(ctx *ModifyDNContext, next func(*ModifyDNContext) error) error {
	p, ok := n.find(ctx.DN)
	if !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}

	if ctx.NewSuperior == nil {
		return p.Rename(ctx.DN, ctx.NewRDN, ctx.DeleteOldRDN)
	}

	destP, ok := n.find(*ctx.NewSuperior)
	if !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", *ctx.NewSuperior)
	}
	if destP != p {
		return d.NewLdapError(d.AffectsMultipleDSAs, nil, "move of %s to %s spans partitions", ctx.DN, *ctx.NewSuperior)
	}

	return p.MoveAndRename(ctx.DN, *ctx.NewSuperior, ctx.NewRDN, ctx.DeleteOldRDN)
}

func (n *Nexus) Lookup(ctx *LookupContext, next func(*LookupContext) (*d.Entry, error)) (*d.Entry, error) {
	if ctx.DN.IsRoot() {
		return n.rootDSE(), nil
	}

	p, ok := n.find(ctx.DN)
	if !ok {
		return nil, d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}
	return p.Lookup(ctx.DN)
}

// Lookup is also used outside the chain by the referral interceptor to
// re-read an entry after a commit, without re-entering the pipeline.
func (n *Nexus) LookupDirect(dn d.DN) (*d.Entry, error) {
	return n.Lookup(&LookupContext{DN: dn}, func(*LookupContext) (*d.Entry, error) { return nil, nil })
}

func (n *Nexus) Search(ctx *SearchContext, next func(*SearchContext) (Cursor, error)) (Cursor, error) {
	if !ctx.Base.IsRoot() {
		p, ok := n.find(ctx.Base)
		if !ok {
			return nil, d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.Base)
		}
		return p.Search(ctx.Base, ctx.Scope, ctx.Filter)
	}

	// base is the root DSE: a subtree search spans every partition.
	var all []Cursor
	for _, p := range n.partitions {
		cur, err := p.Search(p.Suffix(), d.WholeSubtree, ctx.Filter)
		if err != nil {
			return nil, err
		}
		all = append(all, cur)
	}
	return mergeCursors(all)
}

func mergeCursors(cursors []Cursor) (Cursor, error) {
	var merged []*d.Entry
	for _, c := range cursors {
		for ok, err := c.First(); ok; ok, err = c.Next() {
			if err != nil {
				return nil, err
			}
			e, err := c.Get()
			if err != nil {
				return nil, err
			}
			merged = append(merged, e)
		}
		c.Close()
	}
	return NewSliceCursor(merged), nil
}

func (n *Nexus) Bind(ctx *BindContext, next func(*BindContext) (*d.Entry, error)) (*d.Entry, error) {
	p, ok := n.find(ctx.DN)
	if !ok {
		return nil, d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}

	entry, err := p.Lookup(ctx.DN)
	if err != nil {
		return nil, err
	}

	userPassword, ok := n.schema.FindAttribute("userPassword")
	if !ok {
		return nil, d.NewLdapError(d.UndefinedAttributeType, nil, "userPassword is not defined in schema")
	}

	ok, err = entry.ContainsAttrVal(userPassword, ctx.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, d.NewLdapError(d.InvalidCredentials, nil, "invalid credentials")
	}

	return entry, nil
}

func (n *Nexus) Compare(ctx *CompareContext, next func(*CompareContext) (bool, error)) (bool, error) {
	p, ok := n.find(ctx.DN)
	if !ok {
		return false, d.NewLdapError(d.NoSuchObject, nil, "no partition registered for %s", ctx.DN)
	}

	entry, err := p.Lookup(ctx.DN)
	if err != nil {
		return false, err
	}
	return entry.ContainsAttrVal(ctx.Attr, ctx.Value)
}

// rootDSE synthesizes a pseudo-entry aggregating namingContexts from
// every registered partition. It carries no DN of its own.
func (n *Nexus) rootDSE() *d.Entry {
	e := d.NewUnvalidatedEntry(d.DN{})

	namingContexts, ok := n.schema.FindAttribute("namingContexts")
	if !ok {
		return e
	}

	vals := make([]string, len(n.partitions))
	for i, p := range n.partitions {
		suffix := p.Suffix()
		vals[i] = suffix.String()
	}
	e.AddAttrUnsafe(namingContexts, vals...)

	return e
}
