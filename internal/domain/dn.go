package domain

import (
	"slices"
	"strings"
)

type (
	ID uint64
)

// type AVA struct {
// 	attr *schema.Attribute
// 	Val  string
// }

// func (a AVA) String() string {
// 	return string(a.attr.Oid()) + "=" + a.Val
// }

type RDNOption func(*RDN)

func WithAVA(attr *Attribute, val string) RDNOption {
	return func(r *RDN) {
		r.avas[attr] = val
	}
}

type RDN struct {
	avas map[*Attribute]string
}

func NewRDN(options ...RDNOption) RDN {
	r := RDN{map[*Attribute]string{}}

	for _, o := range options {
		o(&r)
	}

	return r
}

// AVAs exposes the RDN's attribute/value pairs for callers outside the
// package that need to walk them, such as a partition inserting a new
// leaf node's naming attributes into its entry.
func (r RDN) AVAs() map[*Attribute]string {
	return r.avas
}

func (r RDN) Clone() RDN {
	avas := map[*Attribute]string{}
	for o, a := range r.avas {
		avas[o] = a
	}

	return RDN{avas}
}

func CompareRDNs(r1, r2 *RDN) bool {
	if len(r1.avas) != len(r2.avas) {
		return false
	}

	for attr, val1 := range r1.avas {
		val2, ok := r2.avas[attr]
		if !ok {
			return false
		}

		eq, ok := attr.EqRule()
		if !ok {
			logger.Printf("attribute %s does not have an eq rule", attr)
			return false
		}

		if ok, err := eq.Match(val1, val2); !ok || err != nil {
			return false
		}
	}

	return true
}

func (r RDN) String() string {
	avas := []string{}
	for attr, val := range r.avas {
		ava := attr.Name() + "=" + val
		avas = append(avas, ava)
	}

	return strings.Join(avas, "+")
}

type DN struct {
	/*
		rdns are stored from right to left as they appear in the string
		ie ou=OrgUnit,dc=example,dc=com is stored as
		rdns[0] == dc=com
		rdns[1] == dc=example
		rdns[2] == ou=OrgUnit
	*/
	rdns []RDN
}

type DnBuilder struct {
	dn DN
}

func NewDnBuilder() *DnBuilder {
	return &DnBuilder{dn: DN{rdns: []RDN{}}}
}

// TODO does the of context strings make sense?
func (b *DnBuilder) AddNamingContext(dcAttr *Attribute, context ...string) *DnBuilder {
	for _, dc := range context {
		b.AddAvaAsRdn(dcAttr, dc)
	}
	return b
}

func (b *DnBuilder) AddAvaAsRdn(attr *Attribute, val string) *DnBuilder {
	b.dn.rdns = append(b.dn.rdns, NewRDN(WithAVA(attr, val)))
	return b
}

func (b *DnBuilder) AddAvaToCurrentRdn(attr *Attribute, val string) *DnBuilder {
	if len(b.dn.rdns) == 0 {
		return b.AddAvaAsRdn(attr, val)
	}

	b.dn.rdns[len(b.dn.rdns)-1].avas[attr] = val
	return b
}

func (b *DnBuilder) Build() DN {
	return b.dn
}

func (dn DN) Clone() DN {
	rdns := []RDN{}
	for _, r := range dn.rdns {
		rdns = append(rdns, r.Clone())
	}

	return DN{rdns}
}

func CompareDNs(dn1, dn2 DN) bool {
	if len(dn1.rdns) != len(dn2.rdns) {
		return false
	}

	for i := range dn1.rdns {
		if !CompareRDNs(&dn1.rdns[i], &dn2.rdns[i]) {
			return false
		}
	}

	return true
}

func (dn *DN) AddRDN(rdn RDN) {
	dn.rdns = append(dn.rdns, rdn)
}

// Replaces the deepest rdn (the first rdn that shows when stringified) with a new rdn
// Useful for the ModifyDN request
func (dn *DN) ReplaceRDN(rdn RDN) {
	dn.rdns[len(dn.rdns)-1] = rdn
}

// Returns the deepest rdn
// TODO not sure this func is obvious enough
func (dn *DN) GetRDN() *RDN {
	return &dn.rdns[len(dn.rdns)-1]
}

func (dn DN) GetParentDN() DN {
	return DN{dn.rdns[:len(dn.rdns)-1]}
}

// IsRoot reports whether dn is the empty DN (the root DSE), which has
// no parent and no RDNs of its own.
func (dn DN) IsRoot() bool {
	return len(dn.rdns) == 0
}

func (dn DN) Depth() int {
	return len(dn.rdns)
}

func (d *DN) String() string {
	if d == nil {
		return ""
	}
	rdns := []string{}
	for i := range d.rdns {
		rdns = append(rdns, d.rdns[len(d.rdns)-i-1].String())
	}

	return strings.Join(rdns, ",")
}

func (dn DN) Equals(other DN) bool {
	return CompareDNs(dn, other)
}

// IsAncestorOf reports whether dn is a strict ancestor of other, ie
// other's rdns begin with dn's rdns and other has at least one more.
func (dn DN) IsAncestorOf(other DN) bool {
	if len(dn.rdns) >= len(other.rdns) {
		return false
	}

	for i := range dn.rdns {
		if !CompareRDNs(&dn.rdns[i], &other.rdns[i]) {
			return false
		}
	}

	return true
}

// DescendantRDNs returns the RDNs of dn that lie below ancestor, ie the
// suffix of dn.rdns once ancestor's rdns are stripped off the front.
// Panics if ancestor is not an ancestor of (or equal to) dn.
func (dn DN) DescendantRDNs(ancestor DN) []RDN {
	return dn.rdns[len(ancestor.rdns):]
}

// RDNs exposes the full right-to-left RDN slice for callers outside the
// package that need to walk a DN's structure, such as a partition
// descending its tree one RDN at a time.
func (dn DN) RDNs() []RDN {
	return dn.rdns
}

func attrValFromStr(schema *Schema, s string) (*Attribute, string, error) {
	spl := strings.Split(s, "=")
	// TODO could be wrong
	if len(spl) != 2 {
		// TODO should technically be providing a matched dn here but to hard
		return nil, "", NewLdapError(InvalidDnSyntax, nil, "malformed ava: %s", s)
	}

	attr, ok := schema.FindAttribute(strings.TrimSpace(spl[0]))
	if !ok {
		// return nil, "", fmt.Errorf("unknown attribute %q", strings.TrimSpace(spl[0]))
		return nil, "", NewLdapError(UndefinedAttributeType, nil, "unknown attribute %q", strings.TrimSpace(spl[0]))
	}

	return attr, spl[1], nil
}

// NormaliseRDN parses a single RDN component, eg "cn=Test+sn=User".
func NormaliseRDN(schema *Schema, s string) (RDN, error) {
	avas := strings.Split(s, "+")
	r := NewRDN()
	for _, ava := range avas {
		attr, val, err := attrValFromStr(schema, ava)
		if err != nil {
			return RDN{}, err
		}
		r.avas[attr] = val
	}
	return r, nil
}

// TODO this is definitely not a complete DN parser, though probs good enough for now
func NormaliseDN(schema *Schema, s string) (DN, error) {
	b := NewDnBuilder()
	rdns := strings.Split(s, ",")
	slices.Reverse(rdns)

	for _, spl := range rdns {
		avas := strings.Split(spl, "+")
		a, v, err := attrValFromStr(schema, avas[0])
		if err != nil {
			return DN{}, err
		}
		b.AddAvaAsRdn(a, v)
		for _, ava := range avas[1:] {
			a, v, err := attrValFromStr(schema, ava)
			if err != nil {
				return DN{}, err
			}
			b.AddAvaToCurrentRdn(a, v)
		}
	}

	return b.Build(), nil
}
