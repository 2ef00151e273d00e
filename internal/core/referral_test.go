package core

import (
	"errors"
	"testing"

	d "ldapcore/internal/domain"
)

// fakeDIT is a minimal terminal.Interceptor standing in for the nexus:
// a flat DN->entry map with no partition structure, just enough for
// ReferralInterceptor's Delete/Lookup/Search to exercise against.
type fakeDIT struct {
	BaseInterceptor
	entries map[string]*d.Entry
}

func newFakeDIT() *fakeDIT {
	return &fakeDIT{BaseInterceptor: NewBaseInterceptor("fakeDIT"), entries: map[string]*d.Entry{}}
}

func (f *fakeDIT) put(e *d.Entry) {
	dn := e.Dn()
	f.entries[dn.String()] = e
}

func (f *fakeDIT) Delete(ctx *DeleteContext, next func(*DeleteContext) error) error {
	key := ctx.DN.String()
	if _, ok := f.entries[key]; !ok {
		return d.NewLdapError(d.NoSuchObject, nil, "no such object: %s", ctx.DN)
	}
	delete(f.entries, key)
	return next(ctx)
}

func (f *fakeDIT) Lookup(ctx *LookupContext, next func(*LookupContext) (*d.Entry, error)) (*d.Entry, error) {
	e, ok := f.entries[ctx.DN.String()]
	if !ok {
		return nil, d.NewLdapError(d.NoSuchObject, nil, "no such object: %s", ctx.DN)
	}
	return e, nil
}

func (f *fakeDIT) Search(ctx *SearchContext, next func(*SearchContext) (Cursor, error)) (Cursor, error) {
	var matched []*d.Entry
	for _, e := range f.entries {
		if ctx.Base.IsAncestorOf(e.Dn()) || ctx.Base.Equals(e.Dn()) {
			if ctx.Filter(e) {
				matched = append(matched, e)
			}
		}
	}
	return NewSliceCursor(matched), nil
}

// referralFixture builds just enough schema (cn, ou, ref, referral) to
// construct referral entries without pulling in internal/ldif or
// internal/partition - ReferralInterceptor only ever touches the
// referral/ref object class and DNs, never the rest of a real schema.
func referralFixture(t *testing.T) (schema *d.Schema, ou, cn, ref *d.Attribute, referralClass *d.ObjectClass) {
	t.Helper()

	ou = d.NewAttributeBuilder().SetOid("2.5.4.11").AddNames("ou").SetEqRule(*d.GetMatchingRuleUnchecked("caseIgnoreMatch")).Build()
	cn = d.NewAttributeBuilder().SetOid("2.5.4.3").AddNames("cn").Build()
	ref = d.NewAttributeBuilder().SetOid("2.16.840.1.113730.3.1.34").AddNames("ref").Build()

	referralClass = d.NewObjectClassBuilder().
		SetOid("2.16.840.1.113730.3.2.6").
		AddName("referral").
		AddSup(d.TopObjectClass).
		SetKind(d.Structural).
		AddMustAttr(ref).
		AddMayAttr(ou).
		Build()

	schema = d.NewSchema(
		map[d.OID]*d.Attribute{ou.Oid(): ou, cn.Oid(): cn, ref.Oid(): ref},
		map[d.OID]*d.ObjectClass{referralClass.Oid(): referralClass},
	)
	return
}

// newReferralTestChain wires a ReferralInterceptor in front of a
// fakeDIT, mirroring NewDirectoryService's ordering (referral checks
// run before anything else reaches the backing store).
func newReferralTestChain(schema *d.Schema, mgr *ReferralManager, dit *fakeDIT) *Chain {
	lookup := func(dn d.DN) (*d.Entry, error) {
		e, ok := dit.entries[dn.String()]
		if !ok {
			return nil, d.NewLdapError(d.NoSuchObject, nil, "no such object: %s", dn)
		}
		return e, nil
	}
	chain := NewChain(dit)
	chain.AddLast(NewReferralInterceptor(schema, mgr, lookup))
	chain.Freeze()
	return chain
}

func mustDN(t *testing.T, s string, ou, cn *d.Attribute) d.DN {
	t.Helper()
	b := d.NewDnBuilder()
	b.AddAvaAsRdn(ou, s)
	return b.Build()
}

// TestDeleteUnderAncestorReferral covers the "delete with ancestor
// referral" seed scenario: a descendant of a known referral fails with
// a referral result carrying the rewritten URL without ManageDsaIT,
// and with ManageDsaIT reaches the (non-existent) backing entry and
// fails no-such-object instead.
func TestDeleteUnderAncestorReferral(t *testing.T) {
	schema, ou, cn, ref, referralClass := referralFixture(t)
	mgr := NewReferralManager()
	dit := newFakeDIT()

	rolesDN := d.NewDnBuilder().AddAvaAsRdn(ou, "Roles").Build()
	rolesEntry, err := d.NewEntry(schema, rolesDN,
		d.WithStructural(referralClass),
		d.WithEntryAttr(ref, "ldap://hostd/ou=Roles,dc=apache,dc=org"),
	)
	if err != nil {
		t.Fatal(err)
	}
	dit.put(rolesEntry)
	mgr.Put(rolesDN, ValidRefURLs(schema, rolesEntry))

	targetDN := rolesDN.Clone()
	xDN := d.NewDnBuilder().AddAvaAsRdn(cn, "X").Build()
	targetDN.AddRDN(*xDN.GetRDN())

	chain := newReferralTestChain(schema, mgr, dit)

	ctx := &DeleteContext{OpContext: newOpContext(nil), DN: targetDN}
	err = chain.Delete(ctx)
	if err == nil {
		t.Fatal("expected a referral error, got nil")
	}
	var refErr d.ReferralError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected d.ReferralError, got %T: %s", err, err)
	}
	if len(refErr.URLs) != 1 || refErr.URLs[0] != "ldap://hostd/cn=X,ou=Roles,dc=apache,dc=org" {
		t.Fatalf("unexpected referral urls: %v", refErr.URLs)
	}

	manageCtx := &DeleteContext{OpContext: newOpContext(nil), DN: targetDN}
	manageCtx.WithManageDsaIT(true)
	err = chain.Delete(manageCtx)

	var ldapErr d.LdapError
	if !errors.As(err, &ldapErr) {
		t.Fatalf("expected d.LdapError with ManageDsaIT set, got %T: %s", err, err)
	}
	if ldapErr.ResultCode != d.NoSuchObject {
		t.Fatalf("expected NoSuchObject with ManageDsaIT set, got %s", ldapErr.ResultCode)
	}
}

// TestDeleteReferralEntryItself covers the "delete referral entry
// itself" seed scenario: with ManageDsaIT, deleting the referral entry
// succeeds like an ordinary delete, and it is gone from both the
// backing store and the referral index afterward.
func TestDeleteReferralEntryItself(t *testing.T) {
	schema, ou, _, ref, referralClass := referralFixture(t)
	mgr := NewReferralManager()
	dit := newFakeDIT()

	rolesDN := d.NewDnBuilder().AddAvaAsRdn(ou, "Roles").Build()
	rolesEntry, err := d.NewEntry(schema, rolesDN,
		d.WithStructural(referralClass),
		d.WithEntryAttr(ref, "ldap://hostd/ou=Roles,dc=apache,dc=org"),
	)
	if err != nil {
		t.Fatal(err)
	}
	dit.put(rolesEntry)
	mgr.Put(rolesDN, ValidRefURLs(schema, rolesEntry))

	chain := newReferralTestChain(schema, mgr, dit)

	withoutManage := &DeleteContext{OpContext: newOpContext(nil), DN: rolesDN}
	if err := chain.Delete(withoutManage); err == nil {
		t.Fatal("expected delete of the referral entry itself to fail without ManageDsaIT")
	}

	manageCtx := &DeleteContext{OpContext: newOpContext(nil), DN: rolesDN}
	manageCtx.WithManageDsaIT(true)
	if err := chain.Delete(manageCtx); err != nil {
		t.Fatalf("expected delete with ManageDsaIT to succeed, got: %s", err)
	}

	lookupCtx := &LookupContext{OpContext: newOpContext(nil), DN: rolesDN}
	_, err = chain.Lookup(lookupCtx)
	var ldapErr d.LdapError
	if !errors.As(err, &ldapErr) || ldapErr.ResultCode != d.NoSuchObject {
		t.Fatalf("expected NoSuchObject looking up the deleted referral entry, got: %s", err)
	}

	if _, ok := mgr.Exact(rolesDN); ok {
		t.Fatal("referral manager still lists the deleted referral entry")
	}
	if _, ok := mgr.Ancestor(rolesDN); ok {
		t.Fatal("referral manager still resolves the deleted referral entry as an ancestor")
	}
}

// TestSearchEmitsContinuationReferenceForDescendant covers §4.3/§4.4's
// "search with base ancestor of R" row: a search whose base sits above
// a known referral gets the referral's own ref values back as a
// continuation reference rather than the plain referral entry.
func TestSearchEmitsContinuationReferenceForDescendant(t *testing.T) {
	schema, ou, _, ref, referralClass := referralFixture(t)
	mgr := NewReferralManager()
	dit := newFakeDIT()

	baseDN := d.NewDnBuilder().Build()

	rolesDN := d.NewDnBuilder().AddAvaAsRdn(ou, "Roles").Build()
	rolesEntry, err := d.NewEntry(schema, rolesDN,
		d.WithStructural(referralClass),
		d.WithEntryAttr(ref, "ldap://hostd/ou=Roles,dc=apache,dc=org"),
	)
	if err != nil {
		t.Fatal(err)
	}
	dit.put(rolesEntry)
	mgr.Put(rolesDN, ValidRefURLs(schema, rolesEntry))

	chain := newReferralTestChain(schema, mgr, dit)

	ctx := &SearchContext{OpContext: newOpContext(nil), Base: baseDN, Scope: d.WholeSubtree, Filter: d.AnyFilter}
	cur, err := chain.Search(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	var found *d.Entry
	for ok, err := cur.First(); ok; ok, err = cur.Next() {
		if err != nil {
			t.Fatal(err)
		}
		e, err := cur.Get()
		if err != nil {
			t.Fatal(err)
		}
		if e.Dn().Equals(rolesDN) {
			found = e
		}
	}

	if found == nil {
		t.Fatal("expected a continuation reference entry for the descendant referral")
	}
	if !IsReferralEntry(schema, found) {
		t.Fatal("expected the continuation reference entry to be recognized as a referral")
	}
	urls := found.AttrValues(ref)
	if len(urls) != 1 || urls[0] != "ldap://hostd/ou=Roles,dc=apache,dc=org" {
		t.Fatalf("unexpected continuation reference urls: %v", urls)
	}
}
