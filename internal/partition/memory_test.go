package partition

import (
	"errors"
	"strings"
	"testing"

	c "ldapcore/internal/core"
	d "ldapcore/internal/domain"
	"ldapcore/internal/util"
)

var attrs = map[string]*d.Attribute{
	"dc":                       util.UnwrapOk(schema.FindAttribute("dc")),
	"ou":                       util.UnwrapOk(schema.FindAttribute("ou")),
	"cn":                       util.UnwrapOk(schema.FindAttribute("cn")),
	"sn":                       util.UnwrapOk(schema.FindAttribute("sn")),
	"facsimileTelephoneNumber": util.UnwrapOk(schema.FindAttribute("facsimileTelephoneNumber")),
	"givenName":                util.UnwrapOk(schema.FindAttribute("givenName")),
}

var objClasses = map[string]*d.ObjectClass{
	"person": util.UnwrapOk(schema.FindObjectClass("person")),
}

func containsAttribute(t *testing.T, p *MemoryPartition, dn d.DN, attr *d.Attribute, val string) bool {
	t.Helper()
	entry, err := p.Lookup(dn)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := entry.ContainsAttrVal(attr, val)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

func drainCursor(t *testing.T, cur c.Cursor) []*d.Entry {
	t.Helper()
	defer cur.Close()

	var out []*d.Entry
	for ok, err := cur.First(); ok; ok, err = cur.Next() {
		if err != nil {
			t.Fatal(err)
		}
		e, err := cur.Get()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, e)
	}
	return out
}

func TestLookupFindsByDn(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if _, err := p.Lookup(dn); err != nil {
		t.Errorf("did not retrieve entry: %s", err)
	}
}

func TestLookupFailsReturnsMatchedDn(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Nonexistent").Build()

	expectedMatchedDn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").Build()

	_, err := p.Lookup(dn)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ldapErr d.LdapError
	if !errors.As(err, &ldapErr) {
		t.Fatalf("expected ldap err, got %s", err)
	}

	if ldapErr.ResultCode != d.NoSuchObject {
		t.Fatalf("expected NoSuchObject ldap err, got %s", ldapErr.ResultCode)
	}

	if ldapErr.MatchedDN == "" {
		t.Fatal("expected matched dn, got empty string")
	}

	if ldapErr.MatchedDN != expectedMatchedDn.String() {
		t.Errorf("expected matched DN (%s), got (%s)", expectedMatchedDn, ldapErr.MatchedDN)
	}
}

func TestAddPutsEntryInTreeWithRdnAttr(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "New Object").Build()

	entry, err := d.NewEntry(schema, dn,
		d.WithStructural(objClasses["person"]),
		d.WithEntryAttr(attrs["sn"], "Object"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Add(entry); err != nil {
		t.Fatalf("error adding new entry: %s", err)
	}

	entry, err = p.Lookup(dn)
	if err != nil {
		t.Fatalf("error retrieving new entry after adding: %s", err)
	}

	expAttrs := []struct {
		attr *d.Attribute
		val  string
	}{
		{attrs["sn"], "Object"},
		{attrs["cn"], "New Object"},
	}

	for _, exp := range expAttrs {
		contains, err := entry.ContainsAttrVal(exp.attr, exp.val)
		if err != nil {
			t.Errorf("error matching attr: %s %s, %s", exp.attr.Oid(), exp.val, err)
		}
		if !contains {
			t.Errorf("entry is missing attr: %s %s", exp.attr.Oid(), exp.val)
		}
	}
}

func TestDeleteRemovesLeafNode(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if err := p.Delete(dn); err != nil {
		t.Fatal("error deleting entry: ", err)
	}

	_, err := p.Lookup(dn)

	var ldapErr d.LdapError
	if !errors.As(err, &ldapErr) {
		t.Fatal("expected ldap error getting deleted entry, got: ", err)
	}
	if ldapErr.ResultCode != d.NoSuchObject {
		t.Fatal("expected NoSuchObject error getting deleted entry, got: ", err)
	}
}

func TestDeleteFailsOnNonLeafNode(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["ou"], "TestOu").Build()

	err := p.Delete(dn)
	if !errors.Is(err, d.ErrNodeNotLeaf) {
		t.Fatal("expected node-not-leaf error, got: ", err)
	}
}

func TestModifyAddAddsAttributes(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if err := p.Modify(dn, d.AddOperation(attrs["facsimileTelephoneNumber"], "12345")); err != nil {
		t.Fatal("got error modifying entry: ", err)
	}

	if !containsAttribute(t, p, dn, attrs["facsimileTelephoneNumber"], "12345") {
		t.Fatal("attribute not added to entry: ", dn)
	}
}

func TestModifyDeleteSingleDeletesAttribute(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if err := p.Modify(dn, d.DeleteOperation(attrs["sn"], "One-Two")); err != nil {
		t.Fatal("got error modifying entry: ", err)
	}

	if containsAttribute(t, p, dn, attrs["sn"], "One-Two") {
		t.Fatal("attribute not deleted from entry: ", dn)
	}
	if !containsAttribute(t, p, dn, attrs["sn"], "One") {
		t.Fatal("unrelated attribute value deleted from entry: ", dn)
	}
}

func TestModifyDeleteAllDeletesAttributes(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if err := p.Modify(dn, d.DeleteOperation(attrs["sn"])); err != nil {
		t.Fatal("got error modifying entry: ", err)
	}

	if containsAttribute(t, p, dn, attrs["sn"], "One") {
		t.Fatal("attribute not fully deleted from entry: ", dn)
	}
}

func TestModifyReplaceReplacesAttributes(t *testing.T) {
	p := NewTestPartition(schema)
	dn := d.NewDnBuilder().AddNamingContext(attrs["dc"], "dev", "georgiboy").AddAvaAsRdn(attrs["cn"], "Test1").Build()

	if err := p.Modify(dn, d.ReplaceOperation(attrs["sn"], "Three", "Three-Four")); err != nil {
		t.Fatal("got error modifying entry: ", err)
	}

	if containsAttribute(t, p, dn, attrs["sn"], "One") {
		t.Fatal("old attribute value not replaced: ", dn)
	}
	if !containsAttribute(t, p, dn, attrs["sn"], "Three") {
		t.Fatal("new attribute value Three not present: ", dn)
	}
	if !containsAttribute(t, p, dn, attrs["sn"], "Three-Four") {
		t.Fatal("new attribute value Three-Four not present: ", dn)
	}
}

/*
Transforms this tree:
| dc=dev
--| dc=georgiboy
----| cn=Test1
----| ou=TestOu
------| cn=Test2
------| cn=Test3

into:
| dc=dev
--| dc=georgiboy
----| ou=TestOu
------| givenName=Test1Moved
------| cn=Test2
------| cn=Test3
*/
func TestMoveAndRenameChangesRdnAndMovesEntry(t *testing.T) {
	p := NewTestPartition(schema)

	dn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["cn"], "Test1").
		Build()

	rdn := d.NewRDN(d.WithAVA(attrs["givenName"], "Test1Moved"))

	newSuperDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").
		Build()

	var sb strings.Builder
	p.Dump(&sb)
	t.Log(sb.String())

	if err := p.MoveAndRename(dn, newSuperDn, rdn, true); err != nil {
		t.Fatal("failed to move and rename entry: ", err)
	}

	newDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").
		AddAvaAsRdn(attrs["givenName"], "Test1Moved").
		Build()

	entry, err := p.Lookup(newDn)
	if err != nil {
		t.Fatal("failed to refetch entry after moving: ", err)
	}

	if !entry.Dn().Equals(newDn) {
		t.Fatalf("failed to update DN of entry, got: %s expected: %s", entry.Dn(), newDn)
	}
}

func TestSearchBaseObject(t *testing.T) {
	p := NewTestPartition(schema)

	baseDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["cn"], "Test1").
		Build()

	entry, err := p.Lookup(baseDn)
	if err != nil {
		t.Fatalf("failed to get entry: %s", err)
	}

	matchingFilter := d.NewEqualityFilter(attrs["cn"], "Test1")
	cur, err := p.Search(baseDn, d.BaseObject, matchingFilter)
	if err != nil {
		t.Fatalf("error in base object search: %s", err)
	}
	res := drainCursor(t, cur)

	if len(res) != 1 {
		t.Fatalf("base object search expected 1 entry but got %d", len(res))
	}
	if !res[0].Dn().Equals(entry.Dn()) {
		t.Fatalf("search returned wrong entry")
	}

	nonMatchingFilter := d.NewEqualityFilter(attrs["cn"], "unknown")
	cur, err = p.Search(baseDn, d.BaseObject, nonMatchingFilter)
	if err != nil {
		t.Fatalf("error in base object search: %s", err)
	}
	res = drainCursor(t, cur)
	if len(res) > 0 {
		t.Fatalf("expected no results, got %d", len(res))
	}
}

func TestSearchSingleLevel(t *testing.T) {
	p := NewTestPartition(schema)

	baseDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		AddAvaAsRdn(attrs["ou"], "TestOu").
		Build()

	filter := d.NewEqualityFilter(attrs["cn"], "Test2")
	cur, err := p.Search(baseDn, d.SingleLevel, filter)
	if err != nil {
		t.Fatalf("error in single level search: %s", err)
	}
	res := drainCursor(t, cur)

	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}

	ok, err := res[0].MatchesRdn(d.NewRDN(d.WithAVA(attrs["cn"], "Test2")))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected {cn:Test2} to be rdn for result")
	}

	filter = d.NewEqualityFilter(attrs["sn"], "Tester")
	cur, err = p.Search(baseDn, d.SingleLevel, filter)
	if err != nil {
		t.Fatalf("error in single level search: %s", err)
	}
	res = drainCursor(t, cur)

	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
}

func TestSearchWholeSubtree(t *testing.T) {
	p := NewTestPartition(schema)

	baseDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		Build()

	filter := d.NewEqualityFilter(attrs["cn"], "Test2")
	cur, err := p.Search(baseDn, d.WholeSubtree, filter)
	if err != nil {
		t.Fatalf("error in whole subtree search: %s", err)
	}
	res := drainCursor(t, cur)

	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}

	ok, err := res[0].MatchesRdn(d.NewRDN(d.WithAVA(attrs["cn"], "Test2")))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected {cn:Test2} to be rdn for only result")
	}

	filter = d.NewEqualityFilter(attrs["sn"], "Tester")
	cur, err = p.Search(baseDn, d.WholeSubtree, filter)
	if err != nil {
		t.Fatalf("error in whole subtree search: %s", err)
	}
	res = drainCursor(t, cur)

	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
}

func TestSearchSubordinateSubtree(t *testing.T) {
	p := NewTestPartition(schema)

	baseDn := d.NewDnBuilder().
		AddNamingContext(attrs["dc"], "dev", "georgiboy").
		Build()

	cur, err := p.Search(baseDn, d.SubordinateSubtree, d.AnyFilter)
	if err != nil {
		t.Fatalf("error in subordinate subtree search: %s", err)
	}
	res := drainCursor(t, cur)

	// everything below dc=georgiboy except dc=georgiboy itself
	if len(res) != 4 {
		t.Fatalf("expected 4 results, got %d", len(res))
	}
}
