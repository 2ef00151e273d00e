package core

import (
	"strings"
	"testing"

	d "ldapcore/internal/domain"
)

var cnAttr = d.NewAttributeBuilder().SetOid(d.OID("2.5.4.3")).AddNames("cn").Build()

func namedEntry(name string) *d.Entry {
	dn := d.NewDnBuilder().AddAvaAsRdn(cnAttr, name).Build()
	return d.NewUnvalidatedEntry(dn)
}

// dnString works around DN.String()'s pointer receiver: e.Dn() returns
// a non-addressable value, so it has to be copied into a local first.
func dnString(e *d.Entry) string {
	dn := e.Dn()
	return dn.String()
}

func entryNames(entries []*d.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = dnString(e)
	}
	return names
}

func drainForward(t *testing.T, c Cursor) []*d.Entry {
	t.Helper()
	var out []*d.Entry
	for ok, err := c.First(); ok; ok, err = c.Next() {
		if err != nil {
			t.Fatal(err)
		}
		e, err := c.Get()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, e)
	}
	return out
}

func TestSliceCursorForwardAndBackward(t *testing.T) {
	entries := []*d.Entry{namedEntry("a"), namedEntry("b"), namedEntry("c")}
	c := NewSliceCursor(entries)
	defer c.Close()

	if got := entryNames(drainForward(t, c)); strings.Join(got, ",") != "cn=a,cn=b,cn=c" {
		t.Fatalf("unexpected forward traversal: %v", got)
	}

	ok, err := c.Last()
	if err != nil || !ok {
		t.Fatalf("Last() = %v, %v", ok, err)
	}
	var backward []*d.Entry
	for ok {
		e, err := c.Get()
		if err != nil {
			t.Fatal(err)
		}
		backward = append(backward, e)
		ok, err = c.Previous()
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := entryNames(backward); strings.Join(got, ",") != "cn=c,cn=b,cn=a" {
		t.Fatalf("unexpected backward traversal: %v", got)
	}
}

func TestSliceCursorEmptyIsNeverAvailable(t *testing.T) {
	c := NewSliceCursor(nil)
	defer c.Close()

	ok, err := c.First()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("First() on an empty cursor should return false")
	}
	if c.Available() {
		t.Fatal("an empty cursor should never report Available")
	}
}

func TestSliceCursorGetAfterCloseErrors(t *testing.T) {
	c := NewSliceCursor([]*d.Entry{namedEntry("a")})
	if _, err := c.First(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(); err == nil {
		t.Fatal("expected Get() on a closed cursor to error")
	}
}

func TestAndCursorJoinsOnSmallestBranchAsDriver(t *testing.T) {
	a, b, c := namedEntry("a"), namedEntry("b"), namedEntry("c")

	notD := func(e *d.Entry) bool { return dnString(e) != "cn=d" }
	bOrC := func(e *d.Entry) bool {
		s := dnString(e)
		return s == "cn=b" || s == "cn=c"
	}

	branchNotD := NewSliceCursor([]*d.Entry{a, b, c})
	branchBOrC := NewSliceCursor([]*d.Entry{b, c})

	joined := NewAndCursor(
		[]Cursor{branchNotD, branchBOrC},
		[]d.Filter{notD, bOrC},
	)
	defer joined.Close()

	if ac, ok := joined.(*andCursor); !ok || ac.driver != branchBOrC {
		t.Fatal("expected the smaller branch (cn=b, cn=c) to be chosen as driver")
	}

	got := entryNames(drainForward(t, joined))
	if strings.Join(got, ",") != "cn=b,cn=c" {
		t.Fatalf("expected intersection [cn=b, cn=c], got %v", got)
	}
}

func TestAndCursorEmptyBranchYieldsNoResults(t *testing.T) {
	branchA := NewSliceCursor([]*d.Entry{namedEntry("a")})
	branchEmpty := NewSliceCursor(nil)

	joined := NewAndCursor(
		[]Cursor{branchA, branchEmpty},
		[]d.Filter{d.AnyFilter, d.AnyFilter},
	)
	defer joined.Close()

	if len(drainForward(t, joined)) != 0 {
		t.Fatal("expected an empty branch to drive the join to zero results")
	}
}

func TestNewAndCursorNoBranches(t *testing.T) {
	joined := NewAndCursor(nil, nil)
	defer joined.Close()

	if len(drainForward(t, joined)) != 0 {
		t.Fatal("expected NewAndCursor with no branches to yield an empty cursor")
	}
}
