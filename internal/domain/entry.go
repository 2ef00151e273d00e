package domain

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"ldapcore/internal/util"
)

type Entry struct {
	dn         DN
	structural *ObjectClass
	auxiliary  map[*ObjectClass]struct{}
	attrs      map[*Attribute]map[string]struct{}
}

type EntryOption func(*Entry)

func WithStructural(s *ObjectClass) EntryOption {
	return func(e *Entry) {
		e.structural = s
	}
}

func WithAuxiliary(aux ...*ObjectClass) EntryOption {
	// TODO check and shake dependencies
	return func(e *Entry) {
		for _, oc := range aux {
			e.auxiliary[oc] = struct{}{}
		}
	}
}

func WithEntryAttr(attr *Attribute, val ...string) EntryOption {
	return func(e *Entry) {
		e.AddAttr(attr, val...)
	}
}

// WithDN overrides the entry's DN. Useful when the DN is only known once
// the caller has resolved the target partition, after the rest of the
// entry has already been built from a wire request.
func WithDN(dn DN) EntryOption {
	return func(e *Entry) {
		e.dn = dn
	}
}

// WithObjClass sorts a mixed list of object classes (as supplied by an
// add request's objectClass attribute values) into the entry's
// structural slot and auxiliary set based on each class's kind.
func WithObjClass(objClasses ...*ObjectClass) EntryOption {
	return func(e *Entry) {
		for _, oc := range objClasses {
			if oc.kind == Structural {
				e.structural = oc
				continue
			}
			e.auxiliary[oc] = struct{}{}
		}
	}
}

func NewEntry(schema *Schema, dn DN, options ...EntryOption) (*Entry, error) {
	e := &Entry{
		dn:        dn,
		auxiliary: map[*ObjectClass]struct{}{},
		attrs:     map[*Attribute]map[string]struct{}{},
	}

	for _, o := range options {
		o(e)
	}

	// include DN attributes if not already
	for attr, val := range dn.GetRDN().avas {
		e.AddAttr(attr, val)
	}

	if err := schema.ValidateEntry(e); err != nil {
		return nil, err
	}

	return e, nil
}

// NewUnvalidatedEntry builds an entry without running it through
// schema validation, for pseudo-entries that don't conform to the
// object class model, such as the synthesized root DSE.
func NewUnvalidatedEntry(dn DN, options ...EntryOption) *Entry {
	e := &Entry{
		dn:        dn,
		auxiliary: map[*ObjectClass]struct{}{},
		attrs:     map[*Attribute]map[string]struct{}{},
	}

	for _, o := range options {
		o(e)
	}

	return e
}

func (e *Entry) Dn() DN {
	return e.dn
}

// SetDN overwrites the entry's DN. Used by a partition once it has
// resolved an entry's position in the tree (insert under its new
// parent, or move/rename to a new superior), never by request-building
// code - use the WithDN option there instead.
func (e *Entry) SetDN(dn DN) {
	e.dn = dn
}

func (e *Entry) Clone() *Entry {
	return &Entry{
		dn:         e.dn.Clone(),
		structural: e.structural,
		auxiliary:  util.CloneMap(e.auxiliary),
		attrs:      util.CloneMapNested(e.attrs),
	}
}

// Assumes that the caller knows what their doing, and that they won't
// violate any DIT rules e.g. singleval. Required by Modify Operation,
// which allows for the entry to be temporarlily invalid
func (e *Entry) AddAttrUnsafe(attr *Attribute, val ...string) {
	for _, v := range val {
		aVals, ok := e.attrs[attr]
		if !ok {
			aVals = map[string]struct{}{}
		}

		aVals[v] = struct{}{}
		e.attrs[attr] = aVals
	}
}

func (e *Entry) AddAttr(attr *Attribute, val ...string) error {
	if !attr.SingleVal() {
		e.AddAttrUnsafe(attr, val...)
		return nil
	}

	if len(val) != 1 {
		return fmt.Errorf("trying to add %d attributes to single val attr %s", len(val), attr.Oid())
	}
	e.attrs[attr] = map[string]struct{}{val[0]: {}}
	return nil
}

// AttrValues returns the current values held for attr, or nil if the
// entry does not have attr at all.
func (e *Entry) AttrValues(attr *Attribute) []string {
	vals, ok := e.attrs[attr]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(vals))
	for v := range vals {
		out = append(out, v)
	}
	return out
}

// Attrs returns every attribute held by the entry together with its
// values, for callers - such as a search response projector - that
// need to walk the whole entry rather than look up one attribute at a
// time.
func (e *Entry) Attrs() map[*Attribute][]string {
	out := make(map[*Attribute][]string, len(e.attrs))
	for attr := range e.attrs {
		out[attr] = e.AttrValues(attr)
	}
	return out
}

func (e *Entry) HasAttr(attr *Attribute) bool {
	_, ok := e.attrs[attr]
	return ok
}

// ObjectClasses returns the entry's structural class followed by its
// auxiliary classes.
func (e *Entry) ObjectClasses() []*ObjectClass {
	ocs := make([]*ObjectClass, 0, len(e.auxiliary)+1)
	if e.structural != nil {
		ocs = append(ocs, e.structural)
	}
	for oc := range e.auxiliary {
		ocs = append(ocs, oc)
	}
	return ocs
}

func (e *Entry) StructuralObjectClass() *ObjectClass {
	return e.structural
}

func (e *Entry) ConatinsObjectClass(objClass *ObjectClass) bool {
	if e.structural == objClass {
		return true
	}
	_, ok := e.auxiliary[objClass]
	return ok
}

func (e *Entry) ContainsAttrVal(attr *Attribute, val string) (bool, error) {
	a, ok := e.attrs[attr]
	if !ok {
		return false, nil
	}

	matched := false
	var undefined error
	for v := range a {
		eq, ok := attr.EqRule()
		if !ok {
			return false, NewLdapError(InappropriateMatching, nil, "attr %s does not have an eq rule", attr.Oid())
		}
		m, err := eq.Match(val, v)
		if err != nil {
			if errors.Is(err, UndefinedMatch) {
				undefined = err
			} else {
				return false, err
			}
		}

		if m {
			matched = true
		}
	}

	return matched, undefined
}

// Removes val from attr, dropping the attribute once its last value is
// gone. Returns an error if the attribute or the value is not present.
func (e *Entry) RemoveAttrVal(attr *Attribute, val string) error {
	a, ok := e.attrs[attr]
	if !ok {
		return fmt.Errorf("could not find attr %s to remove", attr.Oid())
	}

	if _, ok := a[val]; !ok {
		return fmt.Errorf("could not find value %s to remove", val)
	}

	delete(a, val)

	if len(a) == 0 {
		delete(e.attrs, attr)
	}

	return nil
}

func (e *Entry) RemoveAttrVals(attr *Attribute) bool {
	log.Print(e.attrs)
	if _, ok := e.attrs[attr]; !ok {
		return false
	}
	delete(e.attrs, attr)
	return true
}

func (e *Entry) SetRDN(rdn RDN, deleteOld bool) error {
	currRdn := e.dn.GetRDN()

	// do nothing if the rdns are the same
	if CompareRDNs(currRdn, &rdn) {
		return nil
	}

	// add any new attributes from the rdn into entry
	for a, v := range rdn.avas {
		contains, err := e.ContainsAttrVal(a, v)
		if err != nil {
			return err
		}

		if contains {
			continue
		}

		if err = e.AddAttr(a, v); err != nil {
			return err
		}
	}

	if deleteOld {
		for attr, val := range currRdn.avas {
			if err := e.RemoveAttrVal(attr, val); err != nil {
				return err
			}
		}
	}

	*currRdn = rdn
	return nil
}

func (e *Entry) MatchesRdn(rdn RDN) (bool, error) {
	for attr, val := range rdn.avas {
		contains, err := e.ContainsAttrVal(attr, val)
		if errors.Is(err, UndefinedMatch) {
			return false, nil
		} else if err != nil {
			return false, err
		}

		if !contains {
			return false, nil
		}
	}

	return true, nil
}

type ChangeOperation func(*Entry) error

func AddOperation(attr *Attribute, vals ...string) ChangeOperation {
	return func(e *Entry) error {
		for _, val := range vals {
			e.AddAttr(attr, val)
		}

		return nil
	}
}

func DeleteOperation(attr *Attribute, vals ...string) ChangeOperation {
	return func(e *Entry) error {
		if len(vals) == 0 {
			e.RemoveAttrVals(attr)
			return nil
		}

		for _, val := range vals {
			e.RemoveAttrVal(attr, val)
		}

		return nil
	}
}

func ReplaceOperation(attr *Attribute, vals ...string) ChangeOperation {
	return func(e *Entry) error {
		// do nothing if the attribue does not exist
		if !e.RemoveAttrVals(attr) {
			log.Printf("replace attr does not exist: \"%s\"", attr.Oid())
			return nil
		}

		for _, val := range vals {
			e.AddAttr(attr, val)
		}

		return nil
	}
}

func (e *Entry) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "Entry: \nStructural: %s\nAuxiliary: ", e.structural.Name())
	for oc := range e.auxiliary {
		fmt.Fprintf(&sb, " %s", oc.Name())
	}
	sb.WriteString("\nAttributes:\n")
	for attr, vals := range e.attrs {
		fmt.Fprintf(&sb, "\t%s:", attr.Name())
		for val := range vals {
			fmt.Fprintf(&sb, " %s", val)
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
