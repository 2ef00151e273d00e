package app

import (
	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
)

// AddService translates a wire-level add request into a directory
// service call, resolving attribute and object class names against
// the schema before the entry is built.
type AddService struct {
	schema *d.Schema
	svc    *core.DirectoryService
}

func NewAddService(schema *d.Schema, svc *core.DirectoryService) *AddService {
	return &AddService{schema, svc}
}

type AddRequest interface {
	Dn() string
	Attributes() map[string][]string
}

func (a *AddService) objectClassOpt(reqAttrs map[string][]string) (d.EntryOption, error) {
	// TODO does oid need to be checked as well?
	vals, ok := reqAttrs["objectClass"]
	if !ok {
		return nil, d.NewLdapError(d.ObjectClassViolation, nil, "no object class was specified for entry")
	}

	objclss := []*d.ObjectClass{}
	for _, v := range vals {
		o, ok := a.schema.FindObjectClass(v)
		if !ok {
			return nil, d.NewLdapError(d.NoSuchAttribute, nil, "could not find object class with name %s", v)
		}
		objclss = append(objclss, o)
	}

	return d.WithObjClass(objclss...), nil
}

func (a *AddService) attributeOpts(reqAttrs map[string][]string) ([]d.EntryOption, error) {
	opts := []d.EntryOption{}
	for name, vals := range reqAttrs {
		if name == "objectClass" {
			// handle ocs separately
			continue
		}
		attr, ok := a.schema.FindAttribute(name)
		if !ok {
			return nil, d.NewLdapError(d.UndefinedAttributeType, nil, "unknown attribute %s", name)
		}

		opts = append(opts, d.WithEntryAttr(attr, vals...))
	}

	return opts, nil
}

func (a *AddService) AddEntry(session *core.Session, ar AddRequest) (*d.Entry, error) {
	dn, err := d.NormaliseDN(a.schema, ar.Dn())
	if err != nil {
		return nil, err
	}

	reqAttrs := ar.Attributes()

	opts := []d.EntryOption{d.WithDN(dn)}
	ocs, err := a.objectClassOpt(reqAttrs)
	if err != nil {
		return nil, err
	}
	opts = append(opts, ocs)

	attrs, err := a.attributeOpts(reqAttrs)
	if err != nil {
		return nil, err
	}
	opts = append(opts, attrs...)

	entry, err := d.NewEntry(a.schema, dn, opts...)
	if err != nil {
		return nil, err
	}

	if err := a.svc.Add(session, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
