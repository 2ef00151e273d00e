package ldif

import (
	"context"
	"fmt"
	"io"

	core "ldapcore/internal/core"
	d "ldapcore/internal/domain"
)

// objectClassOpt and attributeOpts mirror app.AddService's entry-building
// helpers: same resolution against the schema, reimplemented here
// because AddService's methods are unexported and wired to svc.Add,
// not the bypassing svc.ApplyEntry this package needs.
func objectClassOpt(schema *d.Schema, attrs map[string][]string) (d.EntryOption, error) {
	vals, ok := attrs["objectClass"]
	if !ok {
		return nil, d.NewLdapError(d.ObjectClassViolation, nil, "entry has no objectClass")
	}
	ocs := make([]*d.ObjectClass, 0, len(vals))
	for _, v := range vals {
		oc, ok := schema.FindObjectClass(v)
		if !ok {
			return nil, d.NewLdapError(d.NoSuchAttribute, nil, "unknown object class %q", v)
		}
		ocs = append(ocs, oc)
	}
	return d.WithObjClass(ocs...), nil
}

func attributeOpts(schema *d.Schema, attrs map[string][]string) ([]d.EntryOption, error) {
	opts := make([]d.EntryOption, 0, len(attrs))
	for name, vals := range attrs {
		if name == "objectClass" {
			continue
		}
		attr, ok := schema.FindAttribute(name)
		if !ok {
			return nil, d.NewLdapError(d.UndefinedAttributeType, nil, "unknown attribute %q", name)
		}
		opts = append(opts, d.WithEntryAttr(attr, vals...))
	}
	return opts, nil
}

func buildEntry(schema *d.Schema, rec *Record) (*d.Entry, error) {
	dn, err := d.NormaliseDN(schema, rec.DN)
	if err != nil {
		return nil, err
	}

	opts := []d.EntryOption{d.WithDN(dn)}

	ocOpt, err := objectClassOpt(schema, rec.Attributes)
	if err != nil {
		return nil, err
	}
	opts = append(opts, ocOpt)

	attrOpts, err := attributeOpts(schema, rec.Attributes)
	if err != nil {
		return nil, err
	}
	opts = append(opts, attrOpts...)

	return d.NewEntry(schema, dn, opts...)
}

// Apply parses LDIF entry records from r and adds each one through svc,
// re-entering the interceptor chain with every stage bypassed except
// schema validation. It is idempotent - an entry that already exists is
// skipped rather than treated as a failure - so bootstrap fixtures and
// test harnesses can safely re-run the same LDIF file. Parsing happens
// up front; a malformed record fails the whole call before anything is
// added, but once ingest starts, one entry's failure does not stop the
// rest - failures are collected and returned together.
func Apply(ctx context.Context, svc *core.DirectoryService, schema *d.Schema, session *core.Session, r io.Reader) error {
	records, err := ParseEntries(r)
	if err != nil {
		return err
	}

	var failures []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := buildEntry(schema, rec)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", rec.DN, err))
			continue
		}
		if err := svc.ApplyEntry(session, entry); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", rec.DN, err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("ldif: %d of %d entries failed: %w", len(failures), len(records), failures[0])
	}
	return nil
}
