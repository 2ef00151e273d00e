package core

import (
	"errors"

	d "ldapcore/internal/domain"
)

// DirectoryService is the sole entry point external callers - the wire
// adapter, LDIF ingest, embedded callers - use to reach the directory.
// It owns the schema, the interceptor chain, the partition nexus, the
// referral manager, and the change-log.
type DirectoryService struct {
	Schema    *d.Schema
	Nexus     *Nexus
	Referrals *ReferralManager
	Changes   *ChangeLog
	chain     *Chain
}

// NewDirectoryService wires the standard interceptor order: referral
// detection runs first so a request against a delegated subtree never
// reaches schema checks or the partition at all.
func NewDirectoryService(schema *d.Schema) *DirectoryService {
	nexus := NewNexus(schema)
	mgr := NewReferralManager()

	svc := &DirectoryService{
		Schema:    schema,
		Nexus:     nexus,
		Referrals: mgr,
	}

	svc.Changes = NewChangeLog()

	chain := NewChain(nexus)
	chain.AddLast(NewReferralInterceptor(schema, mgr, nexus.LookupDirect))
	chain.AddLast(NewSchemaInterceptor(schema, nexus.LookupDirect))
	chain.Freeze()
	svc.chain = chain

	return svc
}

// RegisterPartition adds a partition to the nexus and seeds the
// referral manager with any referral entries already present under
// its suffix.
func (s *DirectoryService) RegisterPartition(p Partition) error {
	s.Nexus.Register(p)

	cur, err := p.Search(p.Suffix(), d.WholeSubtree, func(e *d.Entry) bool {
		return IsReferralEntry(s.Schema, e)
	})
	if err != nil {
		return err
	}
	defer cur.Close()

	for ok, err := cur.First(); ok; ok, err = cur.Next() {
		if err != nil {
			return err
		}
		e, err := cur.Get()
		if err != nil {
			return err
		}
		s.Referrals.Put(e.Dn(), ValidRefURLs(s.Schema, e))
	}

	return nil
}

func (s *DirectoryService) Add(session *Session, entry *d.Entry) error {
	ctx := &AddContext{OpContext: newOpContext(session), Entry: entry}
	if err := s.chain.Add(ctx); err != nil {
		return err
	}
	s.Changes.Record(func() error {
		reverse := &DeleteContext{OpContext: newOpContext(session), DN: entry.Dn()}
		reverse.WithBypass(BypassAll)
		return s.chain.Delete(reverse)
	})
	return nil
}

// ApplyEntry adds entry with every stage bypassed except schema
// validation, so ingest never trips referral checks or records a
// change-log reverse op for its own bootstrap data. It is idempotent:
// an entry that already exists is treated as a no-op, so re-running
// the same LDIF twice is harmless.
func (s *DirectoryService) ApplyEntry(session *Session, entry *d.Entry) error {
	ctx := &AddContext{OpContext: newOpContext(session), Entry: entry}
	ctx.WithBypassAllExcept(SchemaInterceptorName)

	err := s.chain.Add(ctx)
	if errors.Is(err, d.LdapError{ResultCode: d.EntryAlreadyExists}) {
		return nil
	}
	return err
}

func (s *DirectoryService) Delete(session *Session, dn d.DN) error {
	original, lookupErr := s.Nexus.LookupDirect(dn)

	ctx := &DeleteContext{OpContext: newOpContext(session), DN: dn}
	if err := s.chain.Delete(ctx); err != nil {
		return err
	}

	if lookupErr == nil {
		s.Changes.Record(func() error {
			reverse := &AddContext{OpContext: newOpContext(session), Entry: original}
			reverse.WithBypass(BypassAll)
			return s.chain.Add(reverse)
		})
	}
	return nil
}

func (s *DirectoryService) Modify(session *Session, dn d.DN, touched []*d.Attribute, ops ...d.ChangeOperation) error {
	before, lookupErr := s.Nexus.LookupDirect(dn)

	ctx := &ModifyContext{OpContext: newOpContext(session), DN: dn, Ops: ops}
	if err := s.chain.Modify(ctx); err != nil {
		return err
	}

	if lookupErr == nil {
		reverseOps := make([]d.ChangeOperation, 0, len(touched))
		for _, attr := range touched {
			vals := before.AttrValues(attr)
			if len(vals) == 0 {
				reverseOps = append(reverseOps, d.DeleteOperation(attr))
				continue
			}
			reverseOps = append(reverseOps, d.ReplaceOperation(attr, vals...))
		}
		s.Changes.Record(func() error {
			reverse := &ModifyContext{OpContext: newOpContext(session), DN: dn, Ops: reverseOps}
			reverse.WithBypass(BypassAll)
			return s.chain.Modify(reverse)
		})
	}

	return nil
}

func (s *DirectoryService) ModifyDN(session *Session, dn d.DN, newRDN d.RDN, deleteOldRDN bool, newSuperior *d.DN) error {
	oldRDN := dn.GetRDN().Clone()
	oldParent := dn.GetParentDN()

	ctx := &ModifyDNContext{
		OpContext:    newOpContext(session),
		DN:           dn,
		NewRDN:       newRDN,
		DeleteOldRDN: deleteOldRDN,
		NewSuperior:  newSuperior,
	}
	if err := s.chain.ModifyDN(ctx); err != nil {
		return err
	}

	newDN := oldParent
	if newSuperior != nil {
		newDN = *newSuperior
	}
	newDN.AddRDN(newRDN)

	s.Changes.Record(func() error {
		reverse := &ModifyDNContext{
			OpContext:    newOpContext(session),
			DN:           newDN,
			NewRDN:       oldRDN,
			DeleteOldRDN: deleteOldRDN,
			NewSuperior:  &oldParent,
		}
		reverse.WithBypass(BypassAll)
		return s.chain.ModifyDN(reverse)
	})

	return nil
}

func (s *DirectoryService) Lookup(session *Session, dn d.DN) (*d.Entry, error) {
	ctx := &LookupContext{OpContext: newOpContext(session), DN: dn}
	return s.chain.Lookup(ctx)
}

func (s *DirectoryService) Search(session *Session, base d.DN, scope d.SearchScope, filter d.Filter) (Cursor, error) {
	ctx := &SearchContext{OpContext: newOpContext(session), Base: base, Scope: scope, Filter: filter}
	return s.chain.Search(ctx)
}

func (s *DirectoryService) Bind(session *Session, dn d.DN, password string) (*d.Entry, error) {
	ctx := &BindContext{OpContext: newOpContext(session), DN: dn, Password: password}
	entry, err := s.chain.Bind(ctx)
	if err != nil {
		return nil, err
	}
	session.BoundDN = entry
	return entry, nil
}

func (s *DirectoryService) Compare(session *Session, dn d.DN, attr *d.Attribute, value string) (bool, error) {
	ctx := &CompareContext{OpContext: newOpContext(session), DN: dn, Attr: attr, Value: value}
	return s.chain.Compare(ctx)
}
