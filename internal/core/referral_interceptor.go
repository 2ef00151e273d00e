package core

import d "ldapcore/internal/domain"

const ReferralInterceptorName = "referral"

// ReferralInterceptor enforces RFC 3296 semantics: a request against a
// DN at or below a known referral fails with a referral result unless
// ManageDsaIT is set, in which case the referral entry is operated on
// as ordinary data. It also keeps the ReferralManager's index in sync
// with the partition after every commit.
type ReferralInterceptor struct {
	BaseInterceptor
	schema *d.Schema
	mgr    *ReferralManager
	lookup func(d.DN) (*d.Entry, error)
}

func NewReferralInterceptor(schema *d.Schema, mgr *ReferralManager, lookup func(d.DN) (*d.Entry, error)) *ReferralInterceptor {
	return &ReferralInterceptor{
		BaseInterceptor: NewBaseInterceptor(ReferralInterceptorName),
		schema:          schema,
		mgr:             mgr,
		lookup:          lookup,
	}
}

// checkAncestor returns a referral LdapError if dn sits below a known
// referral and ManageDsaIT is not set.
func (r *ReferralInterceptor) checkAncestor(dn d.DN, manageDsaIT bool) error {
	if manageDsaIT {
		return nil
	}
	if info, ok := r.mgr.Ancestor(dn); ok {
		urls := make([]string, len(info.URLs))
		for i, u := range info.URLs {
			urls[i] = RewriteURL(u, dn, info.DN)
		}
		return d.ReferralError{URLs: urls, MatchedDN: info.DN.String()}
	}
	return nil
}

// checkExact returns a referral LdapError if dn is itself a known
// referral and ManageDsaIT is not set.
func (r *ReferralInterceptor) checkExact(dn d.DN, manageDsaIT bool) error {
	if manageDsaIT {
		return nil
	}
	if info, ok := r.mgr.Exact(dn); ok {
		return d.ReferralError{URLs: info.URLs, MatchedDN: info.DN.String()}
	}
	return nil
}

func (r *ReferralInterceptor) Add(ctx *AddContext, next func(*AddContext) error) error {
	dn := ctx.Entry.Dn()
	if err := r.checkAncestor(dn, ctx.ManageDsaIT); err != nil {
		return err
	}
	if IsReferralEntry(r.schema, ctx.Entry) && len(ValidRefURLs(r.schema, ctx.Entry)) == 0 {
		return d.NewLdapError(d.UnwillingToPerform, nil, "referral entry %s has no valid ref url", dn.String())
	}

	if err := next(ctx); err != nil {
		return err
	}

	if IsReferralEntry(r.schema, ctx.Entry) {
		r.mgr.Put(dn, ValidRefURLs(r.schema, ctx.Entry))
	}
	return nil
}

func (r *ReferralInterceptor) Delete(ctx *DeleteContext, next func(*DeleteContext) error) error {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}
	if err := r.checkExact(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}

	if err := next(ctx); err != nil {
		return err
	}

	r.mgr.Remove(ctx.DN)
	return nil
}

func (r *ReferralInterceptor) Modify(ctx *ModifyContext, next func(*ModifyContext) error) error {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}
	if err := r.checkExact(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}
	if current, err := r.lookup(ctx.DN); err == nil {
		preview := current.Clone()
		applied := true
		for _, op := range ctx.Ops {
			if op(preview) != nil {
				applied = false
				break
			}
		}
		if applied && IsReferralEntry(r.schema, preview) && len(ValidRefURLs(r.schema, preview)) == 0 {
			return d.NewLdapError(d.UnwillingToPerform, nil, "referral entry %s would have no valid ref url", ctx.DN.String())
		}
	}

	if err := next(ctx); err != nil {
		return err
	}

	entry, err := r.lookup(ctx.DN)
	if err == nil {
		r.mgr.Reconcile(r.schema, ctx.DN, entry)
	}
	return nil
}

func (r *ReferralInterceptor) ModifyDN(ctx *ModifyDNContext, next func(*ModifyDNContext) error) error {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}
	if err := r.checkExact(ctx.DN, ctx.ManageDsaIT); err != nil {
		return err
	}

	if err := next(ctx); err != nil {
		return err
	}

	r.mgr.Remove(ctx.DN)

	newDN := ctx.DN.GetParentDN()
	if ctx.NewSuperior != nil {
		newDN = *ctx.NewSuperior
	}
	newDN.AddRDN(ctx.NewRDN)

	if entry, err := r.lookup(newDN); err == nil {
		r.mgr.Reconcile(r.schema, newDN, entry)
	}
	return nil
}

func (r *ReferralInterceptor) Lookup(ctx *LookupContext, next func(*LookupContext) (*d.Entry, error)) (*d.Entry, error) {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return nil, err
	}
	if err := r.checkExact(ctx.DN, ctx.ManageDsaIT); err != nil {
		return nil, err
	}
	return next(ctx)
}

func (r *ReferralInterceptor) Bind(ctx *BindContext, next func(*BindContext) (*d.Entry, error)) (*d.Entry, error) {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return nil, err
	}
	return next(ctx)
}

func (r *ReferralInterceptor) Compare(ctx *CompareContext, next func(*CompareContext) (bool, error)) (bool, error) {
	if err := r.checkAncestor(ctx.DN, ctx.ManageDsaIT); err != nil {
		return false, err
	}
	if err := r.checkExact(ctx.DN, ctx.ManageDsaIT); err != nil {
		return false, err
	}
	return next(ctx)
}

// Search honors ancestor/exact referral failures on the search base
// itself, then - for the base-is-ancestor case that those two checks
// let through - replaces every descendant referral's entry with a
// continuation reference (its own ref values, unrewritten: a
// descendant referral's URLs already name the exact namespace a
// client should continue the search at) rather than letting it surface
// as an ordinary SearchResultEntry. ManageDsaIT turns this off entirely
// and returns referral entries as ordinary data, like every other op.
func (r *ReferralInterceptor) Search(ctx *SearchContext, next func(*SearchContext) (Cursor, error)) (Cursor, error) {
	if err := r.checkAncestor(ctx.Base, ctx.ManageDsaIT); err != nil {
		return nil, err
	}
	if err := r.checkExact(ctx.Base, ctx.ManageDsaIT); err != nil {
		return nil, err
	}

	cur, err := next(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.ManageDsaIT {
		return cur, nil
	}

	descendants := r.descendantsInScope(ctx.Base, ctx.Scope)
	if len(descendants) == 0 {
		return cur, nil
	}

	refAttr, ok := r.schema.FindAttribute("ref")
	if !ok {
		return cur, nil
	}
	referralClass, ok := r.schema.FindObjectClass("referral")
	if !ok {
		return cur, nil
	}

	skip := make(map[string]struct{}, len(descendants))
	for _, info := range descendants {
		skip[info.DN.String()] = struct{}{}
	}

	defer cur.Close()
	var out []*d.Entry
	for ok, err := cur.First(); ok; ok, err = cur.Next() {
		if err != nil {
			return nil, err
		}
		e, err := cur.Get()
		if err != nil {
			return nil, err
		}
		dn := e.Dn()
		if _, isReferral := skip[dn.String()]; isReferral {
			continue
		}
		out = append(out, e)
	}

	for _, info := range descendants {
		ref := d.NewUnvalidatedEntry(info.DN, d.WithStructural(referralClass))
		ref.AddAttrUnsafe(refAttr, info.URLs...)
		out = append(out, ref)
	}

	return NewSliceCursor(out), nil
}

// descendantsInScope narrows the referral manager's full descendant
// list to the ones a search of the given scope actually visits - a
// one-level search only reaches referrals one RDN below the base.
func (r *ReferralInterceptor) descendantsInScope(base d.DN, scope d.SearchScope) []*ReferralInfo {
	if scope == d.BaseObject {
		return nil
	}
	all := r.mgr.Descendants(base)
	if scope != d.SingleLevel {
		return all
	}
	var level []*ReferralInfo
	for _, info := range all {
		if info.DN.Depth() == base.Depth()+1 {
			level = append(level, info)
		}
	}
	return level
}
