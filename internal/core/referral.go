package core

import (
	"log"
	"net/url"
	"os"
	"strings"
	"sync"

	d "ldapcore/internal/domain"
)

var referralLogger = log.New(os.Stderr, "referral: ", log.Lshortfile)

// ReferralInfo is what the manager keeps per known referral entry: its
// normalized DN and the set of LDAP URLs that survived validation.
type ReferralInfo struct {
	DN   d.DN
	URLs []string
}

// ReferralManager indexes the set of DNs currently known to be
// referrals, answering two queries: is DN X itself a referral, and
// what is the closest proper ancestor of X that is one. It is guarded
// by a single-writer / many-reader lock; the exact-index and the
// ancestor walk always see a consistent snapshot because both read
// from the same map under the same lock acquisition.
type ReferralManager struct {
	mu    sync.RWMutex
	byDN  map[string]*ReferralInfo
	order map[string]d.DN // dn string -> dn value, for ancestor walks
}

func NewReferralManager() *ReferralManager {
	return &ReferralManager{
		byDN:  map[string]*ReferralInfo{},
		order: map[string]d.DN{},
	}
}

// IsReferralEntry reports whether an entry is a referral per §3: its
// objectClass attribute contains the value "referral".
func IsReferralEntry(schema *d.Schema, e *d.Entry) bool {
	oc, ok := schema.FindObjectClass("referral")
	if !ok {
		return false
	}
	return e.ConatinsObjectClass(oc)
}

// ValidRefURLs extracts and validates the ref attribute's values per
// §3: scope base-object, no filter, no attribute list, no extensions,
// non-empty DN. Unparseable or invalid values are skipped, not fatal.
func ValidRefURLs(schema *d.Schema, e *d.Entry) []string {
	refAttr, ok := schema.FindAttribute("ref")
	if !ok {
		return nil
	}

	valid := []string{}
	for _, raw := range e.AttrValues(refAttr) {
		if validateLdapURL(raw) {
			valid = append(valid, raw)
		} else {
			referralLogger.Printf("skipping invalid referral url %q", raw)
		}
	}
	return valid
}

// validateLdapURL checks the shape ldap://host[:port]/dn with no query
// (filter/attrs/scope/extensions) parts and a non-empty dn component.
func validateLdapURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "ldap" && u.Scheme != "ldaps" {
		return false
	}
	dn := strings.TrimPrefix(u.Path, "/")
	if dn == "" {
		return false
	}
	return u.RawQuery == ""
}

func (m *ReferralManager) Put(dn d.DN, urls []string) {
	if len(urls) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dn.String()
	m.byDN[key] = &ReferralInfo{DN: dn, URLs: urls}
	m.order[key] = dn
}

func (m *ReferralManager) Remove(dn d.DN) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dn.String()
	delete(m.byDN, key)
	delete(m.order, key)
}

// Exact reports whether dn itself is a known referral.
func (m *ReferralManager) Exact(dn d.DN) (*ReferralInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byDN[dn.String()]
	return info, ok
}

// Ancestor reports the closest proper ancestor of dn that is a known
// referral, if any. Walks dn's parents one RDN at a time - O(depth).
func (m *ReferralManager) Ancestor(dn d.DN) (*ReferralInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cur := dn
	for !cur.IsRoot() {
		cur = cur.GetParentDN()
		if info, ok := m.byDN[cur.String()]; ok {
			return info, true
		}
	}
	return nil, false
}

// Reconcile re-derives dn's referral-ness from its current entry and
// updates the index accordingly, removing a stale entry and/or adding
// a fresh one under a single lock acquisition, so no reader ever
// observes dn as a non-referral mid-reconcile.
func (m *ReferralManager) Reconcile(schema *d.Schema, dn d.DN, entry *d.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := dn.String()
	delete(m.byDN, key)
	delete(m.order, key)

	if entry == nil || !IsReferralEntry(schema, entry) {
		return
	}

	urls := ValidRefURLs(schema, entry)
	if len(urls) == 0 {
		return
	}
	m.byDN[key] = &ReferralInfo{DN: dn, URLs: urls}
	m.order[key] = dn
}

// Descendants returns every known referral strictly below base, for
// emitting continuation references when a search subtree contains one.
func (m *ReferralManager) Descendants(base d.DN) []*ReferralInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*ReferralInfo
	for key, dn := range m.order {
		if base.IsAncestorOf(dn) {
			out = append(out, m.byDN[key])
		}
	}
	return out
}

// RewriteURL rewrites an ancestor referral's URL so its DN component
// is ancestor's URL target DN with the RDNs of target that lie below
// ancestor prepended - innermost-first, per §4.3. The remote base DN
// is a foreign namespace (it may use attributes our schema doesn't
// know about) so it is handled as an opaque string, never parsed
// against our own schema.
func RewriteURL(raw string, target, ancestor d.DN) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	remoteBaseDN := strings.TrimPrefix(u.Path, "/")

	descendants := target.DescendantRDNs(ancestor)
	if len(descendants) == 0 {
		return raw
	}

	parts := make([]string, len(descendants))
	for i, rdn := range descendants {
		parts[len(descendants)-1-i] = rdn.String()
	}

	u.Path = "/" + strings.Join(parts, ",") + "," + remoteBaseDN
	return u.String()
}
