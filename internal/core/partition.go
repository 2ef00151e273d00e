package core

import d "ldapcore/internal/domain"

// Partition is a storage backend responsible for a contiguous subtree
// rooted at its suffix DN. All DNs arriving at a partition are already
// normalized by the schema stage upstream. Partition-local concurrency
// is the partition's own concern - the nexus does not serialize across
// partitions.
type Partition interface {
	Suffix() d.DN
	Add(entry *d.Entry) error
	Lookup(dn d.DN) (*d.Entry, error)
	Delete(dn d.DN) error
	Modify(dn d.DN, ops ...d.ChangeOperation) error
	Rename(dn d.DN, newRDN d.RDN, deleteOldRDN bool) error
	Move(dn d.DN, newParent d.DN) error
	MoveAndRename(dn d.DN, newParent d.DN, newRDN d.RDN, deleteOldRDN bool) error
	Search(base d.DN, scope d.SearchScope, filter d.Filter) (Cursor, error)
	HasEntry(dn d.DN) bool
}
