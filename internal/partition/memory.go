package partition

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	c "ldapcore/internal/core"
	d "ldapcore/internal/domain"
)

var logger = log.New(os.Stderr, "partition: ", log.Lshortfile)

// node is one entry in the in-memory tree. The root node's entry DN is
// always the partition's suffix.
type node struct {
	parent   *node
	children map[*node]struct{}
	entry    *d.Entry
}

func newNode(parent *node, entry *d.Entry) *node {
	return &node{parent: parent, children: map[*node]struct{}{}, entry: entry}
}

func (n *node) addChildNode(c *node) {
	n.children[c] = struct{}{}
}

func (n *node) deleteChild(c *node) {
	delete(n.children, c)
}

func walk(n *node, fn func(*d.Entry)) {
	fn(n.entry)
	for c := range n.children {
		walk(c, fn)
	}
}

// MemoryPartition is an in-memory DIT rooted at a fixed suffix. All
// mutations run on a single scheduler goroutine, so two concurrent
// requests against the same partition can never interleave their
// reads and writes of the tree.
type MemoryPartition struct {
	suffix d.DN
	schema *d.Schema
	root   *node
	sched  *Scheduler
}

func NewMemoryPartition(schema *d.Schema, suffix d.DN) *MemoryPartition {
	return &MemoryPartition{suffix: suffix, schema: schema, sched: NewScheduler()}
}

func (p *MemoryPartition) Suffix() d.DN {
	return p.suffix
}

// Close stops the partition's scheduler goroutine. Callers must not
// issue further operations against the partition afterwards.
func (p *MemoryPartition) Close() {
	p.sched.Close()
}

func (p *MemoryPartition) getNode(dn d.DN) (*node, error) {
	if p.root == nil {
		return nil, d.NewLdapError(d.NoSuchObject, nil, "partition %s is empty", p.suffix)
	}

	rdns := dn.RDNs()
	suffixDepth := p.suffix.Depth()
	if len(rdns) < suffixDepth {
		return nil, d.NewLdapError(d.NoSuchObject, nil, "%s lies outside partition %s", dn, p.suffix)
	}

	n, err := getNodeRecursive(rdns[suffixDepth-1:], p.root)

	var nfErr *d.NodeNotFoundError
	if errors.As(err, &nfErr) {
		nfErr.RequestedDN = dn
		matched := nfErr.MatchedDN.String()
		return nil, d.NewLdapError(d.NoSuchObject, &matched, "no object found for requested dn %s", dn)
	} else if err != nil {
		return nil, err
	}

	return n, nil
}

func getNodeRecursive(rdns []d.RDN, n *node) (*node, error) {
	matches, err := n.entry.MatchesRdn(rdns[0])
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, &d.NodeNotFoundError{}
	}
	if len(rdns) == 1 {
		return n, nil
	}

	var finalErr error
	var nfErr *d.NodeNotFoundError

	for child := range n.children {
		found, err := getNodeRecursive(rdns[1:], child)
		if err == nil {
			return found, nil
		}
		if !errors.As(err, &nfErr) {
			return nil, err
		}
		finalErr = err
	}

	errors.As(finalErr, &nfErr)
	nfErr.PrependMatchedDN(rdns[0])
	return nil, nfErr
}

func (p *MemoryPartition) Add(entry *d.Entry) error {
	return ScheduleAwaitError(p.sched, func() error {
		dn := entry.Dn()

		if _, err := p.getNode(dn); err == nil {
			return d.NewLdapError(d.EntryAlreadyExists, nil, "entry already exists: %s", dn)
		}

		if dn.Equals(p.suffix) {
			p.root = newNode(nil, entry)
			return nil
		}

		pNode, err := p.getNode(dn.GetParentDN())
		if err != nil {
			return err
		}

		rdn := dn.GetRDN()
		for attr, val := range rdn.AVAs() {
			entry.AddAttr(attr, val)
		}
		entry.SetDN(dn.Clone())

		pNode.addChildNode(newNode(pNode, entry))
		return nil
	})
}

func (p *MemoryPartition) Lookup(dn d.DN) (*d.Entry, error) {
	return ScheduleAwait(p.sched, func() (*d.Entry, error) {
		n, err := p.getNode(dn)
		if err != nil {
			return nil, err
		}
		return n.entry.Clone(), nil
	})
}

func (p *MemoryPartition) Delete(dn d.DN) error {
	return ScheduleAwaitError(p.sched, func() error {
		n, err := p.getNode(dn)
		if err != nil {
			return err
		}
		if len(n.children) > 0 {
			return d.ErrNodeNotLeaf
		}
		if n.parent == nil {
			p.root = nil
			return nil
		}
		n.parent.deleteChild(n)
		return nil
	})
}

// Modify clones the target entry, applies every change op to the
// clone, validates the result against the schema and only then swaps
// it in - a failed modify leaves the original entry untouched.
func (p *MemoryPartition) Modify(dn d.DN, ops ...d.ChangeOperation) error {
	return ScheduleAwaitError(p.sched, func() error {
		n, err := p.getNode(dn)
		if err != nil {
			return err
		}

		entry := n.entry.Clone()
		for _, op := range ops {
			if err := op(entry); err != nil {
				return err
			}
		}
		if err := p.schema.ValidateEntry(entry); err != nil {
			return err
		}

		n.entry = entry
		return nil
	})
}

func (p *MemoryPartition) Rename(dn d.DN, newRDN d.RDN, deleteOldRDN bool) error {
	return ScheduleAwaitError(p.sched, func() error {
		n, err := p.getNode(dn)
		if err != nil {
			return err
		}
		if n.parent == nil {
			return d.NewLdapError(d.NamingViolation, nil, "cannot rename the partition root %s", p.suffix)
		}
		return n.entry.SetRDN(newRDN, deleteOldRDN)
	})
}

func (p *MemoryPartition) Move(dn d.DN, newParent d.DN) error {
	return ScheduleAwaitError(p.sched, func() error {
		n, err := p.getNode(dn)
		if err != nil {
			return err
		}
		if n.parent == nil {
			return d.NewLdapError(d.NamingViolation, nil, "cannot move the partition root %s", p.suffix)
		}
		newParentNode, err := p.getNode(newParent)
		if err != nil {
			return err
		}

		entryDN := n.entry.Dn()
		rdn := *entryDN.GetRDN()
		newDN := newParent.Clone()
		newDN.AddRDN(rdn)
		n.entry.SetDN(newDN)

		n.parent.deleteChild(n)
		n.parent = newParentNode
		newParentNode.addChildNode(n)
		return nil
	})
}

func (p *MemoryPartition) MoveAndRename(dn d.DN, newParent d.DN, newRDN d.RDN, deleteOldRDN bool) error {
	return ScheduleAwaitError(p.sched, func() error {
		n, err := p.getNode(dn)
		if err != nil {
			return err
		}
		if n.parent == nil {
			return d.NewLdapError(d.NamingViolation, nil, "cannot move the partition root %s", p.suffix)
		}
		newParentNode, err := p.getNode(newParent)
		if err != nil {
			return err
		}

		if err := n.entry.SetRDN(newRDN, deleteOldRDN); err != nil {
			return err
		}
		newDN := newParent.Clone()
		newDN.AddRDN(newRDN)
		n.entry.SetDN(newDN)

		n.parent.deleteChild(n)
		n.parent = newParentNode
		newParentNode.addChildNode(n)
		return nil
	})
}

func (p *MemoryPartition) Search(base d.DN, scope d.SearchScope, filter d.Filter) (c.Cursor, error) {
	return ScheduleAwait(p.sched, func() (c.Cursor, error) {
		n, err := p.getNode(base)
		if err != nil {
			return nil, err
		}

		var matched []*d.Entry
		switch scope {
		case d.BaseObject:
			if filter(n.entry) {
				matched = append(matched, n.entry.Clone())
			}
		case d.SingleLevel:
			for ch := range n.children {
				if filter(ch.entry) {
					matched = append(matched, ch.entry.Clone())
				}
			}
		case d.WholeSubtree:
			walk(n, func(e *d.Entry) {
				if filter(e) {
					matched = append(matched, e.Clone())
				}
			})
		case d.SubordinateSubtree:
			for ch := range n.children {
				walk(ch, func(e *d.Entry) {
					if filter(e) {
						matched = append(matched, e.Clone())
					}
				})
			}
		default:
			return nil, d.ErrUnknownScope
		}

		return c.NewSliceCursor(matched), nil
	})
}

func (p *MemoryPartition) HasEntry(dn d.DN) bool {
	ok, _ := ScheduleAwait(p.sched, func() (bool, error) {
		_, err := p.getNode(dn)
		return err == nil, nil
	})
	return ok
}

// Dump writes a human-readable tree for debugging and test fixtures.
func (p *MemoryPartition) Dump(w io.Writer) {
	ScheduleAwaitError(p.sched, func() error {
		if p.root == nil {
			fmt.Fprintln(w, "(empty)")
			return nil
		}
		dumpRec(w, p.root, 0)
		return nil
	})
}

func dumpRec(w io.Writer, n *node, indent int) {
	var sb strings.Builder
	for range indent {
		sb.WriteRune('-')
	}
	sb.WriteString("| ")
	dn := n.entry.Dn()
	sb.WriteString(dn.String())
	fmt.Fprintln(w, sb.String())

	for c := range n.children {
		dumpRec(w, c, indent+2)
	}
}
