package core

import d "ldapcore/internal/domain"

// Cursor is a bidirectional, lazy iterator over entries. It is not
// thread-safe: it is owned by whichever goroutine opened it until that
// goroutine calls Close.
type Cursor interface {
	BeforeFirst() error
	AfterLast() error
	First() (bool, error)
	Last() (bool, error)
	Next() (bool, error)
	Previous() (bool, error)
	Available() bool
	Get() (*d.Entry, error)
	Close() error
	CloseWithCause(cause error) error
}

// sliceCursor is the reference cursor implementation, backed by a
// materialized slice of entries. Because the whole candidate set is
// known up front, its size is available without traversal, which is
// what NewAndCursor uses to pick a driver.
type sliceCursor struct {
	entries []*d.Entry
	pos     int // -1 = before first, len(entries) = after last
	closed  bool
	cause   error
}

const (
	posBeforeFirst = -1
)

func NewSliceCursor(entries []*d.Entry) Cursor {
	return &sliceCursor{entries: entries, pos: posBeforeFirst}
}

func (c *sliceCursor) checkOpen() error {
	if c.closed {
		return d.ErrCursorClosed
	}
	return nil
}

func (c *sliceCursor) BeforeFirst() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.pos = posBeforeFirst
	return nil
}

func (c *sliceCursor) AfterLast() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.pos = len(c.entries)
	return nil
}

func (c *sliceCursor) First() (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	if len(c.entries) == 0 {
		c.pos = posBeforeFirst
		return false, nil
	}
	c.pos = 0
	return true, nil
}

func (c *sliceCursor) Last() (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	if len(c.entries) == 0 {
		c.pos = len(c.entries)
		return false, nil
	}
	c.pos = len(c.entries) - 1
	return true, nil
}

func (c *sliceCursor) Next() (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	if c.pos < len(c.entries) {
		c.pos++
	}
	return c.pos < len(c.entries), nil
}

func (c *sliceCursor) Previous() (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	if c.pos > posBeforeFirst {
		c.pos--
	}
	return c.pos > posBeforeFirst && c.pos < len(c.entries), nil
}

func (c *sliceCursor) Available() bool {
	return !c.closed && c.pos > posBeforeFirst && c.pos < len(c.entries)
}

func (c *sliceCursor) Get() (*d.Entry, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if !c.Available() {
		return nil, d.ErrInvalidCursorPosition
	}
	return c.entries[c.pos], nil
}

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

func (c *sliceCursor) CloseWithCause(cause error) error {
	c.cause = cause
	return c.Close()
}

// andCursor joins a driver cursor (the branch with the smallest
// candidate set) against evaluator predicates over the remaining
// branches, yielding only entries present in every branch.
type andCursor struct {
	driver     Cursor
	evaluators []d.Filter
}

// NewAndCursor picks the cheapest branch (by candidate count) as the
// driver and turns the rest into evaluator predicates.
func NewAndCursor(branches []Cursor, filters []d.Filter) Cursor {
	if len(branches) == 0 {
		return NewSliceCursor(nil)
	}

	driverIdx := 0
	best := -1
	for i, b := range branches {
		if sc, ok := b.(*sliceCursor); ok {
			if best == -1 || len(sc.entries) < best {
				best = len(sc.entries)
				driverIdx = i
			}
		}
	}

	driver := branches[driverIdx]
	evaluators := make([]d.Filter, 0, len(filters)-1)
	for i, f := range filters {
		if i != driverIdx {
			evaluators = append(evaluators, f)
		}
	}

	return &andCursor{driver: driver, evaluators: evaluators}
}

func (c *andCursor) matches(e *d.Entry) bool {
	for _, f := range c.evaluators {
		if !f(e) {
			return false
		}
	}
	return true
}

func (c *andCursor) BeforeFirst() error { return c.driver.BeforeFirst() }
func (c *andCursor) AfterLast() error   { return c.driver.AfterLast() }

func (c *andCursor) First() (bool, error) {
	ok, err := c.driver.First()
	if err != nil {
		return false, err
	}
	return c.settleForward(ok)
}

func (c *andCursor) Last() (bool, error) {
	ok, err := c.driver.Last()
	if err != nil {
		return false, err
	}
	return c.settleBackward(ok)
}

func (c *andCursor) Next() (bool, error) {
	ok, err := c.driver.Next()
	if err != nil {
		return false, err
	}
	return c.settleForward(ok)
}

func (c *andCursor) Previous() (bool, error) {
	ok, err := c.driver.Previous()
	if err != nil {
		return false, err
	}
	return c.settleBackward(ok)
}

// settleForward advances the driver past non-matching candidates until
// a matching entry is current or the driver is exhausted.
func (c *andCursor) settleForward(haveCandidate bool) (bool, error) {
	for haveCandidate {
		e, err := c.driver.Get()
		if err != nil {
			return false, err
		}
		if c.matches(e) {
			return true, nil
		}
		var err2 error
		haveCandidate, err2 = c.driver.Next()
		if err2 != nil {
			return false, err2
		}
	}
	return false, nil
}

func (c *andCursor) settleBackward(haveCandidate bool) (bool, error) {
	for haveCandidate {
		e, err := c.driver.Get()
		if err != nil {
			return false, err
		}
		if c.matches(e) {
			return true, nil
		}
		var err2 error
		haveCandidate, err2 = c.driver.Previous()
		if err2 != nil {
			return false, err2
		}
	}
	return false, nil
}

func (c *andCursor) Available() bool {
	return c.driver.Available()
}

func (c *andCursor) Get() (*d.Entry, error) {
	return c.driver.Get()
}

func (c *andCursor) Close() error {
	return c.driver.Close()
}

func (c *andCursor) CloseWithCause(cause error) error {
	return c.driver.CloseWithCause(cause)
}
