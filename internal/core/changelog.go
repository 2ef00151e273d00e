package core

import (
	"sync"

	d "ldapcore/internal/domain"
)

// ReverseOp is a closure that undoes one committed mutation. Reverse
// ops are built by calling the chain directly rather than through
// DirectoryService's recording wrapper methods, so replaying one never
// itself gets change-logged.
type ReverseOp func() error

type changeEntry struct {
	revision int64
	reverse  ReverseOp
}

// ChangeLog is a single-writer append structure recording a reverse-op
// alongside every successful mutation, enabling tag-and-revert: a test
// reads CurrentRevision before its mutations, then Reverts to it after.
type ChangeLog struct {
	mu       sync.Mutex
	enabled  bool
	revision int64
	entries  []changeEntry
}

func NewChangeLog() *ChangeLog {
	return &ChangeLog{}
}

func (l *ChangeLog) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = true
}

func (l *ChangeLog) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
}

func (l *ChangeLog) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *ChangeLog) CurrentRevision() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revision
}

// Record appends a reverse-op for the mutation that just committed. A
// no-op when the log is disabled.
func (l *ChangeLog) Record(reverse ReverseOp) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return l.revision
	}
	l.revision++
	l.entries = append(l.entries, changeEntry{revision: l.revision, reverse: reverse})
	return l.revision
}

// Revert replays reverse-ops from the head of the log down to, but not
// including, toRevision. Fails with ErrUnrevertable if any intervening
// operation did not record a reverse-op (which cannot happen for
// entries actually appended here, but guards against a future mutation
// path that forgets to call Record).
func (l *ChangeLog) Revert(toRevision int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if toRevision > l.revision {
		return d.ErrUnrevertable
	}

	for len(l.entries) > 0 && l.entries[len(l.entries)-1].revision > toRevision {
		last := l.entries[len(l.entries)-1]
		if last.reverse == nil {
			return d.ErrUnrevertable
		}
		if err := last.reverse(); err != nil {
			return err
		}
		l.entries = l.entries[:len(l.entries)-1]
	}

	l.revision = toRevision
	return nil
}
