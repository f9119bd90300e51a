package board

import (
	"sync"
)

// The append-only operation history of one room. Order is server arrival
// order; the only mutations besides append are whole-operation removal
// (undo) and clear.
type Log struct {
	ops []Operation
	mu  sync.RWMutex
}

func NewLog() *Log {
	return &Log{
		ops: make([]Operation, 0),
	}
}

// Adds an operation to the end of the sequence.
func (l *Log) Append(op Operation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

// Returns a copy of the full current sequence, for late-joiner catch-up.
func (l *Log) Snapshot() []Operation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ops := make([]Operation, len(l.ops))
	copy(ops, l.ops)
	return ops
}

// Removes and returns the most recently appended operation, or nil if the
// log is empty.
func (l *Log) RemoveLast() *Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ops) == 0 {
		return nil
	}
	op := l.ops[len(l.ops)-1]
	l.ops = l.ops[:len(l.ops)-1]
	return &op
}

// Removes and returns the operation with the given ID wherever it sits in
// the sequence, preserving the relative order of the rest. Returns nil if
// no operation has that ID; absent IDs never fall back to LIFO removal.
func (l *Log) RemoveByID(id string) *Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, op := range l.ops {
		if op.ID == id {
			removed := op
			l.ops = append(l.ops[:i], l.ops[i+1:]...)
			return &removed
		}
	}
	return nil
}

// Replaces the sequence with empty.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = make([]Operation, 0)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}
