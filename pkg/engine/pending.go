package engine

import "context"

// ActionKind identifies what a queued action is waiting for
type ActionKind int

const (
	// MakeDirectoryThen creates a directory before later steps run
	MakeDirectoryThen ActionKind = iota
	// AwaitConflictResolutionThen blocks until the user answers a
	// replace prompt
	AwaitConflictResolutionThen
)

// Action is one deferred step. Run carries the work as a closure so
// the queue stays agnostic of what each step touches.
type Action struct {
	Kind  ActionKind
	Chain int
	Run   func(ctx context.Context) error
}

// PendingQueue holds deferred actions in strict FIFO order. Steps that
// belong together share a chain id so a failed step can drop its
// successors without touching unrelated work queued behind them.
type PendingQueue struct {
	actions   []Action
	nextChain int
}

// NewPendingQueue creates an empty queue
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// NewChain allocates a chain id for a group of related actions
func (q *PendingQueue) NewChain() int {
	q.nextChain++
	return q.nextChain
}

// Push appends an action
func (q *PendingQueue) Push(a Action) {
	q.actions = append(q.actions, a)
}

// Len reports the number of queued actions
func (q *PendingQueue) Len() int { return len(q.actions) }

// Head returns the next action without removing it
func (q *PendingQueue) Head() (Action, bool) {
	if len(q.actions) == 0 {
		return Action{}, false
	}
	return q.actions[0], true
}

// Pop removes and returns the head action
func (q *PendingQueue) Pop() (Action, bool) {
	if len(q.actions) == 0 {
		return Action{}, false
	}
	a := q.actions[0]
	q.actions = q.actions[1:]
	return a, true
}

// DropChain discards every queued action belonging to the given chain.
// Used when a step fails: its successors must not run against a state
// the failed step never produced.
func (q *PendingQueue) DropChain(chain int) int {
	kept := q.actions[:0]
	dropped := 0
	for _, a := range q.actions {
		if a.Chain == chain {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	q.actions = kept
	return dropped
}

// Clear discards everything
func (q *PendingQueue) Clear() {
	q.actions = nil
}
