// Package pending wraps a simulated diff in accept/reject bookkeeping for
// human review. A pending batch is ephemeral: it lives in process memory
// between simulate and the final authoritative apply, and is discarded after
// commit or rejection.
package pending

import (
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/quillcraft/inkwell/core/diff"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
)

// Status is the review state of one pending operation. The transition out of
// StatusPending is one-way; no further transitions are modeled.
type Status string

// Review states.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Operation pairs one op with its simulated diff and review status.
type Operation struct {
	ID     string         `json:"id"`
	Op     editop.Op      `json:"op"`
	Diff   diff.BlockDiff `json:"diff"`
	Status Status         `json:"status"`
}

// Batch is the review wrapper over one simulated edit batch. Safe for
// concurrent use: review decisions may arrive from several clients at once,
// so every status read and write goes through the batch mutex.
type Batch struct {
	ID          string       `json:"id"`
	DocID       string       `json:"doc_id"`
	BaseVersion string       `json:"base_version"`
	Operations  []*Operation `json:"operations"`
	Notes       string       `json:"notes,omitempty"`

	mu sync.Mutex
}

// MarshalJSON serializes the batch under its lock, so a snapshot handed to a
// client is never torn by a concurrent decision.
func (b *Batch) MarshalJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	type alias Batch
	return json.Marshal((*alias)(b))
}

// NewBatch wraps a successfully simulated batch, one pending operation per
// diff entry. The diffs must come from the same simulate call as the ops.
func NewBatch(b *editop.Batch, diffs []diff.BlockDiff) *Batch {
	pb := &Batch{
		ID:          ulid.Make().String(),
		DocID:       b.DocID,
		BaseVersion: b.BaseVersion,
		Notes:       b.Notes,
		Operations:  make([]*Operation, 0, len(b.Ops)),
	}
	for i := range b.Ops {
		op := &Operation{
			ID:     ulid.Make().String(),
			Op:     b.Ops[i],
			Status: StatusPending,
		}
		if i < len(diffs) {
			op.Diff = diffs[i]
		}
		pb.Operations = append(pb.Operations, op)
	}
	return pb
}

func (b *Batch) find(opID string) *Operation {
	for _, op := range b.Operations {
		if op.ID == opID {
			return op
		}
	}
	return nil
}

func (b *Batch) transition(opID string, to Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	op := b.find(opID)
	if op == nil {
		return errors.NewNotFound("pending operation", opID)
	}
	if op.Status != StatusPending {
		return errors.NewValidation("status", "operation already "+string(op.Status))
	}
	op.Status = to
	return nil
}

// AcceptOperation marks one pending operation accepted.
func (b *Batch) AcceptOperation(opID string) error {
	return b.transition(opID, StatusAccepted)
}

// RejectOperation marks one pending operation rejected.
func (b *Batch) RejectOperation(opID string) error {
	return b.transition(opID, StatusRejected)
}

// AcceptAll accepts every operation still pending.
func (b *Batch) AcceptAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range b.Operations {
		if op.Status == StatusPending {
			op.Status = StatusAccepted
		}
	}
}

// RejectAll rejects every operation still pending.
func (b *Batch) RejectAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range b.Operations {
		if op.Status == StatusPending {
			op.Status = StatusRejected
		}
	}
}

// Resolved reports whether no operation remains pending.
func (b *Batch) Resolved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range b.Operations {
		if op.Status == StatusPending {
			return false
		}
	}
	return true
}

// AcceptedOps assembles the accepted sub-batch, in original op order, for the
// final authoritative apply call. Rejected and still-pending ops are dropped.
// The sub-batch carries the original base version, so a document that moved
// on since simulation is still refused by the engine.
func (b *Batch) AcceptedOps() *editop.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := &editop.Batch{
		DocID:       b.DocID,
		BaseVersion: b.BaseVersion,
		Notes:       b.Notes,
	}
	for _, op := range b.Operations {
		if op.Status == StatusAccepted {
			out.Ops = append(out.Ops, op.Op)
		}
	}
	return out
}

// Set is a process-local registry of pending batches, keyed by batch id.
type Set struct {
	mu      sync.Mutex
	batches map[string]*Batch
}

// NewSet creates an empty registry.
func NewSet() *Set {
	return &Set{batches: make(map[string]*Batch)}
}

// Add registers a pending batch.
func (s *Set) Add(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

// Get returns the batch with the given id, or nil.
func (s *Set) Get(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

// Clear discards the batch with the given id.
func (s *Set) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
}
