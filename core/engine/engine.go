// Package engine validates and applies edit batches atomically. Simulate and
// Apply run the identical pipeline over a working copy of the document, so
// they accept and report exactly the same batches; Apply additionally commits
// the working copy back. A batch either lands in full or not at all.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quillcraft/inkwell/core/diff"
	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/guard"
	"github.com/quillcraft/inkwell/internal/logging"
)

// SimulateResult reports a dry run: the full diff on success, or the conflict
// set on refusal.
type SimulateResult struct {
	OK        bool                   `json:"ok"`
	Diff      []diff.BlockDiff       `json:"diff,omitempty"`
	Code      string                 `json:"code,omitempty"`
	Conflicts []errors.BlockConflict `json:"conflicts,omitempty"`
}

// ApplyResult reports a committed batch: the new version and block sequence
// on success, or the conflict set on refusal.
type ApplyResult struct {
	OK         bool                   `json:"ok"`
	NewVersion string                 `json:"new_version,omitempty"`
	NewBlocks  []*doc.Block           `json:"new_blocks,omitempty"`
	Diff       []diff.BlockDiff       `json:"diff,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Conflicts  []errors.BlockConflict `json:"conflicts,omitempty"`
}

// Engine is the single convergence point for every producer of edit batches.
// Outline, when set, enforces the delete guard on destructive ops; a nil
// Outline disables guarding (used by tests and the override path).
type Engine struct {
	Outline guard.Outline
}

// New creates an engine consulting the given outline collaborator.
func New(outline guard.Outline) *Engine {
	return &Engine{Outline: outline}
}

// newBlockID mints ids for insertAfter ops. Variable so tests can pin ids.
var newBlockID = uuid.NewString

// Simulate validates the batch against the document and computes the full
// diff without mutating anything. Refusals: stale base version, per-block
// conflicts (all offending ops enumerated, not just the first), guard blocks,
// and malformed ops.
func (e *Engine) Simulate(ctx context.Context, batch *editop.Batch, d *doc.Document) (*SimulateResult, error) {
	diffs, _, code, conflicts, err := e.run(ctx, batch, d)
	if err != nil {
		return nil, err
	}
	if code != "" {
		return &SimulateResult{OK: false, Code: code, Conflicts: conflicts}, nil
	}
	return &SimulateResult{OK: true, Diff: diffs}, nil
}

// Apply runs the identical validation as Simulate and, on success, commits
// the new block sequence to d: every touched block's hash is recomputed and
// the BaseVersion digest refreshed. Either every op lands or none do.
func (e *Engine) Apply(ctx context.Context, batch *editop.Batch, d *doc.Document) (*ApplyResult, error) {
	diffs, working, code, conflicts, err := e.run(ctx, batch, d)
	if err != nil {
		return nil, err
	}
	if code != "" {
		return &ApplyResult{OK: false, Code: code, Conflicts: conflicts}, nil
	}

	d.Blocks = working.Blocks
	d.Reindex()
	d.LastModified = time.Now().UTC()

	logging.BatchApplied(d.ID, len(batch.Ops), d.BaseVersion)
	return &ApplyResult{OK: true, NewVersion: d.BaseVersion, NewBlocks: d.Blocks, Diff: diffs}, nil
}

// run is the shared simulate/apply pipeline. It returns the diffs and the
// mutated working copy on success, or a refusal code with its conflict set.
// The input document is never mutated here.
//
// Ops may reference blocks minted earlier in the same batch: insertAfter
// assigns the new id immediately and later ops resolve against the working
// copy. ExpectHash is compared against the original snapshot for blocks that
// existed before the batch, and against the working copy for blocks minted
// within it.
func (e *Engine) run(ctx context.Context, batch *editop.Batch, d *doc.Document) ([]diff.BlockDiff, *doc.Document, string, []errors.BlockConflict, error) {
	if err := batch.Validate(); err != nil {
		return nil, nil, "", nil, err
	}
	if batch.BaseVersion != d.BaseVersion {
		return nil, nil, errors.CodeStaleBase, nil, nil
	}

	if !batch.SkipGuard && e.Outline != nil {
		verdict, err := guard.CheckBatch(ctx, e.Outline, d.ID, batch)
		if err != nil {
			return nil, nil, "", nil, err
		}
		if !verdict.Allowed {
			logging.GuardBlocked(d.ID, verdict.AffectedBeats)
			return nil, nil, "", nil, &errors.GuardBlockedError{
				SceneID:       d.ID,
				Reason:        verdict.Reason,
				AffectedBeats: verdict.AffectedBeats,
			}
		}
	}

	working := d.Clone()
	var conflicts []errors.BlockConflict
	var diffs []diff.BlockDiff

	for i := range batch.Ops {
		op := batch.Ops[i]

		target := working.Lookup(op.BlockID)
		if target == nil {
			conflicts = append(conflicts, errors.BlockConflict{
				BlockID: op.BlockID,
				Reason:  "block not found",
			})
			continue
		}
		if op.ExpectHash != "" {
			current := target.Hash
			if orig := d.Lookup(op.BlockID); orig != nil {
				current = orig.Hash
			}
			if op.ExpectHash != current {
				conflicts = append(conflicts, errors.BlockConflict{
					BlockID:  op.BlockID,
					Expected: op.ExpectHash,
					Actual:   current,
					Reason:   "content hash mismatch",
				})
				continue
			}
		}
		if op.Kind == editop.KindMoveBlock && op.AfterBlockID != editop.MoveToStart {
			if working.Lookup(op.AfterBlockID) == nil {
				conflicts = append(conflicts, errors.BlockConflict{
					BlockID: op.AfterBlockID,
					Reason:  "move destination not found",
				})
				continue
			}
		}
		// Once any conflict is recorded the batch cannot commit; keep
		// scanning so every offending op is reported, but stop mutating
		// the working copy.
		if len(conflicts) > 0 {
			continue
		}

		mintedID := ""
		if op.Kind == editop.KindInsertAfter {
			mintedID = newBlockID()
		}
		bd, err := diff.ForOp(working, op, mintedID)
		if err != nil {
			return nil, nil, "", nil, err
		}
		if err := applyOp(working, op, mintedID, bd); err != nil {
			return nil, nil, "", nil, err
		}
		diffs = append(diffs, bd)
	}

	if len(conflicts) > 0 {
		return nil, nil, errors.CodeConflict, conflicts, nil
	}
	return diffs, working, "", nil, nil
}

// applyOp mutates the working copy for one already-diffed op.
func applyOp(working *doc.Document, op editop.Op, mintedID string, bd diff.BlockDiff) error {
	switch op.Kind {
	case editop.KindReplace, editop.KindReplaceBlock:
		working.Lookup(op.BlockID).SetText(bd.NewText)

	case editop.KindInsertAfter:
		nb := &doc.Block{ID: mintedID, Type: doc.BlockParagraph, Text: op.Text, Hash: doc.HashBlock(op.Text)}
		at := working.IndexOf(op.BlockID) + 1
		working.Blocks = append(working.Blocks, nil)
		copy(working.Blocks[at+1:], working.Blocks[at:])
		working.Blocks[at] = nb
		working.Reindex()

	case editop.KindDeleteBlock:
		at := working.IndexOf(op.BlockID)
		working.Blocks = append(working.Blocks[:at], working.Blocks[at+1:]...)
		working.Reindex()

	case editop.KindMoveBlock:
		at := working.IndexOf(op.BlockID)
		b := working.Blocks[at]
		working.Blocks = append(working.Blocks[:at], working.Blocks[at+1:]...)
		dest := 0
		if op.AfterBlockID != editop.MoveToStart {
			dest = working.IndexOf(op.AfterBlockID) + 1
		}
		working.Blocks = append(working.Blocks, nil)
		copy(working.Blocks[dest+1:], working.Blocks[dest:])
		working.Blocks[dest] = b
		working.Reindex()

	case editop.KindAnnotate:
		// Advisory only: surfaced in the diff, never persisted into content.
	}
	return nil
}
