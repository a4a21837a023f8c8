// Package editop defines the edit operation algebra: the tagged set of
// structural mutations a document can undergo, and the batch that groups them
// into one atomic unit. Every consumer (diff, simulate, apply, guard) switches
// exhaustively over Kind so a new kind cannot be silently mishandled.
package editop

import (
	"github.com/quillcraft/inkwell/core/errors"
)

// Kind identifies the variant of an edit operation.
type Kind string

// Operation kinds.
const (
	// KindReplace replaces a half-open character range [start,end) in one block.
	KindReplace Kind = "replace"
	// KindReplaceBlock replaces the whole text of one block.
	KindReplaceBlock Kind = "replaceBlock"
	// KindInsertAfter creates a new paragraph block after the named block.
	KindInsertAfter Kind = "insertAfter"
	// KindDeleteBlock removes a block entirely.
	KindDeleteBlock Kind = "deleteBlock"
	// KindMoveBlock repositions a block to directly follow AfterBlockID.
	KindMoveBlock Kind = "moveBlock"
	// KindAnnotate attaches an advisory note without altering content.
	KindAnnotate Kind = "annotate"
)

// validKinds is the set of valid operation kinds.
var validKinds = map[Kind]bool{
	KindReplace:      true,
	KindReplaceBlock: true,
	KindInsertAfter:  true,
	KindDeleteBlock:  true,
	KindMoveBlock:    true,
	KindAnnotate:     true,
}

// IsValid returns true if the kind is valid.
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// MoveToStart is the sentinel AfterBlockID meaning "move to the front of the
// document".
const MoveToStart = ""

// Range is a half-open character span [Start,End) within a block's text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Op is one tagged edit operation. Which fields are meaningful depends on
// Kind; Validate enforces the per-kind requirements.
type Op struct {
	// Kind selects the variant.
	Kind Kind `json:"kind"`

	// BlockID is the block this op targets. Required for every kind.
	BlockID string `json:"block_id"`

	// Range is the character span for KindReplace.
	Range *Range `json:"range,omitempty"`

	// Text is the replacement or inserted text (replace, replaceBlock,
	// insertAfter).
	Text string `json:"text,omitempty"`

	// AfterBlockID is the destination for KindMoveBlock. MoveToStart means
	// the front of the document.
	AfterBlockID string `json:"after_block_id,omitempty"`

	// Note is the annotation text for KindAnnotate.
	Note string `json:"note,omitempty"`

	// ExpectHash, when set, pins the expected content hash of the target
	// block. A mismatch at simulate/apply time is a conflict, not a
	// validation error.
	ExpectHash string `json:"expect_hash,omitempty"`
}

// Validate checks structural well-formedness of the op. It inspects no
// document state: range bounds against actual text length, hash comparison,
// and block existence are the engine's concern.
func (o *Op) Validate() error {
	if !o.Kind.IsValid() {
		return errors.NewValidation("kind", "unknown operation kind: "+string(o.Kind))
	}
	if o.BlockID == "" {
		return errors.NewValidation("block_id", "missing block id")
	}
	switch o.Kind {
	case KindReplace:
		if o.Range == nil {
			return errors.NewValidation("range", "replace requires a range")
		}
		if o.Range.Start < 0 || o.Range.End < o.Range.Start {
			return errors.NewValidation("range", "range must satisfy 0 <= start <= end")
		}
	case KindReplaceBlock:
		// Text may legitimately be empty (clearing a block).
	case KindInsertAfter:
		if o.Text == "" {
			return errors.NewValidation("text", "insertAfter requires text")
		}
	case KindDeleteBlock:
	case KindMoveBlock:
		if o.AfterBlockID == o.BlockID {
			return errors.NewValidation("after_block_id", "cannot move a block after itself")
		}
	case KindAnnotate:
		if o.Note == "" {
			return errors.NewValidation("note", "annotate requires a note")
		}
	}
	return nil
}

// Destructive reports whether the op is structurally destructive and subject
// to the outline guard: deleteBlock, replaceBlock, and moveBlock.
func (o *Op) Destructive() bool {
	switch o.Kind {
	case KindDeleteBlock, KindReplaceBlock, KindMoveBlock:
		return true
	case KindReplace, KindInsertAfter, KindAnnotate:
		return false
	}
	return false
}

// Batch is an ordered, atomic group of ops targeted at one document snapshot.
type Batch struct {
	// DocID is the target document.
	DocID string `json:"doc_id"`

	// BaseVersion is the document version the batch was built against.
	BaseVersion string `json:"base_version"`

	// Ops apply in slice order.
	Ops []Op `json:"ops"`

	// Simulate requests a dry run: validate and diff without committing.
	Simulate bool `json:"simulate,omitempty"`

	// Notes is an optional free-text summary (e.g. the orchestrator's
	// intent tag).
	Notes string `json:"notes,omitempty"`

	// SkipGuard bypasses the outline guard. Set only by an explicit,
	// caller-confirmed override of a previously blocked batch.
	SkipGuard bool `json:"skip_guard,omitempty"`
}

// Validate checks every op in the batch, returning the first malformed one.
func (b *Batch) Validate() error {
	if b.DocID == "" {
		return errors.NewValidation("doc_id", "missing document id")
	}
	if len(b.Ops) == 0 {
		return errors.NewValidation("ops", "batch has no operations")
	}
	for i := range b.Ops {
		if err := b.Ops[i].Validate(); err != nil {
			return errors.Wrapf(err, "op %d", i)
		}
	}
	return nil
}

// Convenience constructors used by the manual panel and the orchestrator.

// Replace builds a ranged text replacement op.
func Replace(blockID string, start, end int, text string) Op {
	return Op{Kind: KindReplace, BlockID: blockID, Range: &Range{Start: start, End: end}, Text: text}
}

// ReplaceBlock builds a whole-block replacement op.
func ReplaceBlock(blockID, text string) Op {
	return Op{Kind: KindReplaceBlock, BlockID: blockID, Text: text}
}

// InsertAfter builds a block insertion op.
func InsertAfter(blockID, text string) Op {
	return Op{Kind: KindInsertAfter, BlockID: blockID, Text: text}
}

// DeleteBlock builds a block removal op.
func DeleteBlock(blockID string) Op {
	return Op{Kind: KindDeleteBlock, BlockID: blockID}
}

// MoveBlock builds a block move op.
func MoveBlock(blockID, afterBlockID string) Op {
	return Op{Kind: KindMoveBlock, BlockID: blockID, AfterBlockID: afterBlockID}
}

// Annotate builds an advisory annotation op.
func Annotate(blockID, note string) Op {
	return Op{Kind: KindAnnotate, BlockID: blockID, Note: note}
}
