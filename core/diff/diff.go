// Package diff derives human-reviewable before/after records from edit
// operations. Diff generation never mutates document state; the simulate and
// apply paths both call into this package so their reports are identical by
// construction.
package diff

import (
	"fmt"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
)

// Type classifies the effect of one op on one block.
type Type string

// Diff types.
const (
	Modified  Type = "modified"
	Inserted  Type = "inserted"
	Deleted   Type = "deleted"
	Moved     Type = "moved"
	Unchanged Type = "unchanged"
)

// BlockDiff is the derived record of one op's effect. It is produced by
// ForOp, never hand-constructed.
type BlockDiff struct {
	BlockID    string `json:"block_id"`
	Type       Type   `json:"type"`
	OldText    string `json:"old_text,omitempty"`
	NewText    string `json:"new_text,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// Splice returns text with the half-open character range [r.Start,r.End)
// replaced by repl. Offsets count runes, not bytes, so an offset can never
// land inside a multi-byte sequence and the result is always valid UTF-8.
func Splice(text string, r editop.Range, repl string) (string, error) {
	runes := []rune(text)
	if r.Start < 0 || r.End < r.Start || r.End > len(runes) {
		return "", errors.NewValidation("range",
			fmt.Sprintf("range [%d,%d) out of bounds for text of length %d", r.Start, r.End, len(runes)))
	}
	return string(runes[:r.Start]) + repl + string(runes[r.End:]), nil
}

// ForOp derives the diff the given op would produce against the current
// document state. The document is not mutated. newBlockID is the id minted
// for an insertAfter op and must be empty for every other kind; the engine
// mints ids so that simulate and apply agree on them within one pass.
func ForOp(d *doc.Document, op editop.Op, newBlockID string) (BlockDiff, error) {
	switch op.Kind {
	case editop.KindReplace:
		b := d.Lookup(op.BlockID)
		if b == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		newText, err := Splice(b.Text, *op.Range, op.Text)
		if err != nil {
			return BlockDiff{}, err
		}
		return BlockDiff{BlockID: b.ID, Type: Modified, OldText: b.Text, NewText: newText}, nil

	case editop.KindReplaceBlock:
		b := d.Lookup(op.BlockID)
		if b == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		return BlockDiff{BlockID: b.ID, Type: Modified, OldText: b.Text, NewText: op.Text}, nil

	case editop.KindInsertAfter:
		if d.Lookup(op.BlockID) == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		return BlockDiff{BlockID: newBlockID, Type: Inserted, NewText: op.Text}, nil

	case editop.KindDeleteBlock:
		b := d.Lookup(op.BlockID)
		if b == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		return BlockDiff{BlockID: b.ID, Type: Deleted, OldText: b.Text}, nil

	case editop.KindMoveBlock:
		b := d.Lookup(op.BlockID)
		if b == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		if op.AfterBlockID != editop.MoveToStart && d.Lookup(op.AfterBlockID) == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.AfterBlockID)
		}
		return BlockDiff{BlockID: b.ID, Type: Moved, OldText: b.Text, NewText: b.Text}, nil

	case editop.KindAnnotate:
		b := d.Lookup(op.BlockID)
		if b == nil {
			return BlockDiff{}, errors.NewNotFound("block", op.BlockID)
		}
		return BlockDiff{BlockID: b.ID, Type: Unchanged, OldText: b.Text, NewText: b.Text, Annotation: op.Note}, nil
	}
	return BlockDiff{}, errors.NewValidation("kind", "unknown operation kind: "+string(op.Kind))
}
