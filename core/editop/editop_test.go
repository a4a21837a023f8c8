package editop

import (
	"testing"

	"github.com/quillcraft/inkwell/core/errors"
)

func TestOpValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Op
		wantErr bool
	}{
		{"valid replace", Replace("b1", 0, 3, "abc"), false},
		{"replace without range", Op{Kind: KindReplace, BlockID: "b1"}, true},
		{"replace negative start", Op{Kind: KindReplace, BlockID: "b1", Range: &Range{Start: -1, End: 2}}, true},
		{"replace end before start", Op{Kind: KindReplace, BlockID: "b1", Range: &Range{Start: 3, End: 1}}, true},
		{"replace empty span", Replace("b1", 2, 2, "x"), false},
		{"valid replaceBlock", ReplaceBlock("b1", "new text"), false},
		{"replaceBlock clearing text", ReplaceBlock("b1", ""), false},
		{"valid insertAfter", InsertAfter("b1", "a new paragraph"), false},
		{"insertAfter without text", Op{Kind: KindInsertAfter, BlockID: "b1"}, true},
		{"valid deleteBlock", DeleteBlock("b1"), false},
		{"valid moveBlock", MoveBlock("b1", "b2"), false},
		{"moveBlock to start", MoveBlock("b1", MoveToStart), false},
		{"moveBlock after itself", MoveBlock("b1", "b1"), true},
		{"valid annotate", Annotate("b1", "check pacing here"), false},
		{"annotate without note", Op{Kind: KindAnnotate, BlockID: "b1"}, true},
		{"missing block id", Op{Kind: KindDeleteBlock}, true},
		{"unknown kind", Op{Kind: "merge", BlockID: "b1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("validation error should unwrap to ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestOpDestructive(t *testing.T) {
	destructive := []Op{DeleteBlock("b1"), ReplaceBlock("b1", "x"), MoveBlock("b1", "b2")}
	for _, op := range destructive {
		if !op.Destructive() {
			t.Errorf("%s should be destructive", op.Kind)
		}
	}
	harmless := []Op{Replace("b1", 0, 1, "x"), InsertAfter("b1", "x"), Annotate("b1", "n")}
	for _, op := range harmless {
		if op.Destructive() {
			t.Errorf("%s should not be destructive", op.Kind)
		}
	}
}

func TestBatchValidate(t *testing.T) {
	batch := &Batch{DocID: "d1", Ops: []Op{ReplaceBlock("b1", "x")}}
	if err := batch.Validate(); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}

	if err := (&Batch{Ops: []Op{ReplaceBlock("b1", "x")}}).Validate(); err == nil {
		t.Error("batch without doc id should be rejected")
	}
	if err := (&Batch{DocID: "d1"}).Validate(); err == nil {
		t.Error("empty batch should be rejected")
	}
	bad := &Batch{DocID: "d1", Ops: []Op{ReplaceBlock("b1", "x"), {Kind: KindReplace, BlockID: "b2"}}}
	if err := bad.Validate(); err == nil {
		t.Error("batch with malformed op should be rejected")
	}
}
