package guard

import (
	"context"
	"testing"

	"github.com/quillcraft/inkwell/core/editop"
)

type fakeOutline map[string][]string

func (f fakeOutline) RequiredBeats(ctx context.Context, sceneID string) ([]string, error) {
	return f[sceneID], nil
}

func TestCheckDeleteGuard(t *testing.T) {
	o := fakeOutline{"scene-1": {"beat-a", "beat-b"}}

	v, err := CheckDeleteGuard(context.Background(), o, "scene-1", "beat-a")
	if err != nil {
		t.Fatalf("CheckDeleteGuard failed: %v", err)
	}
	if v.Allowed {
		t.Error("deleting a required beat should be denied")
	}
	if len(v.AffectedBeats) != 1 || v.AffectedBeats[0] != "beat-a" {
		t.Errorf("affected beats = %v, want [beat-a]", v.AffectedBeats)
	}

	v, err = CheckDeleteGuard(context.Background(), o, "scene-1", "ordinary")
	if err != nil || !v.Allowed {
		t.Errorf("non-beat block should be allowed, got %+v err %v", v, err)
	}

	v, err = CheckDeleteGuard(context.Background(), o, "scene-without-outline", "beat-a")
	if err != nil || !v.Allowed {
		t.Errorf("scene with no outline should allow everything, got %+v err %v", v, err)
	}
}

func TestCheckBatch(t *testing.T) {
	o := fakeOutline{"scene-1": {"beat-a", "beat-b"}}

	batch := &editop.Batch{DocID: "scene-1", Ops: []editop.Op{
		editop.DeleteBlock("beat-a"),
		editop.ReplaceBlock("beat-b", "rewritten"),
		editop.DeleteBlock("beat-a"), // duplicate target, reported once
		editop.DeleteBlock("ordinary"),
	}}
	v, err := CheckBatch(context.Background(), o, "scene-1", batch)
	if err != nil {
		t.Fatalf("CheckBatch failed: %v", err)
	}
	if v.Allowed {
		t.Fatal("batch touching required beats should be denied")
	}
	if len(v.AffectedBeats) != 2 {
		t.Errorf("affected beats = %v, want beat-a and beat-b once each", v.AffectedBeats)
	}
}

func TestCheckBatchNonDestructiveOpsPass(t *testing.T) {
	o := fakeOutline{"scene-1": {"beat-a"}}

	batch := &editop.Batch{DocID: "scene-1", Ops: []editop.Op{
		editop.Replace("beat-a", 0, 4, "edit"),
		editop.InsertAfter("beat-a", "a new paragraph"),
		editop.Annotate("beat-a", "consider expanding"),
	}}
	v, err := CheckBatch(context.Background(), o, "scene-1", batch)
	if err != nil || !v.Allowed {
		t.Errorf("in-place edits of a beat should pass the guard, got %+v err %v", v, err)
	}
}
