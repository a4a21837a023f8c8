package pending

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/quillcraft/inkwell/core/diff"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
)

func testBatch(t *testing.T) *Batch {
	t.Helper()
	src := &editop.Batch{
		DocID:       "d1",
		BaseVersion: "v1",
		Notes:       "tighten chapter two",
		Ops: []editop.Op{
			editop.ReplaceBlock("b1", "first rewrite"),
			editop.ReplaceBlock("b2", "second rewrite"),
			editop.DeleteBlock("b3"),
		},
	}
	diffs := []diff.BlockDiff{
		{BlockID: "b1", Type: diff.Modified, NewText: "first rewrite"},
		{BlockID: "b2", Type: diff.Modified, NewText: "second rewrite"},
		{BlockID: "b3", Type: diff.Deleted},
	}
	return NewBatch(src, diffs)
}

func TestNewBatch(t *testing.T) {
	pb := testBatch(t)
	if pb.ID == "" || pb.DocID != "d1" || pb.BaseVersion != "v1" {
		t.Fatalf("batch header wrong: %+v", pb)
	}
	if len(pb.Operations) != 3 {
		t.Fatalf("operations = %d, want 3", len(pb.Operations))
	}
	seen := make(map[string]bool)
	for i, op := range pb.Operations {
		if op.Status != StatusPending {
			t.Errorf("op %d status = %s, want pending", i, op.Status)
		}
		if op.ID == "" || seen[op.ID] {
			t.Errorf("op %d id %q not unique", i, op.ID)
		}
		seen[op.ID] = true
		if op.Diff.BlockID != op.Op.BlockID {
			t.Errorf("op %d diff not paired with its op", i)
		}
	}
}

func TestTransitionsAreOneWay(t *testing.T) {
	pb := testBatch(t)
	id := pb.Operations[0].ID

	if err := pb.AcceptOperation(id); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if pb.Operations[0].Status != StatusAccepted {
		t.Error("status not accepted")
	}
	if err := pb.RejectOperation(id); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("re-deciding an accepted op should fail validation, got %v", err)
	}
	if err := pb.AcceptOperation("missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown op id should be not-found, got %v", err)
	}
}

func TestAcceptedOpsSubBatch(t *testing.T) {
	pb := testBatch(t)
	if pb.Resolved() {
		t.Error("fresh batch should not be resolved")
	}

	pb.AcceptOperation(pb.Operations[0].ID)
	pb.RejectOperation(pb.Operations[1].ID)
	pb.AcceptOperation(pb.Operations[2].ID)
	if !pb.Resolved() {
		t.Error("fully decided batch should be resolved")
	}

	sub := pb.AcceptedOps()
	if sub.DocID != "d1" || sub.BaseVersion != "v1" || sub.Notes != "tighten chapter two" {
		t.Errorf("sub-batch header wrong: %+v", sub)
	}
	if len(sub.Ops) != 2 || sub.Ops[0].BlockID != "b1" || sub.Ops[1].BlockID != "b3" {
		t.Errorf("accepted ops = %+v, want b1 then b3 in original order", sub.Ops)
	}
}

func TestAcceptAllRejectAll(t *testing.T) {
	pb := testBatch(t)
	pb.RejectOperation(pb.Operations[1].ID)
	pb.AcceptAll()
	if pb.Operations[1].Status != StatusRejected {
		t.Error("AcceptAll must not override an explicit rejection")
	}
	if pb.Operations[0].Status != StatusAccepted || pb.Operations[2].Status != StatusAccepted {
		t.Error("AcceptAll left pending ops undecided")
	}

	pb2 := testBatch(t)
	pb2.RejectAll()
	if len(pb2.AcceptedOps().Ops) != 0 {
		t.Error("RejectAll should leave nothing to apply")
	}
}

func TestConcurrentDecisions(t *testing.T) {
	pb := testBatch(t)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		pb.AcceptAll()
	}()
	go func() {
		defer wg.Done()
		pb.RejectAll()
	}()
	go func() {
		defer wg.Done()
		pb.AcceptOperation(pb.Operations[0].ID)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if _, err := json.Marshal(pb); err != nil {
				t.Errorf("marshal during review: %v", err)
			}
			pb.Resolved()
		}
	}()
	wg.Wait()

	if !pb.Resolved() {
		t.Error("batch should be fully decided")
	}
	for i, op := range pb.Operations {
		if op.Status != StatusAccepted && op.Status != StatusRejected {
			t.Errorf("op %d status = %q after concurrent decisions", i, op.Status)
		}
	}
}

func TestSetRegistry(t *testing.T) {
	s := NewSet()
	pb := testBatch(t)

	s.Add(pb)
	if got := s.Get(pb.ID); got != pb {
		t.Errorf("Get = %v, want the added batch", got)
	}
	s.Clear(pb.ID)
	if s.Get(pb.ID) != nil {
		t.Error("cleared batch still retrievable")
	}
	if s.Get("missing") != nil {
		t.Error("unknown id should return nil")
	}
}
