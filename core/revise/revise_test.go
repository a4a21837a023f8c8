package revise

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/index"
)

// fakeRewriter proposes one replaceBlock per request, uppercasing the text.
// failOn and strayOps exercise the orchestrator's skip and filter paths.
type fakeRewriter struct {
	requests []Request
	failOn   map[string]bool
	strayOps bool
}

func (f *fakeRewriter) Rewrite(ctx context.Context, req Request) (*editop.Batch, error) {
	f.requests = append(f.requests, req)
	if f.failOn[req.Selection.BlockID] {
		return nil, fmt.Errorf("rewriter unavailable")
	}
	batch := &editop.Batch{
		DocID:       req.DocID,
		BaseVersion: req.BaseVersion,
		Ops:         []editop.Op{editop.ReplaceBlock(req.Selection.BlockID, strings.ToUpper(req.BlockText))},
	}
	if f.strayOps {
		batch.Ops = append(batch.Ops, editop.DeleteBlock("some-other-block"))
	}
	return batch, nil
}

func testDoc(t *testing.T) *doc.Document {
	t.Helper()
	d := doc.New("d1", "Draft")
	d.Append(doc.NewHeading("Chapter One", 1))
	d.Append(doc.NewBlock("she walked very slowly"))
	d.Append(doc.NewBlock("the door was opened"))
	d.Append(doc.NewBlock("plain sentence"))
	return d
}

func TestReviseMergesBatch(t *testing.T) {
	d := testDoc(t)
	rw := &fakeRewriter{}
	o := New(index.New(), rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentTighten})
	if err != nil {
		t.Fatalf("Revise failed: %v", err)
	}
	if batch.DocID != d.ID || batch.BaseVersion != d.BaseVersion {
		t.Errorf("batch not built against the current document version: %+v", batch)
	}
	// Headings are not rewrite candidates.
	if len(batch.Ops) != 3 {
		t.Fatalf("ops = %+v, want one per paragraph", batch.Ops)
	}
	for _, op := range batch.Ops {
		if op.Kind != editop.KindReplaceBlock {
			t.Errorf("unexpected op kind %s", op.Kind)
		}
	}
	if !strings.Contains(batch.Notes, "intent=tighten") {
		t.Errorf("notes = %q, want intent summary", batch.Notes)
	}
	if len(rw.requests) != 3 || rw.requests[0].Instruction == "" {
		t.Errorf("requests = %+v", rw.requests)
	}
}

func TestReviseMaxBlocks(t *testing.T) {
	d := testDoc(t)
	rw := &fakeRewriter{}
	o := New(index.New(), rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentTighten, MaxBlocks: 1})
	if err != nil {
		t.Fatalf("Revise failed: %v", err)
	}
	if len(batch.Ops) != 1 || len(rw.requests) != 1 {
		t.Errorf("MaxBlocks ignored: ops=%d requests=%d", len(batch.Ops), len(rw.requests))
	}
}

func TestReviseRetrievalRanksCandidates(t *testing.T) {
	d := testDoc(t)
	ix := index.New()
	ix.IndexDocument(d)
	rw := &fakeRewriter{}
	o := New(ix, rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentReduceAdverbs, MaxBlocks: 1})
	if err != nil {
		t.Fatalf("Revise failed: %v", err)
	}
	if len(batch.Ops) != 1 {
		t.Fatalf("ops = %+v", batch.Ops)
	}
	target := d.Lookup(batch.Ops[0].BlockID)
	if target == nil || !strings.Contains(target.Text, "very") {
		t.Errorf("retrieval picked %q, want the adverb-heavy block", batch.Ops[0].BlockID)
	}
}

func TestReviseRetrievalSkipsHeadings(t *testing.T) {
	d := doc.New("d1", "Draft")
	heading := doc.NewHeading("Very Suddenly", 1)
	d.Append(heading)
	d.Append(doc.NewBlock("she walked very slowly"))
	ix := index.New()
	ix.IndexDocument(d)
	rw := &fakeRewriter{}
	o := New(ix, rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentReduceAdverbs})
	if err != nil {
		t.Fatalf("Revise failed: %v", err)
	}
	for _, op := range batch.Ops {
		if op.BlockID == heading.ID {
			t.Error("heading block selected as a rewrite candidate")
		}
	}
	if len(batch.Ops) != 1 {
		t.Errorf("ops = %+v, want only the paragraph", batch.Ops)
	}
}

func TestReviseSkipsFailedBlocks(t *testing.T) {
	d := testDoc(t)
	failing := d.Blocks[1].ID
	rw := &fakeRewriter{failOn: map[string]bool{failing: true}}
	o := New(index.New(), rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentTighten})
	if err != nil {
		t.Fatalf("one failed block must not abort the run: %v", err)
	}
	if len(batch.Ops) != 2 {
		t.Errorf("ops = %+v, want the two surviving blocks", batch.Ops)
	}
	for _, op := range batch.Ops {
		if op.BlockID == failing {
			t.Error("failed block produced an op")
		}
	}
}

func TestReviseFiltersOutOfBlockOps(t *testing.T) {
	d := testDoc(t)
	rw := &fakeRewriter{strayOps: true}
	o := New(index.New(), rw)

	batch, err := o.Revise(context.Background(), d, Options{Intent: IntentTighten})
	if err != nil {
		t.Fatalf("Revise failed: %v", err)
	}
	for _, op := range batch.Ops {
		if op.BlockID == "some-other-block" {
			t.Error("op outside the requested block was not filtered")
		}
	}
}

func TestReviseValidation(t *testing.T) {
	d := testDoc(t)
	o := New(index.New(), &fakeRewriter{})

	if _, err := o.Revise(context.Background(), d, Options{Intent: "polish"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("unknown intent: want validation error, got %v", err)
	}
	if _, err := o.Revise(context.Background(), d, Options{Intent: IntentCustom}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("custom intent without instruction: want validation error, got %v", err)
	}
	empty := doc.New("d2", "Empty")
	if _, err := o.Revise(context.Background(), empty, Options{Intent: IntentTighten}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("empty document: want validation error, got %v", err)
	}
}

func TestReviseProgressiveEvents(t *testing.T) {
	d := testDoc(t)
	rw := &fakeRewriter{}
	o := New(index.New(), rw)

	events, err := o.ReviseProgressive(context.Background(), d, Options{Intent: IntentTighten})
	if err != nil {
		t.Fatalf("ReviseProgressive failed: %v", err)
	}

	var progress []Progress
	var complete *editop.Batch
	for ev := range events {
		switch {
		case ev.Progress != nil:
			progress = append(progress, *ev.Progress)
		case ev.Complete != nil:
			complete = ev.Complete
		}
	}
	if len(progress) != 3 {
		t.Fatalf("progress events = %+v, want one per candidate", progress)
	}
	for i, p := range progress {
		if p.Current != i+1 || p.Total != 3 || p.BlockID == "" {
			t.Errorf("progress[%d] = %+v", i, p)
		}
	}
	if complete == nil || len(complete.Ops) != 3 {
		t.Fatalf("complete = %+v, want the merged batch", complete)
	}
}

// blockingRewriter parks every request until its context is cancelled.
type blockingRewriter struct{}

func (blockingRewriter) Rewrite(ctx context.Context, req Request) (*editop.Batch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReviseProgressiveCancellation(t *testing.T) {
	d := testDoc(t)
	o := New(index.New(), blockingRewriter{})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := o.ReviseProgressive(ctx, d, Options{Intent: IntentTighten})
	if err != nil {
		t.Fatalf("ReviseProgressive failed: %v", err)
	}

	// Consume the first progress event, abandon the run, and check that the
	// channel closes and no edits come out of it.
	ev := <-events
	if ev.Progress == nil {
		t.Fatalf("first event = %+v, want progress", ev)
	}
	cancel()
	for ev := range events {
		if ev.Complete != nil && len(ev.Complete.Ops) > 0 {
			t.Errorf("cancelled run produced ops: %+v", ev.Complete.Ops)
		}
	}
}
