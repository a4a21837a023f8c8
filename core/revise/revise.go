// Package revise orchestrates multi-block AI-assisted edits: it retrieves
// target blocks through the chunk index, issues one scoped rewrite request
// per block to the external rewriting collaborator, and merges the accepted
// ops into a single edit batch. Nothing is applied here; the assembled batch
// goes through the engine's simulate/apply path like any other.
package revise

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/index"
	"github.com/quillcraft/inkwell/internal/logging"
)

// Intent is a named category of bulk rewrite goal.
type Intent string

// Intents.
const (
	IntentReduceAdverbs Intent = "reduce-adverbs"
	IntentFixPassive    Intent = "fix-passive"
	IntentTighten       Intent = "tighten"
	IntentExpand        Intent = "expand"
	IntentSimplify      Intent = "simplify"
	IntentFixGrammar    Intent = "fix-grammar"
	IntentCustom        Intent = "custom"
)

// validIntents is the set of valid intents.
var validIntents = map[Intent]bool{
	IntentReduceAdverbs: true,
	IntentFixPassive:    true,
	IntentTighten:       true,
	IntentExpand:        true,
	IntentSimplify:      true,
	IntentFixGrammar:    true,
	IntentCustom:        true,
}

// IsValid returns true if the intent is valid.
func (i Intent) IsValid() bool {
	return validIntents[i]
}

// instructions are the canned per-intent rewrite instructions.
var instructions = map[Intent]string{
	IntentReduceAdverbs: "Remove or replace weak adverbs and filler modifiers while preserving meaning.",
	IntentFixPassive:    "Rewrite passive constructions in active voice where it reads naturally.",
	IntentTighten:       "Tighten the prose: cut redundancy and filler without losing any content.",
	IntentExpand:        "Expand the passage with concrete sensory detail consistent with the existing tone.",
	IntentSimplify:      "Simplify sentence structure and vocabulary without flattening the voice.",
	IntentFixGrammar:    "Fix grammar, punctuation, and agreement errors. Change nothing else.",
}

// retrievalTerms are the index search terms used to rank candidate blocks for
// intents where lexical evidence identifies targets. Intents absent here fall
// back to document order.
var retrievalTerms = map[Intent]string{
	IntentReduceAdverbs: "very really quite rather suddenly just actually basically literally",
	IntentFixPassive:    "was were been being is are",
}

// Selection scopes a rewrite request to a span of one block.
type Selection struct {
	BlockID string `json:"block_id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Request is the payload sent to the rewriting collaborator for one block.
type Request struct {
	DocID       string    `json:"doc_id"`
	BaseVersion string    `json:"base_version"`
	Selection   Selection `json:"selection"`
	BlockText   string    `json:"block_text"`
	Style       string    `json:"style,omitempty"`
	Instruction string    `json:"instruction"`
}

// Rewriter is the external text-editing boundary. It may propose ops outside
// the requested block; the orchestrator filters them. It resolves or fails as
// a single unit.
type Rewriter interface {
	Rewrite(ctx context.Context, req Request) (*editop.Batch, error)
}

// Options configures one orchestrated revision run.
type Options struct {
	Intent      Intent
	Instruction string // required for IntentCustom, optional extra guidance otherwise
	MaxBlocks   int    // cap on blocks touched; defaults to 5
	Style       string // style tag forwarded to the rewriter
}

// defaultMaxBlocks caps a run when the caller does not.
const defaultMaxBlocks = 5

// Progress is one step of a progressive run.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	BlockID string `json:"block_id"`
}

// Event is one message from a progressive run: either a Progress step or the
// final Complete batch. Exactly one field is set.
type Event struct {
	Progress *Progress     `json:"progress,omitempty"`
	Complete *editop.Batch `json:"complete,omitempty"`
}

// Orchestrator assembles multi-block revisions. The index and rewriter are
// injected; the orchestrator owns neither.
type Orchestrator struct {
	index    *index.Index
	rewriter Rewriter
}

// New creates an orchestrator over the given index and rewriter.
func New(ix *index.Index, rw Rewriter) *Orchestrator {
	return &Orchestrator{index: ix, rewriter: rw}
}

// instruction builds the rewrite instruction for the run.
func (o *Orchestrator) instruction(opts Options) (string, error) {
	if opts.Intent == IntentCustom {
		if strings.TrimSpace(opts.Instruction) == "" {
			return "", errors.NewValidation("instruction", "custom intent requires an instruction")
		}
		return opts.Instruction, nil
	}
	base := instructions[opts.Intent]
	if opts.Instruction != "" {
		return base + " " + opts.Instruction, nil
	}
	return base, nil
}

// candidates selects up to max blocks to rewrite. Intents with lexical
// retrieval terms rank blocks through the chunk index; the rest take blocks
// in document order. Only paragraph blocks are rewritten, on either path:
// headings and scene breaks are structure, not prose.
func (o *Orchestrator) candidates(d *doc.Document, opts Options, max int) []*doc.Block {
	if terms, ok := retrievalTerms[opts.Intent]; ok {
		hits := o.index.SearchInDoc(d.ID, terms, max)
		blocks := make([]*doc.Block, 0, len(hits))
		for _, h := range hits {
			if blk := d.Lookup(h.BlockID); blk != nil && blk.Type == doc.BlockParagraph {
				blocks = append(blocks, blk)
			}
		}
		if len(blocks) > 0 {
			return blocks
		}
	}
	var blocks []*doc.Block
	for _, blk := range d.Blocks {
		if blk.Type != doc.BlockParagraph {
			continue
		}
		blocks = append(blocks, blk)
		if len(blocks) >= max {
			break
		}
	}
	return blocks
}

// Revise runs the full orchestration and returns one merged batch. Per-block
// rewrite failures are logged and skipped; they never abort the remaining
// blocks. The batch is tagged with a summary note and built against the
// document's current version, so a later apply detects any interleaved edit.
func (o *Orchestrator) Revise(ctx context.Context, d *doc.Document, opts Options) (*editop.Batch, error) {
	batch, _, err := o.run(ctx, d, opts, nil)
	return batch, err
}

// ReviseProgressive is Revise with discrete progress events: one Progress per
// candidate block before its rewrite request, then a final Complete event
// carrying the same merged batch Revise would return. The channel closes when
// the run finishes or ctx is cancelled; consumption is cooperative and an
// abandoned run mutates nothing.
func (o *Orchestrator) ReviseProgressive(ctx context.Context, d *doc.Document, opts Options) (<-chan Event, error) {
	if err := o.check(d, opts); err != nil {
		return nil, err
	}
	events := make(chan Event)
	go func() {
		defer close(events)
		batch, cancelled, err := o.run(ctx, d, opts, events)
		if err != nil || cancelled {
			return
		}
		select {
		case events <- Event{Complete: batch}:
		case <-ctx.Done():
		}
	}()
	return events, nil
}

func (o *Orchestrator) check(d *doc.Document, opts Options) error {
	if !opts.Intent.IsValid() {
		return errors.NewValidation("intent", "unknown intent: "+string(opts.Intent))
	}
	if len(d.Blocks) == 0 {
		return errors.NewValidation("doc", "document has no blocks")
	}
	return nil
}

// run is the shared orchestration loop. events, when non-nil, receives one
// Progress per block; run reports whether the consumer cancelled.
func (o *Orchestrator) run(ctx context.Context, d *doc.Document, opts Options, events chan<- Event) (*editop.Batch, bool, error) {
	if err := o.check(d, opts); err != nil {
		return nil, false, err
	}
	instruction, err := o.instruction(opts)
	if err != nil {
		return nil, false, err
	}

	max := opts.MaxBlocks
	if max <= 0 {
		max = defaultMaxBlocks
	}
	blocks := o.candidates(d, opts, max)

	merged := &editop.Batch{
		DocID:       d.ID,
		BaseVersion: d.BaseVersion,
	}
	touched := 0

	for i, blk := range blocks {
		if events != nil {
			select {
			case events <- Event{Progress: &Progress{Current: i + 1, Total: len(blocks), BlockID: blk.ID}}:
			case <-ctx.Done():
				return nil, true, nil
			}
		} else if ctx.Err() != nil {
			return nil, true, nil
		}

		req := Request{
			DocID:       d.ID,
			BaseVersion: d.BaseVersion,
			Selection:   Selection{BlockID: blk.ID, Start: 0, End: len(blk.Text)},
			BlockText:   blk.Text,
			Style:       opts.Style,
			Instruction: instruction,
		}
		proposed, err := o.rewriter.Rewrite(ctx, req)
		if err != nil {
			logging.RewriteFailed(d.ID, blk.ID, err)
			continue
		}

		accepted := 0
		for _, op := range proposed.Ops {
			// The collaborator may propose ops outside the requested
			// block; only in-block ops are kept.
			if op.BlockID != blk.ID {
				continue
			}
			merged.Ops = append(merged.Ops, op)
			accepted++
		}
		if accepted > 0 {
			touched++
		}
	}

	merged.Notes = fmt.Sprintf("revise: intent=%s ops=%d blocks=%d", opts.Intent, len(merged.Ops), touched)
	return merged, false, nil
}
