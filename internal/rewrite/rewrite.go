// Package rewrite provides a deterministic, rule-based implementation of the
// rewriting collaborator. It backs the CLI's offline revise command and the
// orchestrator tests; the production AI client implements the same contract
// in the application layer.
package rewrite

import (
	"context"
	"regexp"
	"strings"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/revise"
)

// weakModifiers are dropped by the reduce-adverbs and tighten rules.
var weakModifiers = map[string]bool{
	"very": true, "really": true, "quite": true, "rather": true,
	"suddenly": true, "just": true, "actually": true, "basically": true,
	"literally": true, "somewhat": true, "totally": true,
}

var spaceRun = regexp.MustCompile(`  +`)

// RuleBased is a deterministic Rewriter. For each request it strips weak
// modifiers and collapses doubled spaces; when that changes nothing, it
// proposes no ops.
type RuleBased struct{}

// Rewrite implements revise.Rewriter. The proposed op is pinned to the
// current content hash of the selection text, so an interleaved edit is
// caught as a conflict at apply time.
func (RuleBased) Rewrite(ctx context.Context, req revise.Request) (*editop.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := rewriteText(req.BlockText)
	batch := &editop.Batch{DocID: req.DocID, BaseVersion: req.BaseVersion}
	if out == req.BlockText {
		return batch, nil
	}

	op := editop.ReplaceBlock(req.Selection.BlockID, out)
	op.ExpectHash = doc.HashBlock(req.BlockText)
	batch.Ops = append(batch.Ops, op)
	return batch, nil
}

func rewriteText(text string) string {
	words := strings.Split(text, " ")
	kept := words[:0]
	for _, w := range words {
		if weakModifiers[strings.ToLower(strings.Trim(w, ".,;!?"))] {
			continue
		}
		kept = append(kept, w)
	}
	return spaceRun.ReplaceAllString(strings.TrimSpace(strings.Join(kept, " ")), " ")
}
