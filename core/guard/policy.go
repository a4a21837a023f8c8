package guard

import (
	"context"

	"github.com/quillcraft/inkwell/core/editop"
)

// OpStyle is the style findings for one op's incoming text.
type OpStyle struct {
	OpIndex int        `json:"op_index"`
	BlockID string     `json:"block_id"`
	Hits    []StyleHit `json:"hits,omitempty"`
}

// BatchReport aggregates per-op style hits and the outline-guard verdict for
// a whole batch. Safe mirrors the guard verdict alone: style hits never make
// a batch unsafe.
type BatchReport struct {
	Guard Verdict   `json:"guard"`
	Ops   []OpStyle `json:"ops,omitempty"`
	Safe  bool      `json:"safe"`
}

// EvaluateBatchPolicies runs the style rules over every op that introduces
// text and the delete guard over the batch as a whole.
func EvaluateBatchPolicies(ctx context.Context, o Outline, sceneID string, batch *editop.Batch, cfg StyleConfig) (*BatchReport, error) {
	verdict, err := CheckBatch(ctx, o, sceneID, batch)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Guard: verdict, Safe: verdict.Allowed}
	for i := range batch.Ops {
		op := &batch.Ops[i]
		var text string
		switch op.Kind {
		case editop.KindReplace, editop.KindReplaceBlock, editop.KindInsertAfter:
			text = op.Text
		case editop.KindDeleteBlock, editop.KindMoveBlock, editop.KindAnnotate:
			continue
		}
		hits := EvaluateStyleRules(text, cfg)
		if len(hits) > 0 {
			report.Ops = append(report.Ops, OpStyle{OpIndex: i, BlockID: op.BlockID, Hits: hits})
		}
	}
	return report, nil
}
