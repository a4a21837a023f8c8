// Package guard protects load-bearing narrative content from destructive
// edits and evaluates advisory style rules. The outline guard is the only
// policy that can block a batch; style hits never do.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillcraft/inkwell/core/editop"
)

// Outline is the collaborator exposing a scene's required-beat block ids.
// Beats are consulted, never owned, by this package.
type Outline interface {
	RequiredBeats(ctx context.Context, sceneID string) ([]string, error)
}

// Verdict is the guard's decision for a block or a whole batch.
type Verdict struct {
	Allowed       bool     `json:"allowed"`
	Reason        string   `json:"reason,omitempty"`
	SceneID       string   `json:"scene_id,omitempty"`
	AffectedBeats []string `json:"affected_beats,omitempty"`
}

// CheckDeleteGuard decides whether a structurally destructive op may touch
// the given block. Blocks listed as required beats in the scene's outline are
// denied; everything else is allowed.
func CheckDeleteGuard(ctx context.Context, o Outline, sceneID, blockID string) (Verdict, error) {
	beats, err := o.RequiredBeats(ctx, sceneID)
	if err != nil {
		return Verdict{}, err
	}
	for _, beat := range beats {
		if beat == blockID {
			return Verdict{
				Allowed:       false,
				Reason:        fmt.Sprintf("block %s is a required beat of scene %s", blockID, sceneID),
				SceneID:       sceneID,
				AffectedBeats: []string{blockID},
			}, nil
		}
	}
	return Verdict{Allowed: true, SceneID: sceneID}, nil
}

// CheckBatch applies the delete guard to every destructive op in the batch
// (deleteBlock, replaceBlock, moveBlock) and aggregates the affected beats.
// A blocked batch may proceed only via an explicit caller-confirmed override
// that re-issues it with the guard skipped; the guard itself is never
// silently bypassed.
func CheckBatch(ctx context.Context, o Outline, sceneID string, batch *editop.Batch) (Verdict, error) {
	beats, err := o.RequiredBeats(ctx, sceneID)
	if err != nil {
		return Verdict{}, err
	}
	if len(beats) == 0 {
		return Verdict{Allowed: true, SceneID: sceneID}, nil
	}

	beatSet := make(map[string]bool, len(beats))
	for _, b := range beats {
		beatSet[b] = true
	}

	var affected []string
	seen := make(map[string]bool)
	for i := range batch.Ops {
		op := &batch.Ops[i]
		if !op.Destructive() {
			continue
		}
		if beatSet[op.BlockID] && !seen[op.BlockID] {
			affected = append(affected, op.BlockID)
			seen[op.BlockID] = true
		}
	}

	if len(affected) > 0 {
		return Verdict{
			Allowed:       false,
			Reason:        fmt.Sprintf("batch would alter required beats: %s", strings.Join(affected, ", ")),
			SceneID:       sceneID,
			AffectedBeats: affected,
		}, nil
	}
	return Verdict{Allowed: true, SceneID: sceneID}, nil
}
