// Package api exposes the editing engine over REST plus a WebSocket stream
// for orchestrator progress. Every mutation — the manual edit panel and the
// multi-block orchestrator alike — converges on the same engine apply call,
// so atomicity and guard checks cannot be bypassed by choosing an endpoint.
package api

import (
	"context"
	"sync"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/engine"
	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/guard"
	"github.com/quillcraft/inkwell/core/index"
	"github.com/quillcraft/inkwell/core/pending"
	"github.com/quillcraft/inkwell/core/revise"
	"github.com/quillcraft/inkwell/core/snapshot"
	"github.com/quillcraft/inkwell/internal/logging"
)

// DocumentStore is the persistence collaborator contract.
type DocumentStore interface {
	Load(ctx context.Context, docID string) (*doc.Document, error)
	Save(ctx context.Context, d *doc.Document) error
	Delete(ctx context.Context, docID string) error
	ListDocuments(ctx context.Context) ([]*doc.Document, error)
}

// Service owns the engine, the chunk index, the pending-batch registry, and
// the revision snapshots. It serializes writes per document: this is a
// single-writer model, and the lock is what makes the optimistic checks in
// the engine sufficient.
type Service struct {
	Store     DocumentStore
	Engine    *engine.Engine
	Index     *index.Index
	Pending   *pending.Set
	Snapshots *snapshot.Store
	Reviser   *revise.Orchestrator
	Style     guard.StyleConfig
	Outline   guard.Outline

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires a service. Snapshots may be nil to disable revision
// history.
func NewService(store DocumentStore, outline guard.Outline, ix *index.Index, rw revise.Rewriter, snaps *snapshot.Store, style guard.StyleConfig) *Service {
	return &Service{
		Store:     store,
		Engine:    engine.New(outline),
		Index:     ix,
		Pending:   pending.NewSet(),
		Snapshots: snaps,
		Reviser:   revise.New(ix, rw),
		Style:     style,
		Outline:   outline,
		locks:     make(map[string]*sync.Mutex),
	}
}

// docLock returns the per-document write lock.
func (s *Service) docLock(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[docID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[docID] = l
	}
	return l
}

// Rebuild reloads every document and rebuilds the chunk index. Called at
// startup; the index is process-local and never migrated across restarts.
func (s *Service) Rebuild(ctx context.Context) error {
	docs, err := s.Store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	s.Index.RebuildFromDocuments(docs)
	return nil
}

// Simulate validates a batch against the stored document and, on success,
// registers a pending batch for review. The policy report (guard verdict plus
// style hits) is computed alongside; style hits never block.
func (s *Service) Simulate(ctx context.Context, batch *editop.Batch) (*engine.SimulateResult, *pending.Batch, *guard.BatchReport, error) {
	d, err := s.Store.Load(ctx, batch.DocID)
	if err != nil {
		return nil, nil, nil, err
	}

	var report *guard.BatchReport
	if s.Outline != nil {
		report, err = guard.EvaluateBatchPolicies(ctx, s.Outline, d.ID, batch, s.Style)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	res, err := s.Engine.Simulate(ctx, batch, d)
	if err != nil {
		return nil, nil, report, err
	}
	if !res.OK {
		logging.BatchRefused(batch.DocID, res.Code, len(res.Conflicts))
		return res, nil, report, nil
	}

	pb := pending.NewBatch(batch, res.Diff)
	s.Pending.Add(pb)
	return res, pb, report, nil
}

// Apply commits a batch atomically: engine apply, persistence, revision
// snapshot, and chunk-index refresh, under the document's write lock.
func (s *Service) Apply(ctx context.Context, batch *editop.Batch) (*engine.ApplyResult, error) {
	l := s.docLock(batch.DocID)
	l.Lock()
	defer l.Unlock()

	d, err := s.Store.Load(ctx, batch.DocID)
	if err != nil {
		return nil, err
	}

	res, err := s.Engine.Apply(ctx, batch, d)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		logging.BatchRefused(batch.DocID, res.Code, len(res.Conflicts))
		return res, nil
	}

	if err := s.Store.Save(ctx, d); err != nil {
		return nil, err
	}
	if s.Snapshots != nil {
		if _, err := s.Snapshots.Save(d); err != nil {
			logging.Error("snapshot save failed", "doc_id", d.ID, "error", err.Error())
		}
	}
	s.Index.IndexDocument(d)
	return res, nil
}

// CommitPending applies the accepted sub-batch of a pending batch through
// the same engine path as any other batch, then discards the pending state.
// A pending batch whose document moved on since simulation is refused with
// STALE_BASE like any stale batch.
func (s *Service) CommitPending(ctx context.Context, pendingID string) (*engine.ApplyResult, error) {
	pb := s.Pending.Get(pendingID)
	if pb == nil {
		return nil, errors.NewNotFound("pending batch", pendingID)
	}

	accepted := pb.AcceptedOps()
	if len(accepted.Ops) == 0 {
		s.Pending.Clear(pendingID)
		return &engine.ApplyResult{OK: true}, nil
	}

	res, err := s.Apply(ctx, accepted)
	if err != nil {
		return nil, err
	}
	if res.OK {
		s.Pending.Clear(pendingID)
	}
	return res, nil
}

// DeleteDocument removes a document and cascades the removal into the chunk
// index.
func (s *Service) DeleteDocument(ctx context.Context, docID string) error {
	l := s.docLock(docID)
	l.Lock()
	defer l.Unlock()

	if err := s.Store.Delete(ctx, docID); err != nil {
		return err
	}
	s.Index.RemoveDoc(docID)
	return nil
}

// CreateDocument saves a newly built document and indexes it.
func (s *Service) CreateDocument(ctx context.Context, d *doc.Document) error {
	l := s.docLock(d.ID)
	l.Lock()
	defer l.Unlock()

	if err := s.Store.Save(ctx, d); err != nil {
		return err
	}
	if s.Snapshots != nil {
		if _, err := s.Snapshots.Save(d); err != nil {
			logging.Error("snapshot save failed", "doc_id", d.ID, "error", err.Error())
		}
	}
	s.Index.IndexDocument(d)
	return nil
}

// Revise runs the orchestrator over the stored document and registers the
// merged batch as a pending review, returning the simulate diff alongside.
func (s *Service) Revise(ctx context.Context, docID string, opts revise.Options) (*engine.SimulateResult, *pending.Batch, error) {
	d, err := s.Store.Load(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	batch, err := s.Reviser.Revise(ctx, d, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(batch.Ops) == 0 {
		return &engine.SimulateResult{OK: true}, nil, nil
	}

	res, err := s.Engine.Simulate(ctx, batch, d)
	if err != nil {
		return nil, nil, err
	}
	if !res.OK {
		return res, nil, nil
	}
	pb := pending.NewBatch(batch, res.Diff)
	s.Pending.Add(pb)
	return res, pb, nil
}
