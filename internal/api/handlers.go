package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/index"
	"github.com/quillcraft/inkwell/core/revise"
	"github.com/quillcraft/inkwell/internal/importer"
)

// Routes returns the service mux.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/documents/import", s.handleImport)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/history/{version}", s.handleGetRevision)

	mux.HandleFunc("POST /api/documents/{id}/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/documents/{id}/apply", s.handleApply)
	mux.HandleFunc("POST /api/documents/{id}/revise", s.handleRevise)
	mux.HandleFunc("GET /api/documents/{id}/revise/ws", s.handleReviseWS)

	mux.HandleFunc("GET /api/pending/{id}", s.handleGetPending)
	mux.HandleFunc("POST /api/pending/{id}/accept", s.handlePendingDecision(true))
	mux.HandleFunc("POST /api/pending/{id}/reject", s.handlePendingDecision(false))
	mux.HandleFunc("POST /api/pending/{id}/commit", s.handleCommitPending)
	mux.HandleFunc("DELETE /api/pending/{id}", s.handleClearPending)

	mux.HandleFunc("GET /api/search", s.handleSearch)

	return mux
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error         string   `json:"error"`
	Code          string   `json:"code,omitempty"`
	AffectedBeats []string `json:"affected_beats,omitempty"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses:
// validation 400, not-found 404, guard 423, conflict 409.
func writeError(w http.ResponseWriter, err error) {
	var guardErr *errors.GuardBlockedError
	if errors.As(err, &guardErr) {
		writeJSON(w, http.StatusLocked, errorBody{
			Error:         guardErr.Error(),
			Code:          "GUARD_BLOCKED",
			AffectedBeats: guardErr.AffectedBeats,
		})
		return
	}
	var conflictErr *errors.ConflictError
	if errors.As(err, &conflictErr) {
		writeJSON(w, http.StatusConflict, errorBody{Error: conflictErr.Error(), Code: conflictErr.Code})
		return
	}
	switch {
	case errors.Is(err, errors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, errors.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// decodeBatch reads an edit batch from the request, forcing the doc id from
// the path so a body cannot target another document.
func decodeBatch(r *http.Request) (*editop.Batch, error) {
	var batch editop.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		return nil, errors.NewValidation("body", "malformed batch: "+err.Error())
	}
	batch.DocID = r.PathValue("id")
	return &batch, nil
}

type importRequest struct {
	DocID string `json:"doc_id"`
	XHTML string `json:"xhtml"`
}

func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidation("body", err.Error()))
		return
	}
	d, err := importer.ImportXHTML(req.DocID, []byte(req.XHTML))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.CreateDocument(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Service) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.Store.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Service) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		writeError(w, errors.NewNotFound("revision store", ""))
		return
	}
	d, err := s.Snapshots.LoadVersion(r.PathValue("version"))
	if err != nil {
		writeError(w, errors.NewNotFound("revision", r.PathValue("version")))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// simulateResponse bundles the dry-run diff with the pending-batch id and
// the advisory policy report.
type simulateResponse struct {
	OK        bool   `json:"ok"`
	Code      string `json:"code,omitempty"`
	Conflicts any    `json:"conflicts,omitempty"`
	Diff      any    `json:"diff,omitempty"`
	PendingID string `json:"pending_id,omitempty"`
	Policy    any    `json:"policy,omitempty"`
}

func (s *Service) handleSimulate(w http.ResponseWriter, r *http.Request) {
	batch, err := decodeBatch(r)
	if err != nil {
		writeError(w, err)
		return
	}
	batch.Simulate = true

	res, pb, report, err := s.Simulate(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := simulateResponse{OK: res.OK, Code: res.Code, Policy: report}
	if res.OK {
		resp.Diff = res.Diff
		if pb != nil {
			resp.PendingID = pb.ID
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Conflicts = res.Conflicts
	writeJSON(w, http.StatusConflict, resp)
}

func (s *Service) handleApply(w http.ResponseWriter, r *http.Request) {
	batch, err := decodeBatch(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.Apply(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.OK {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type reviseRequest struct {
	Intent      string `json:"intent"`
	Instruction string `json:"instruction,omitempty"`
	MaxBlocks   int    `json:"max_blocks,omitempty"`
	Style       string `json:"style,omitempty"`
}

func (s *Service) handleRevise(w http.ResponseWriter, r *http.Request) {
	var req reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidation("body", err.Error()))
		return
	}

	res, pb, err := s.Revise(r.Context(), r.PathValue("id"), revise.Options{
		Intent:      revise.Intent(req.Intent),
		Instruction: req.Instruction,
		MaxBlocks:   req.MaxBlocks,
		Style:       req.Style,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := simulateResponse{OK: res.OK, Code: res.Code}
	if res.OK {
		resp.Diff = res.Diff
		if pb != nil {
			resp.PendingID = pb.ID
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Conflicts = res.Conflicts
	writeJSON(w, http.StatusConflict, resp)
}

func (s *Service) handleGetPending(w http.ResponseWriter, r *http.Request) {
	pb := s.Pending.Get(r.PathValue("id"))
	if pb == nil {
		writeError(w, errors.NewNotFound("pending batch", r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, pb)
}

type decisionRequest struct {
	OpID string `json:"op_id,omitempty"`
	All  bool   `json:"all,omitempty"`
}

// handlePendingDecision accepts or rejects a single pending operation, or
// every remaining one with {"all": true}.
func (s *Service) handlePendingDecision(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pb := s.Pending.Get(r.PathValue("id"))
		if pb == nil {
			writeError(w, errors.NewNotFound("pending batch", r.PathValue("id")))
			return
		}
		var req decisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.NewValidation("body", err.Error()))
			return
		}
		switch {
		case req.All && accept:
			pb.AcceptAll()
		case req.All:
			pb.RejectAll()
		case accept:
			if err := pb.AcceptOperation(req.OpID); err != nil {
				writeError(w, err)
				return
			}
		default:
			if err := pb.RejectOperation(req.OpID); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, pb)
	}
}

func (s *Service) handleCommitPending(w http.ResponseWriter, r *http.Request) {
	res, err := s.CommitPending(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.OK {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleClearPending(w http.ResponseWriter, r *http.Request) {
	s.Pending.Clear(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := index.ParseQuery(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	hits := s.Index.SearchQuery(q, limit)
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
