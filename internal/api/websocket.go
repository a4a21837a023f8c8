package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillcraft/inkwell/core/revise"
	"github.com/quillcraft/inkwell/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-process UI; the service binds to localhost.
		return true
	},
}

// wsMessage is one frame of a progressive revise stream.
type wsMessage struct {
	Type      string           `json:"type"` // "progress", "complete", "error"
	Progress  *revise.Progress `json:"progress,omitempty"`
	Batch     any              `json:"batch,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp string           `json:"timestamp"`
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// handleReviseWS streams a progressive revise run over a WebSocket: one
// progress frame per candidate block, then a complete frame with the merged
// batch. Nothing is applied; the client reviews and commits the batch through
// the regular simulate/apply endpoints. Closing the socket cancels the run
// cooperatively.
func (s *Service) handleReviseWS(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	opts := revise.Options{
		Intent:      revise.Intent(r.URL.Query().Get("intent")),
		Instruction: r.URL.Query().Get("instruction"),
		Style:       r.URL.Query().Get("style"),
	}
	if v := r.URL.Query().Get("max_blocks"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.MaxBlocks = n
		}
	}

	d, err := s.Store.Load(r.Context(), docID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()
	logging.WebSocketEvent("revise_stream_opened", 1, "doc_id", docID)

	ctx := r.Context()
	events, err := s.Reviser.ReviseProgressive(ctx, d, opts)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error(), Timestamp: stamp()})
		return
	}

	for ev := range events {
		var msg wsMessage
		switch {
		case ev.Progress != nil:
			msg = wsMessage{Type: "progress", Progress: ev.Progress, Timestamp: stamp()}
		case ev.Complete != nil:
			msg = wsMessage{Type: "complete", Batch: ev.Complete, Timestamp: stamp()}
		}
		if err := conn.WriteJSON(msg); err != nil {
			// Client went away; the run stops at the next yield.
			logging.WebSocketEvent("revise_stream_dropped", 0, "doc_id", docID)
			return
		}
	}
	logging.WebSocketEvent("revise_stream_closed", 0, "doc_id", docID)
}
