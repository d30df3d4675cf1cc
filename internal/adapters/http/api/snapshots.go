package api

import (
	"errors"
	"net/http"

	"github.com/okian/rollcall/internal/adapters/snapshot"
)

// SnapshotsHandler handles snapshot upload, listing and removal.
type SnapshotsHandler struct {
	deps     SnapshotDependencies
	maxBytes int64
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies, maxBytes int64) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps, maxBytes: maxBytes}
}

// HandleList handles GET /snapshots.
func (h *SnapshotsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Snapshots(r.Context()))
}

// HandleUpload handles POST /snapshots?id=ID. The body is a snapshot document.
func (h *SnapshotsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_snapshot"

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	snap, err := snapshot.Decode(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	info, err := h.deps.Ingest(r.Context(), r.URL.Query().Get("id"), snap)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Location", "/snapshots/"+info.ID+"/summary")
	writeJSON(w, http.StatusCreated, info)
}

// HandleDelete handles DELETE /snapshots/{id}.
func (h *SnapshotsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_snapshot"

	if err := h.deps.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
