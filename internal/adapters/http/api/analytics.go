package api

import (
	"net/http"
)

// AnalyticsHandler serves the read-only analytics of one snapshot.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleSummary handles GET /snapshots/{id}/summary.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.VoteSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleAlignment handles GET /snapshots/{id}/alignment.
func (h *AnalyticsHandler) HandleAlignment(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Alignment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.alignment", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMember handles GET /snapshots/{id}/members/{name}.
func (h *AnalyticsHandler) HandleMember(w http.ResponseWriter, r *http.Request) {
	profile, err := h.deps.MemberProfile(r.Context(), r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, "api.member_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleAgenda handles GET /snapshots/{id}/agenda.
func (h *AnalyticsHandler) HandleAgenda(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.deps.AgendaItems(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.agenda", err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

// HandleAgendaItem handles GET /snapshots/{id}/agenda/{item_id}.
func (h *AnalyticsHandler) HandleAgendaItem(w http.ResponseWriter, r *http.Request) {
	detail, err := h.deps.AgendaItem(r.Context(), r.PathValue("id"), r.PathValue("item_id"))
	if err != nil {
		writeServiceError(w, "api.agenda_item", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
