package handler

import (
	"net/http"
	"strconv"

	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
)

// Dashboard serves the overview page numbers.
type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(svc *core.DashboardService) *Dashboard {
	return &Dashboard{svc: svc}
}

// Stats returns the cached headline stats. ?refresh=true recomputes them.
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.svc.Invalidate()
	}

	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, no-cache")
	response.WriteJSON(w, http.StatusOK, stats)
}
