package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/health"
)

// Health exposes the component monitor: latest status, history, manual
// checks, the polling toggle and a live stream.
type Health struct {
	monitor *health.Monitor
}

func NewHealth(monitor *health.Monitor) *Health {
	return &Health{monitor: monitor}
}

type healthResponse struct {
	health.Snapshot
	Polling         bool `json:"polling"`
	IntervalSeconds int  `json:"interval_seconds"`
}

func (h *Health) wrap(snap health.Snapshot) healthResponse {
	return healthResponse{
		Snapshot:        snap,
		Polling:         h.monitor.Polling(),
		IntervalSeconds: int(h.monitor.Interval() / time.Second),
	}
}

// Get returns the latest snapshot, running a check first if none exists yet.
func (h *Health) Get(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.monitor.Latest()
	if !ok {
		snap = h.monitor.Check(r.Context())
	}
	response.WriteJSON(w, http.StatusOK, h.wrap(snap))
}

func (h *Health) History(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.monitor.History())
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.wrap(h.monitor.Check(r.Context())))
}

func (h *Health) SetPolling(w http.ResponseWriter, r *http.Request) {
	var req request.SetPolling
	if !decode(w, r, &req) {
		return
	}

	if err := h.monitor.SetPolling(*req.Enabled); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"polling":          h.monitor.Polling(),
		"interval_seconds": int(h.monitor.Interval() / time.Second),
	})
}

// Stream pushes every new snapshot over a WebSocket until the client goes away.
func (h *Health) Stream(w http.ResponseWriter, r *http.Request) {
	log := logFor(r)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through admin-ui.
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	updates, unsubscribe := h.monitor.Subscribe()
	defer unsubscribe()

	// Clients only listen; CloseRead cancels ctx when they disconnect.
	ctx := ws.CloseRead(r.Context())

	if snap, ok := h.monitor.Latest(); ok {
		if err := h.send(ctx, ws, snap); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case snap, ok := <-updates:
			if !ok {
				ws.Close(websocket.StatusGoingAway, "monitor stopped")
				return
			}
			if err := h.send(ctx, ws, snap); err != nil {
				return
			}
		}
	}
}

func (h *Health) send(ctx context.Context, ws *websocket.Conn, snap health.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(ctx, ws, h.wrap(snap))
}
