package handlers

import (
	"context"
	"courier-dispatch-service/internal/platform/obs"
	"log"
	"net/http"
	"time"
)

// Pinger is implemented by stores that can report their own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness checks. With a Store set it also pings the
// shop store and reports 503 when it does not answer.
type HealthHandler struct {
	Store Pinger
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]string{"status": "ok"}
	if h.Store == nil {
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		log.Printf("health: store ping failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		res["status"] = "degraded"
		res["store"] = "unavailable"
		writeJSON(w, r, http.StatusServiceUnavailable, res)
		return
	}

	res["store"] = "ok"
	writeJSON(w, r, http.StatusOK, res)
}
