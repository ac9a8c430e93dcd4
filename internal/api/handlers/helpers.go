package handlers

import (
	"courier-dispatch-service/internal/platform/obs"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: req_id=%s method=%s path=%s err=%v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeCodedError adds the dispatcher's numeric error code to the body.
func writeCodedError(w http.ResponseWriter, r *http.Request, status int, msg string, code int) {
	writeJSON(w, r, status, map[string]any{"error": msg, "code": code})
}

func pathShopID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("shopID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
