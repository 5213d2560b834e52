package controllers

import (
	"context"
	"net/http"
	"time"

	"go-ecommerce-carts/store"
)

// HealthController reports whether the backing stores answer
type HealthController struct {
	Checks []store.Pinger
}

func NewHealthController(checks ...store.Pinger) *HealthController {
	return &HealthController{Checks: checks}
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range hc.Checks {
		if err := check.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
