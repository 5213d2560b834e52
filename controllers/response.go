package controllers

import (
	"encoding/json"
	"net/http"

	"go-ecommerce-carts/middleware"
	"go-ecommerce-carts/services"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service errors onto HTTP statuses. Anything unrecognised is logged and becomes a 500.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrProductNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).Error("request error")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
