package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// errorBody is the error shape clients of the upload API already parse.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any, log logrus.FieldLogger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string, log logrus.FieldLogger) {
	writeJSON(w, status, errorBody{Detail: detail}, log)
}
