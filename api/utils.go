package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

func sendClientError(res http.ResponseWriter, err error, message string) {
	message = errorMessage(err, message)
	log.Debug("rejected client request", slog.String("reason", message))
	http.Error(res, message, http.StatusBadRequest)
}

// Callers must pass a non-nil error.
func sendServerError(res http.ResponseWriter, err error, message string) {
	log.ErrorCause(err, message)
	http.Error(res, errorMessage(err, message), http.StatusInternalServerError)
}

func errorMessage(err error, message string) string {
	if err == nil {
		return message
	}
	if message == "" {
		return err.Error()
	}
	return wrap.Error(err, message).Error()
}

func sendJSON(res http.ResponseWriter, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		sendServerError(res, err, "failed to serialize response")
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(body); err != nil {
		log.ErrorCause(err, "failed to write response")
	}
}
