package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tissuetrace/donor-audit/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain errors into a consistent JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	code := "INTERNAL"
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	writeJSON(w, common.HTTPStatus(err), map[string]string{
		"error":   code,
		"message": err.Error(),
	})
}
