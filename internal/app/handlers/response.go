package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Response — единый конверт ответа API: success-флаг, сообщение и данные
// при успехе, либо текст ошибки. Трассировки стека наружу не выходят.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeSuccess(w http.ResponseWriter, log *slog.Logger, status int, message string, data interface{}) {
	writeJSON(w, log, status, Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	writeJSON(w, log, status, Response{Success: false, Error: message})
}
