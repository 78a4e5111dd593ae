package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler serves read-only views of attempts and leaderboards.
type APIHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewAPIHandler(service *app.QuizService, logger *slog.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// Register mounts the handler's routes, the websocket endpoint and /healthz.
func Register(mux *http.ServeMux, api *APIHandler, ws *WSHandler) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ws", ws.ServeWS)
	mux.HandleFunc("GET /attempts/{id}", api.Snapshot)
	mux.HandleFunc("GET /attempts/{id}/export", api.Export)
	mux.HandleFunc("GET /quizzes/{id}/leaderboard", api.Leaderboard)
}

func (h *APIHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) Export(w http.ResponseWriter, r *http.Request) {
	attempt, exp, err := h.service.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") != "xlsx" {
		writeJSON(w, http.StatusOK, exp)
		return
	}

	data, err := export.XLSX(export.Meta{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		DisplayName: attempt.DisplayName,
	}, exp)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="attempt-`+attempt.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid limit"})
			return
		}
		limit = n
	}
	lb, err := h.service.Leaderboard(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAttemptNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
