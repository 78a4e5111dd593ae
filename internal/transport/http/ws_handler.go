package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/engine"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type optionPayload struct {
	OptionID string `json:"optionId"`
}

type startedPayload struct {
	AttemptID string          `json:"attemptId"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and plays one attempt over the connection.
// Session events are pushed as they happen; client input that the session
// rejects as stray (unknown option, double submit, nothing selected) is
// dropped without a reply.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if quizID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing quizId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	attempt, err := h.service.StartAttempt(ctx, quizID, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(ctx, attempt.ID)

	updates, cancel, err := h.service.Subscribe(ctx, attempt.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	logger := h.logger.With("attempt_id", attempt.ID)
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", "error", err)
				// Unblocks the read loop.
				_ = conn.Close()
				return
			}
		}
	}()

	snapshot, _ := h.service.Snapshot(ctx, attempt.ID)
	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{AttemptID: attempt.ID, Snapshot: snapshot}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.service.KeepAlive(ctx, attempt.ID); err != nil {
			logger.Debug("keep alive failed", "error", err)
		}
		if err := h.dispatch(r, attempt.ID, inbound); err != nil {
			if domain.IsInputError(err) {
				logger.Debug("ignored client input", "type", inbound.Type, "error", err)
				continue
			}
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-writerDone:
				break readLoop
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

var errBadPayload = errors.New("invalid payload")

func (h *WSHandler) dispatch(r *http.Request, attemptID string, inbound inboundMessage) error {
	ctx := r.Context()
	switch inbound.Type {
	case "select", "answer":
		var payload optionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errBadPayload
		}
		if inbound.Type == "select" {
			return h.service.Select(ctx, attemptID, payload.OptionID)
		}
		_, err := h.service.Answer(ctx, attemptID, payload.OptionID)
		return err
	case "submit":
		_, err := h.service.Submit(ctx, attemptID)
		return err
	case "next":
		return h.service.Advance(ctx, attemptID)
	case "restart":
		return h.service.Restart(ctx, attemptID)
	default:
		return errors.New("unsupported message type")
	}
}
