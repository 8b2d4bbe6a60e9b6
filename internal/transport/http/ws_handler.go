package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"decodex/internal/app"
	"decodex/internal/domain"
)

// WSHandler streams hub events to every client. Clients that connect with a team token
// may also play over the socket.
type WSHandler struct {
	engine   *app.Engine
	hub      *app.Hub
	auth     *app.Authenticator
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, hub *app.Hub, auth *app.Authenticator, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		engine: engine,
		hub:    hub,
		auth:   auth,
		logger: logger,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type helloPayload struct {
	Team string `json:"team,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the hub and the engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var team string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.auth.Parse(token)
		if err != nil || claims.Role != app.RoleTeam {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		team = claims.Subject
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "err", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: ev.Type, Payload: ev.Payload}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-writerDone:
				return
			case <-closeSignals:
				return
			}
		}
	}()

	// emit reports false once the writer has stopped, so the reader never blocks on a full buffer.
	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	if emit(outboundMessage[any]{Type: "hello", Payload: helloPayload{Team: team}}) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			msg := errorMessage(domain.ErrUnauthorized)
			if team != "" {
				msg = h.dispatch(r, team, inbound)
			}
			if !emit(msg) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, team string, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	switch inbound.Type {
	case "next":
		progress, err := h.engine.NextQuestion(ctx, team)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "progress", Payload: progress}
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(domain.ErrValidation)
		}
		res, err := h.engine.SubmitAnswer(ctx, team, domain.AnswerSubmission{QuestionID: payload.QuestionID, Answer: payload.Answer})
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: res}
	case "choice":
		var payload choiceRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(domain.ErrValidation)
		}
		choice, err := h.engine.SelectChoice(ctx, team, payload.Difficulty)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "choiceSelected", Payload: choice}
	case "skip":
		res, err := h.engine.Skip(ctx, team)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: res}
	case "powerup":
		var payload struct {
			Kind domain.PowerUpKind `json:"kind"`
		}
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(domain.ErrValidation)
		}
		res, err := h.engine.Consume(ctx, team, payload.Kind)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "powerUp", Payload: res}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Retryable: domain.Retryable(err)}}
}
