package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yuyuyu0706/quiz-practice/internal/app"
	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

// WSHandler exposes the session engine to the presentation layer over a
// websocket. The client owns rendering only; every state transition happens
// here. Messages are handled one at a time from the read loop, so all writes
// come from a single goroutine.
type WSHandler struct {
	engine   *app.Engine
	settings *app.SettingsService
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, settings *app.SettingsService) *WSHandler {
	return &WSHandler{
		engine:   engine,
		settings: settings,
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

type homePayload struct {
	Settings  domain.Settings `json:"settings"`
	Sections  []string        `json:"sections"`
	Resumable bool            `json:"resumable"`
	Message   string          `json:"message,omitempty"`
}

type startPayload struct {
	Mode string `json:"mode,omitempty"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Label      string `json:"label"`
}

type movePayload struct {
	Delta int `json:"delta"`
}

type noticePayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives the engine from the read loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	h.sendHome(ctx, conn, "")

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "saveSettings":
			var candidate domain.Settings
			if err := json.Unmarshal(inbound.Payload, &candidate); err != nil {
				h.sendError(conn, "invalid settings payload")
				continue
			}
			if err := h.settings.Save(ctx, candidate); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendHome(ctx, conn, "")

		case "start":
			var payload startPayload
			_ = json.Unmarshal(inbound.Payload, &payload)
			settings := h.settings.Load(ctx)
			mode := settings.Mode
			if payload.Mode != "" {
				mode = domain.ParseMode(payload.Mode)
			}
			if _, err := h.engine.Start(ctx, mode, settings); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendQuestion(ctx, conn)

		case "resume":
			session, err := h.engine.Resume(ctx)
			if err != nil {
				h.reportErr(conn, err)
				continue
			}
			if session == nil {
				h.sendHome(ctx, conn, "no saved session to resume")
				continue
			}
			h.sendQuestion(ctx, conn)

		case "discard":
			if err := h.engine.Discard(ctx); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendHome(ctx, conn, "saved session discarded")

		case "suspend":
			if err := h.engine.Suspend(ctx); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendHome(ctx, conn, "session suspended")

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			result, err := h.engine.Submit(ctx, payload.QuestionID, payload.Label)
			if err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.send(conn, "answerResult", result)
			h.sendQuestion(ctx, conn)

		case "move":
			var payload movePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid move payload")
				continue
			}
			result, err := h.engine.Move(ctx, payload.Delta)
			if err != nil {
				h.reportErr(conn, err)
				continue
			}
			switch result.Status {
			case app.MoveFinished:
				h.send(conn, "summary", result.Summary)
			case app.MoveBlocked:
				if result.Reason != "" {
					h.send(conn, "notice", noticePayload{Message: result.Reason})
				}
			default:
				h.sendQuestion(ctx, conn)
			}

		case "toggleExplanation":
			if _, err := h.engine.ToggleExplanation(ctx); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendQuestion(ctx, conn)

		case "bookmark":
			if _, err := h.engine.ToggleBookmark(ctx); err != nil {
				h.reportErr(conn, err)
				continue
			}
			h.sendQuestion(ctx, conn)

		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) sendHome(ctx context.Context, conn *websocket.Conn, message string) {
	h.send(conn, "home", homePayload{
		Settings:  h.settings.Load(ctx),
		Sections:  h.engine.Sections(),
		Resumable: h.engine.HasSaved(ctx),
		Message:   message,
	})
}

func (h *WSHandler) sendQuestion(ctx context.Context, conn *websocket.Conn) {
	view, err := h.engine.View(ctx)
	if err != nil {
		h.reportErr(conn, err)
		return
	}
	h.send(conn, "question", view)
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", noticePayload{Message: message})
}

// reportErr routes user-actionable failures to "notice" and everything else
// to "error".
func (h *WSHandler) reportErr(conn *websocket.Conn, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyPool),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrNoSections),
		errors.Is(err, domain.ErrAnswerRequired):
		h.send(conn, "notice", noticePayload{Message: err.Error()})
	default:
		h.sendError(conn, err.Error())
	}
}
