package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"foodbridge/internal/chat"
	"foodbridge/internal/ratelimit"
	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/httputil"
	mwauth "foodbridge/pkg/platform/middleware/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization headers on websocket requests, so
	// origin checks are left to the reverse proxy in front of this service.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clientFrame is what a connected session may send upward.
type clientFrame struct {
	Type    string `json:"type"` // join, leave, typing, stop_typing, message
	ChatID  string `json:"chat_id"`
	Content string `json:"content,omitempty"`
}

// Handler upgrades websocket sessions, drives their read loops, and turns
// inbound frames into chat appends and fan-out pushes.
type Handler struct {
	validator mwauth.TokenValidator
	router    *Router
	fanout    *Fanout
	chats     *chat.Service
	// limiter bounds message frames per user; typing frames are uncounted.
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func NewHandler(validator mwauth.TokenValidator, router *Router, fanout *Fanout, chats *chat.Service, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		router:    router,
		fanout:    fanout,
		chats:     chats,
		limiter:   limiter,
		logger:    logger,
	}
}

// Register mounts the websocket endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ws", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	claims, err := h.validator.ValidateToken(bearerToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	conn := NewConnection(claims.UserID, ws)
	conn.Start()
	h.router.Register(conn)
	h.logger.InfoContext(r.Context(), "session connected", "user_id", conn.UserID, "session_id", conn.ID)

	defer func() {
		h.router.Unregister(conn.ID)
		conn.Close(websocket.CloseNormalClosure, "")
		h.logger.InfoContext(r.Context(), "session disconnected", "user_id", conn.UserID, "session_id", conn.ID)
	}()

	h.readLoop(r.Context(), conn, ws)
}

func (h *Handler) readLoop(ctx context.Context, conn *Connection, ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var f clientFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			h.sendError(conn, dErrors.New(dErrors.CodeBadRequest, "malformed frame"))
			continue
		}
		h.handleFrame(ctx, conn, f)
	}
}

func (h *Handler) handleFrame(ctx context.Context, conn *Connection, f clientFrame) {
	switch f.Type {
	case "join":
		if err := h.authorizeRoom(ctx, f.ChatID, conn.UserID); err != nil {
			h.sendError(conn, err)
			return
		}
		h.router.Join(f.ChatID, conn.ID)
	case "leave":
		h.router.Leave(f.ChatID, conn.ID)
	case "typing":
		h.fanout.BroadcastTyping(ctx, f.ChatID, conn.UserID, conn.ID, false)
	case "stop_typing":
		h.fanout.BroadcastTyping(ctx, f.ChatID, conn.UserID, conn.ID, true)
	case "message":
		h.handleMessage(ctx, conn, f)
	default:
		h.sendError(conn, dErrors.New(dErrors.CodeBadRequest, "unknown frame type"))
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *Connection, f clientFrame) {
	if h.limiter != nil && !h.limiter.Allow(conn.UserID).Allowed {
		h.sendError(conn, dErrors.New(dErrors.CodeBadRequest, "message rate limit exceeded"))
		return
	}

	msg, err := h.chats.Append(ctx, f.ChatID, conn.UserID, f.Content)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	stored, err := h.chats.Get(ctx, f.ChatID)
	if err != nil {
		h.logger.ErrorContext(ctx, "message stored but participants unavailable", "chat_id", f.ChatID, "error", err)
		return
	}

	payload := MessagePayload{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	// No exclusion: the sender's sessions, this one included, receive the
	// stored message too, which doubles as the delivery acknowledgement.
	h.fanout.DeliverMessage(ctx, payload, stored.ParticipantIDs[:], "")
}

func (h *Handler) authorizeRoom(ctx context.Context, chatID, userID string) error {
	stored, err := h.chats.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if !stored.HasParticipant(userID) {
		return dErrors.New(dErrors.CodeNotAuthorized, "not a participant in this chat")
	}
	return nil
}

func (h *Handler) sendError(conn *Connection, err error) {
	body, _ := json.Marshal(map[string]string{
		"type":  "error",
		"error": string(dErrors.CodeOf(err)),
	})
	_ = conn.Send(body)
}

// bearerToken pulls the access token from the Authorization header or,
// for browser clients, the token query parameter.
func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}
