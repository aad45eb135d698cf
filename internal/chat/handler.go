package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/httputil"
	mwauth "foodbridge/pkg/platform/middleware/auth"
	"foodbridge/pkg/platform/middleware/request"
)

// Notifier pushes a freshly appended message to the other participant's
// live sessions. Implemented by the realtime fan-out.
type Notifier interface {
	DeliverMessage(ctx context.Context, msg Message, participantIDs []string, excludeUserID string)
}

// Handler exposes conversations over HTTP for clients that are not holding
// a websocket. Messages sent here still fan out to live sessions.
type Handler struct {
	svc      *Service
	notifier Notifier
	logger   *slog.Logger
}

func NewHandler(svc *Service, notifier Notifier, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, notifier: notifier, logger: logger}
}

// Register mounts the chat routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/chats", func(r chi.Router) {
		r.Post("/", h.handleGetOrCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}/messages", h.handleListMessages)
		r.Post("/{id}/messages", h.handleSendMessage)
	})
}

type getOrCreateRequest struct {
	UserID string `json:"user_id"`
}

type chatResponse struct {
	ID              string    `json:"id"`
	ParticipantIDs  []string  `json:"participant_ids"`
	LatestMessageID string    `json:"latest_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toChatResponse(c Chat) chatResponse {
	return chatResponse{
		ID:              c.ID,
		ParticipantIDs:  c.ParticipantIDs[:],
		LatestMessageID: c.LatestMessageID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

type messageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageResponse(m Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (h *Handler) handleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req getOrCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid chat request",
			"request_id", request.GetRequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	conversation, err := h.svc.GetOrCreate(ctx, mwauth.GetUserID(ctx), req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toChatResponse(conversation))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.ListForUser(r.Context(), mwauth.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]chatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListByChat(r.Context(), chi.URLParam(r, "id"), mwauth.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	senderID := mwauth.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	msg, err := h.svc.Append(ctx, chatID, senderID, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if conversation, err := h.svc.Get(ctx, chatID); err == nil {
		h.notifier.DeliverMessage(ctx, msg, conversation.ParticipantIDs[:], senderID)
	}
	httputil.WriteJSON(w, http.StatusCreated, toMessageResponse(msg))
}
