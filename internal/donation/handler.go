package donation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"foodbridge/internal/inventory"
	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/httputil"
	mwauth "foodbridge/pkg/platform/middleware/auth"
	"foodbridge/pkg/platform/middleware/request"
)

// Handler exposes the donation lifecycle over HTTP. Authentication happens
// in middleware; the handler reads the bound user ID from context.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the donation routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/claim", h.handleClaim)
		r.Post("/{id}/advance", h.handleAdvance)
		r.Post("/{id}/approve", h.handleApprove)
	})
}

type createRequest struct {
	Type     Type             `json:"type"`
	Lines    []inventory.Line `json:"lines,omitempty"`
	Amount   int64            `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
}

type donationResponse struct {
	ID                string            `json:"id"`
	DonorID           string            `json:"donor_id"`
	RecipientID       string            `json:"recipient_id,omitempty"`
	Type              Type              `json:"type"`
	FoodItems         *FoodItemsPayload `json:"food_items,omitempty"`
	Money             *MoneyPayload     `json:"money,omitempty"`
	Status            Status            `json:"status"`
	StatusDescription string            `json:"status_description"`
	Approved          bool              `json:"approved"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func toResponse(d Donation) donationResponse {
	return donationResponse{
		ID:                d.ID,
		DonorID:           d.DonorID,
		RecipientID:       d.RecipientID,
		Type:              d.Type,
		FoodItems:         d.FoodItems,
		Money:             d.Money,
		Status:            d.Status,
		StatusDescription: d.StatusDescription,
		Approved:          d.Approved,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create donation request",
			"request_id", request.GetRequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.svc.Create(ctx, mwauth.GetUserID(ctx), CreateInput{
		Type:     req.Type,
		Lines:    req.Lines,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(d))
}

type claimResponse struct {
	Donation donationResponse `json:"donation"`
	ChatID   string           `json:"chat_id,omitempty"`
	// Warning is set when the claim committed but the conversation could
	// not be opened or announced. The caller may retry via the chat API.
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.svc.Claim(ctx, chi.URLParam(r, "id"), mwauth.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := claimResponse{Donation: toResponse(result.Donation), ChatID: result.ChatID}
	if result.SideEffectErr != nil {
		resp.Warning = result.SideEffectErr.Error()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type advanceRequest struct {
	Status      Status `json:"status"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.svc.Advance(ctx, chi.URLParam(r, "id"), mwauth.GetUserID(ctx), req.Status, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), mwauth.GetUserID(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"), mwauth.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	donations, err := h.svc.ListVisible(r.Context(), mwauth.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]donationResponse, 0, len(donations))
	for _, d := range donations {
		out = append(out, toResponse(d))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), mwauth.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(d))
}
