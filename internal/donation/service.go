package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"foodbridge/internal/chat"
	"foodbridge/internal/identity"
	"foodbridge/internal/inventory"
	"foodbridge/internal/payment"
	"foodbridge/internal/realtime"
	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/audit"
	"foodbridge/pkg/platform/middleware/request"
	"foodbridge/pkg/platform/sentinel"
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodbridge_donation_transitions_total",
	Help: "Donation lifecycle transitions by target status and outcome.",
}, []string{"to", "outcome"})

// Ledger is the slice of the inventory ledger the state machine needs.
type Ledger interface {
	Get(ctx context.Context, itemID string) (inventory.Item, error)
	ReserveAll(ctx context.Context, lines []inventory.Line) error
	ReleaseAll(ctx context.Context, lines []inventory.Line) error
}

// Conversations is the slice of the chat service the claim flow needs.
type Conversations interface {
	GetOrCreate(ctx context.Context, userA, userB string) (chat.Chat, error)
	Append(ctx context.Context, chatID, senderID, content string) (chat.Message, error)
}

// Notifier pushes a stored message to the participants' live sessions.
type Notifier interface {
	DeliverMessage(ctx context.Context, msg realtime.MessagePayload, participantIDs []string, excludeUserID string)
}

// Service is the donation state machine. All writes funnel through here so
// every transition is guarded, audited and measured in one place.
type Service struct {
	store     Store
	ledger    Ledger
	chats     Conversations
	notifier  Notifier
	directory identity.Directory
	payments  payment.Authorizer // nil when money donations are disabled
	auditor   *audit.Publisher
	logger    *slog.Logger
}

func NewService(store Store, ledger Ledger, chats Conversations, notifier Notifier,
	directory identity.Directory, payments payment.Authorizer,
	auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		ledger:    ledger,
		chats:     chats,
		notifier:  notifier,
		directory: directory,
		payments:  payments,
		auditor:   auditor,
		logger:    logger,
	}
}

// CreateInput carries a create request. Exactly one payload group is used,
// selected by Type.
type CreateInput struct {
	Type     Type
	Lines    []inventory.Line
	Amount   int64
	Currency string
}

// Create validates the payload, reserves inventory (food) or authorizes the
// payment (money), and stores the donation in Pending. Donations by
// verified donors are approved immediately; others wait for an admin.
func (s *Service) Create(ctx context.Context, donorID string, in CreateInput) (Donation, error) {
	donor, err := s.lookupUser(ctx, donorID)
	if err != nil {
		return Donation{}, err
	}
	if donor.Role == identity.RoleRecipient {
		return Donation{}, dErrors.New(dErrors.CodeNotAuthorized, "recipients cannot create donations")
	}

	now := time.Now()
	d := Donation{
		ID:        uuid.NewString(),
		DonorID:   donorID,
		Type:      in.Type,
		Status:    StatusPending,
		Approved:  donor.Verified || donor.Role == identity.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch in.Type {
	case TypeFoodItems:
		if err := s.ledger.ReserveAll(ctx, in.Lines); err != nil {
			transitionsTotal.WithLabelValues(string(StatusPending), "rejected").Inc()
			return Donation{}, err
		}
		d.FoodItems = &FoodItemsPayload{Lines: in.Lines}
		d.StatusDescription = "Awaiting a recipient"
	case TypeMoney:
		money, err := s.authorizeMoney(ctx, in)
		if err != nil {
			transitionsTotal.WithLabelValues(string(StatusPending), "rejected").Inc()
			return Donation{}, err
		}
		d.Money = money
		d.StatusDescription = fmt.Sprintf("Monetary donation of %d %s", in.Amount, in.Currency)
	default:
		return Donation{}, dErrors.New(dErrors.CodeValidation, "donation type must be food_items or money")
	}

	if err := s.store.Create(ctx, d); err != nil {
		// The reservation must not leak if the write fails.
		if d.Type == TypeFoodItems {
			if relErr := s.ledger.ReleaseAll(ctx, in.Lines); relErr != nil {
				s.logger.ErrorContext(ctx, "compensating release failed", "donation_id", d.ID, "error", relErr)
			}
		}
		transitionsTotal.WithLabelValues(string(StatusPending), "error").Inc()
		return Donation{}, err
	}

	transitionsTotal.WithLabelValues(string(StatusPending), "ok").Inc()
	s.emit(ctx, audit.ActionDonationCreated, donorID, d.ID, "", string(StatusPending), string(d.Type))
	return d, nil
}

func (s *Service) authorizeMoney(ctx context.Context, in CreateInput) (*MoneyPayload, error) {
	if in.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "donation amount must be positive")
	}
	if in.Currency == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "donation currency is required")
	}
	if s.payments == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "money donations are not enabled")
	}
	auth, err := s.payments.Authorize(ctx, in.Amount, in.Currency)
	if err != nil {
		return nil, err
	}
	return &MoneyPayload{Amount: in.Amount, Currency: in.Currency, Authorization: auth}, nil
}

// ClaimResult reports a committed claim. SideEffectErr is non-nil when the
// follow-up chat notification could not be completed; the claim itself
// stands and the conversation can be started through the chat endpoints.
type ClaimResult struct {
	Donation      Donation
	ChatID        string
	SideEffectErr error
}

// Claim assigns the donation to the recipient. The status write is a
// conditional update on status=Pending, so of N concurrent claims exactly
// one succeeds and the rest see already_claimed.
func (s *Service) Claim(ctx context.Context, donationID, recipientID string) (ClaimResult, error) {
	if _, err := s.lookupUser(ctx, recipientID); err != nil {
		return ClaimResult{}, err
	}

	current, err := s.get(ctx, donationID)
	if err != nil {
		return ClaimResult{}, err
	}
	if !current.Approved {
		return ClaimResult{}, dErrors.New(dErrors.CodeNotAuthorized, "donation has not been approved")
	}
	if current.DonorID == recipientID {
		return ClaimResult{}, dErrors.New(dErrors.CodeValidation, "donors cannot claim their own donation")
	}

	description := s.describe(ctx, current)
	claimed, err := s.store.Claim(ctx, donationID, recipientID, description)
	if errors.Is(err, sentinel.ErrConflict) {
		transitionsTotal.WithLabelValues(string(StatusClaimed), "rejected").Inc()
		return ClaimResult{}, dErrors.Wrap(dErrors.CodeAlreadyClaimed, "donation has already been claimed", err)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return ClaimResult{}, dErrors.Wrap(dErrors.CodeNotFound, "donation not found", err)
	}
	if err != nil {
		transitionsTotal.WithLabelValues(string(StatusClaimed), "error").Inc()
		return ClaimResult{}, err
	}

	transitionsTotal.WithLabelValues(string(StatusClaimed), "ok").Inc()
	s.emit(ctx, audit.ActionDonationClaimed, recipientID, donationID, string(StatusPending), string(StatusClaimed), description)

	result := ClaimResult{Donation: claimed}
	result.ChatID, result.SideEffectErr = s.notifyClaim(ctx, claimed, description)
	return result, nil
}

// notifyClaim opens the donor/recipient conversation and announces the
// claim. Failures never unwind the committed claim.
func (s *Service) notifyClaim(ctx context.Context, d Donation, description string) (string, error) {
	conversation, err := s.chats.GetOrCreate(ctx, d.RecipientID, d.DonorID)
	if err != nil {
		s.logger.WarnContext(ctx, "claim committed but chat creation failed",
			"donation_id", d.ID, "error", err)
		return "", dErrors.Wrap(dErrors.CodeExternalService, "claim succeeded but the conversation could not be opened", err)
	}
	s.emit(ctx, audit.ActionChatCreated, d.RecipientID, conversation.ID, "", "", d.ID)

	msg, err := s.chats.Append(ctx, conversation.ID, d.RecipientID, "Donation claimed. "+description)
	if err != nil {
		s.logger.WarnContext(ctx, "claim committed but announcement failed",
			"donation_id", d.ID, "chat_id", conversation.ID, "error", err)
		return conversation.ID, dErrors.Wrap(dErrors.CodeExternalService, "claim succeeded but the announcement could not be sent", err)
	}
	s.emit(ctx, audit.ActionMessageSent, d.RecipientID, conversation.ID, "", "", msg.ID)

	s.notifier.DeliverMessage(ctx, realtime.MessagePayload{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}, conversation.ParticipantIDs[:], d.RecipientID)
	return conversation.ID, nil
}

// describe renders the human-readable status line shown to both parties.
func (s *Service) describe(ctx context.Context, d Donation) string {
	switch d.Type {
	case TypeMoney:
		return fmt.Sprintf("Monetary donation of %d %s", d.Money.Amount, d.Money.Currency)
	case TypeFoodItems:
		names := make([]string, 0, len(d.FoodItems.Lines))
		for _, line := range d.FoodItems.Lines {
			item, err := s.ledger.Get(ctx, line.ItemID)
			if err != nil {
				// The name is cosmetic; fall back to the ID.
				names = append(names, line.ItemID)
				continue
			}
			names = append(names, fmt.Sprintf("%s x%d", item.Name, line.Quantity))
		}
		return "Items: " + strings.Join(names, ", ")
	default:
		return ""
	}
}

// Advance moves the donation strictly forward. Only the donor, the assigned
// recipient or an admin may advance.
func (s *Service) Advance(ctx context.Context, donationID, actorID string, next Status, description string) (Donation, error) {
	actor, err := s.lookupUser(ctx, actorID)
	if err != nil {
		return Donation{}, err
	}

	current, err := s.get(ctx, donationID)
	if err != nil {
		return Donation{}, err
	}
	if actor.Role != identity.RoleAdmin && actorID != current.DonorID && actorID != current.RecipientID {
		return Donation{}, dErrors.New(dErrors.CodeNotAuthorized, "only the donor, recipient or an admin may advance a donation")
	}
	if !AdvanceAllowed(current.Type, current.Status, next) {
		return Donation{}, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot advance from %s to %s", current.Status, next))
	}

	advanced, err := s.store.Advance(ctx, donationID, current.Status, next, description)
	if errors.Is(err, sentinel.ErrConflict) {
		// Someone moved it between our read and write.
		transitionsTotal.WithLabelValues(string(next), "rejected").Inc()
		return Donation{}, dErrors.Wrap(dErrors.CodeInvalidTransition, "donation status changed concurrently", err)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, dErrors.Wrap(dErrors.CodeNotFound, "donation not found", err)
	}
	if err != nil {
		transitionsTotal.WithLabelValues(string(next), "error").Inc()
		return Donation{}, err
	}

	transitionsTotal.WithLabelValues(string(next), "ok").Inc()
	s.emit(ctx, audit.ActionDonationAdvanced, actorID, donationID, string(current.Status), string(next), description)
	return advanced, nil
}

// Delete removes a Pending donation and returns its reserved stock to the
// ledger. Only the owning donor or an admin may delete.
func (s *Service) Delete(ctx context.Context, donationID, actorID string) error {
	actor, err := s.lookupUser(ctx, actorID)
	if err != nil {
		return err
	}

	current, err := s.get(ctx, donationID)
	if err != nil {
		return err
	}
	if actor.Role != identity.RoleAdmin && actorID != current.DonorID {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the donor or an admin may delete a donation")
	}

	err = s.store.Delete(ctx, donationID)
	if errors.Is(err, sentinel.ErrConflict) {
		transitionsTotal.WithLabelValues(string(StatusDeleted), "rejected").Inc()
		return dErrors.Wrap(dErrors.CodeInvalidTransition, "only pending donations can be deleted", err)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeNotFound, "donation not found", err)
	}
	if err != nil {
		transitionsTotal.WithLabelValues(string(StatusDeleted), "error").Inc()
		return err
	}

	if current.Type == TypeFoodItems {
		if err := s.ledger.ReleaseAll(ctx, current.FoodItems.Lines); err != nil {
			// The donation is gone either way; the ledger discrepancy needs
			// an operator.
			s.logger.ErrorContext(ctx, "stock release after delete failed", "donation_id", donationID, "error", err)
		}
	}

	transitionsTotal.WithLabelValues(string(StatusDeleted), "ok").Inc()
	s.emit(ctx, audit.ActionDonationDeleted, actorID, donationID, string(StatusPending), string(StatusDeleted), "")
	return nil
}

// Approve marks the donation claimable. Admin only.
func (s *Service) Approve(ctx context.Context, donationID, actorID string) (Donation, error) {
	actor, err := s.lookupUser(ctx, actorID)
	if err != nil {
		return Donation{}, err
	}
	if actor.Role != identity.RoleAdmin {
		return Donation{}, dErrors.New(dErrors.CodeNotAuthorized, "only admins may approve donations")
	}

	d, err := s.store.SetApproval(ctx, donationID, true)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, dErrors.Wrap(dErrors.CodeNotFound, "donation not found", err)
	}
	return d, err
}

// ListVisible applies role-based visibility: admins see everything, donors
// their own donations, recipients only approved donations still open.
func (s *Service) ListVisible(ctx context.Context, actorID string) ([]Donation, error) {
	actor, err := s.lookupUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return s.store.List(ctx, Filter{})
	case identity.RoleDonor:
		return s.store.List(ctx, Filter{DonorID: actorID})
	default:
		return s.store.List(ctx, Filter{OpenOnly: true})
	}
}

// Get returns the donation if the actor is allowed to see it.
func (s *Service) Get(ctx context.Context, donationID, actorID string) (Donation, error) {
	actor, err := s.lookupUser(ctx, actorID)
	if err != nil {
		return Donation{}, err
	}
	d, err := s.get(ctx, donationID)
	if err != nil {
		return Donation{}, err
	}
	if actor.Role == identity.RoleAdmin || actorID == d.DonorID || actorID == d.RecipientID {
		return d, nil
	}
	if actor.Role == identity.RoleRecipient && d.Approved && d.Status == StatusPending {
		return d, nil
	}
	return Donation{}, dErrors.New(dErrors.CodeNotFound, "donation not found")
}

func (s *Service) get(ctx context.Context, donationID string) (Donation, error) {
	d, err := s.store.Get(ctx, donationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, dErrors.Wrap(dErrors.CodeNotFound, "donation not found", err)
	}
	return d, err
}

func (s *Service) lookupUser(ctx context.Context, userID string) (identity.User, error) {
	user, err := s.directory.Lookup(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return identity.User{}, dErrors.Wrap(dErrors.CodeNotAuthorized, "unknown user", err)
	}
	return user, err
}

func (s *Service) emit(ctx context.Context, action audit.Action, actorID, subjectID, from, to, detail string) {
	s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		ActorID:    actorID,
		SubjectID:  subjectID,
		FromStatus: from,
		ToStatus:   to,
		RequestID:  request.GetRequestID(ctx),
		Detail:     detail,
	})
}
