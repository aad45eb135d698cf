package donation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"foodbridge/internal/chat"
	"foodbridge/internal/donation"
	"foodbridge/internal/donation/mocks"
	"foodbridge/internal/identity"
	"foodbridge/internal/inventory"
	"foodbridge/pkg/platform/audit"
	mwauth "foodbridge/pkg/platform/middleware/auth"
)

type HandlerSuite struct {
	suite.Suite

	donor     identity.User
	recipient identity.User

	items  *inventory.InMemoryStore
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.donor = identity.User{ID: uuid.NewString(), Name: "Dana", Role: identity.RoleDonor, Verified: true}
	s.recipient = identity.User{ID: uuid.NewString(), Name: "Ravi", Role: identity.RoleRecipient, Verified: true}
	directory := identity.NewInMemoryDirectory()
	directory.Put(s.donor)
	directory.Put(s.recipient)

	s.items = inventory.NewInMemoryStore()
	notifier := mocks.NewMockNotifier(gomock.NewController(s.T()))
	notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	svc := donation.NewService(donation.NewInMemoryStore(), inventory.NewLedger(s.items),
		chat.NewService(chat.NewInMemoryStore()), notifier, directory, nil,
		audit.NewPublisher(128, logger), logger)

	s.router = chi.NewRouter()
	donation.NewHandler(svc, logger).Register(s.router)
}

// do issues a request with the given user bound, the way the auth
// middleware would bind it.
func (s *HandlerSuite) do(userID, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(mwauth.WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) seedItem(name string, qty int) inventory.Item {
	item := inventory.Item{ID: uuid.NewString(), Name: name, Quantity: qty, DonorID: s.donor.ID, Approved: true}
	s.Require().NoError(s.items.Create(context.Background(), item))
	return item
}

func (s *HandlerSuite) TestCreateClaimAdvanceDelete() {
	item := s.seedItem("rice", 5)

	w := s.do(s.donor.ID, http.MethodPost, "/donations", map[string]any{
		"type":  "food_items",
		"lines": []map[string]any{{"item_id": item.ID, "quantity": 2}},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Equal("Pending", created.Status)

	w = s.do(s.recipient.ID, http.MethodPost, "/donations/"+created.ID+"/claim", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var claimed struct {
		Donation struct {
			Status      string `json:"status"`
			RecipientID string `json:"recipient_id"`
		} `json:"donation"`
		ChatID  string `json:"chat_id"`
		Warning string `json:"warning"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &claimed))
	s.Equal("Claimed", claimed.Donation.Status)
	s.Equal(s.recipient.ID, claimed.Donation.RecipientID)
	s.NotEmpty(claimed.ChatID)
	s.Empty(claimed.Warning)

	w = s.do(s.donor.ID, http.MethodPost, "/donations/"+created.ID+"/advance", map[string]any{
		"status": "ReadyForDelivery",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(s.donor.ID, http.MethodDelete, "/donations/"+created.ID, nil)
	s.Equal(http.StatusConflict, w.Code, "advanced donations cannot be deleted")
}

func (s *HandlerSuite) TestClaimConflictSurfacesAsAlreadyClaimed() {
	item := s.seedItem("rice", 5)

	w := s.do(s.donor.ID, http.MethodPost, "/donations", map[string]any{
		"type":  "food_items",
		"lines": []map[string]any{{"item_id": item.ID, "quantity": 1}},
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))

	s.Require().Equal(http.StatusOK, s.do(s.recipient.ID, http.MethodPost, "/donations/"+created.ID+"/claim", nil).Code)

	w = s.do(s.recipient.ID, http.MethodPost, "/donations/"+created.ID+"/claim", nil)
	s.Equal(http.StatusConflict, w.Code)

	var errResp struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &errResp))
	s.Equal("already_claimed", errResp.Error)
}

func (s *HandlerSuite) TestCreateRejectsGarbage() {
	w := s.do(s.donor.ID, http.MethodPost, "/donations", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestListIsRoleScoped() {
	item := s.seedItem("rice", 5)
	s.Require().Equal(http.StatusCreated, s.do(s.donor.ID, http.MethodPost, "/donations", map[string]any{
		"type":  "food_items",
		"lines": []map[string]any{{"item_id": item.ID, "quantity": 1}},
	}).Code)

	w := s.do(s.recipient.ID, http.MethodGet, "/donations", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var listed []struct {
		Status   string `json:"status"`
		Approved bool   `json:"approved"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listed))
	s.Require().Len(listed, 1)
	s.Equal("Pending", listed[0].Status)
	s.True(listed[0].Approved)
}
