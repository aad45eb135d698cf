package donation_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"foodbridge/internal/chat"
	"foodbridge/internal/donation"
	"foodbridge/internal/donation/mocks"
	"foodbridge/internal/identity"
	"foodbridge/internal/inventory"
	"foodbridge/internal/realtime"
	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/audit"
)

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	logger *slog.Logger

	donor     identity.User
	recipient identity.User
	admin     identity.User
	directory *identity.InMemoryDirectory

	store    *donation.InMemoryStore
	items    *inventory.InMemoryStore
	ledger   *inventory.Ledger
	chats    *chat.Service
	notifier *mocks.MockNotifier
	svc      *donation.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	s.donor = identity.User{ID: uuid.NewString(), Name: "Dana", Role: identity.RoleDonor, Verified: true}
	s.recipient = identity.User{ID: uuid.NewString(), Name: "Ravi", Role: identity.RoleRecipient, Verified: true}
	s.admin = identity.User{ID: uuid.NewString(), Name: "Ada", Role: identity.RoleAdmin, Verified: true}
	s.directory = identity.NewInMemoryDirectory()
	for _, u := range []identity.User{s.donor, s.recipient, s.admin} {
		s.directory.Put(u)
	}

	s.store = donation.NewInMemoryStore()
	s.items = inventory.NewInMemoryStore()
	s.ledger = inventory.NewLedger(s.items)
	s.chats = chat.NewService(chat.NewInMemoryStore())
	s.notifier = mocks.NewMockNotifier(gomock.NewController(s.T()))

	s.svc = donation.NewService(s.store, s.ledger, s.chats, s.notifier,
		s.directory, nil, audit.NewPublisher(128, s.logger), s.logger)
}

func (s *ServiceSuite) seedItem(name string, qty int) inventory.Item {
	item := inventory.Item{
		ID:       uuid.NewString(),
		Name:     name,
		Category: "produce",
		Quantity: qty,
		DonorID:  s.donor.ID,
		Approved: true,
	}
	s.Require().NoError(s.items.Create(s.ctx, item))
	return item
}

func (s *ServiceSuite) createFood(lines ...inventory.Line) donation.Donation {
	d, err := s.svc.Create(s.ctx, s.donor.ID, donation.CreateInput{
		Type:  donation.TypeFoodItems,
		Lines: lines,
	})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) TestCreateReservesStock() {
	item := s.seedItem("rice", 5)

	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 2})

	s.Equal(donation.StatusPending, d.Status)
	s.True(d.Approved, "verified donors are approved immediately")
	s.Empty(d.RecipientID)

	remaining, err := s.ledger.Get(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(3, remaining.Quantity)
}

func (s *ServiceSuite) TestCreateInsufficientStockLeavesBatchUntouched() {
	rice := s.seedItem("rice", 5)
	beans := s.seedItem("beans", 1)

	_, err := s.svc.Create(s.ctx, s.donor.ID, donation.CreateInput{
		Type: donation.TypeFoodItems,
		Lines: []inventory.Line{
			{ItemID: rice.ID, Quantity: 2},
			{ItemID: beans.ID, Quantity: 3},
		},
	})
	s.True(dErrors.Is(err, dErrors.CodeInsufficientStock))

	for id, want := range map[string]int{rice.ID: 5, beans.ID: 1} {
		item, err := s.ledger.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(want, item.Quantity, "failed batch must not touch any line")
	}
}

func (s *ServiceSuite) TestCreateValidation() {
	s.Run("empty food lines", func() {
		_, err := s.svc.Create(s.ctx, s.donor.ID, donation.CreateInput{Type: donation.TypeFoodItems})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
	s.Run("money without provider", func() {
		_, err := s.svc.Create(s.ctx, s.donor.ID, donation.CreateInput{
			Type: donation.TypeMoney, Amount: 100, Currency: "USD",
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
	s.Run("recipients cannot donate", func() {
		_, err := s.svc.Create(s.ctx, s.recipient.ID, donation.CreateInput{Type: donation.TypeFoodItems})
		s.True(dErrors.Is(err, dErrors.CodeNotAuthorized))
	})
	s.Run("unknown donor", func() {
		_, err := s.svc.Create(s.ctx, uuid.NewString(), donation.CreateInput{Type: donation.TypeFoodItems})
		s.True(dErrors.Is(err, dErrors.CodeNotAuthorized))
	})
}

// TestClaimScenario walks the full happy path: claim commits, the donor and
// recipient get a chat, the announcement names the item, and the donor's
// sessions get a fan-out delivery.
func (s *ServiceSuite) TestClaimScenario() {
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 2})

	var delivered realtime.MessagePayload
	s.notifier.EXPECT().
		DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), s.recipient.ID).
		Do(func(_ context.Context, msg realtime.MessagePayload, participants []string, _ string) {
			delivered = msg
			s.Contains(participants, s.donor.ID)
		})

	result, err := s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
	s.Require().NoError(err)
	s.Require().NoError(result.SideEffectErr)

	s.Equal(donation.StatusClaimed, result.Donation.Status)
	s.Equal(s.recipient.ID, result.Donation.RecipientID)
	s.Contains(result.Donation.StatusDescription, "rice")

	conversation, err := s.chats.Get(s.ctx, result.ChatID)
	s.Require().NoError(err)
	s.True(conversation.HasParticipant(s.donor.ID))
	s.True(conversation.HasParticipant(s.recipient.ID))

	s.Contains(delivered.Content, "rice")
	s.Equal(result.ChatID, delivered.ChatID)
}

func (s *ServiceSuite) TestClaimGuards() {
	item := s.seedItem("rice", 5)

	s.Run("unknown donation", func() {
		_, err := s.svc.Claim(s.ctx, uuid.NewString(), s.recipient.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("own donation", func() {
		d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})
		_, err := s.svc.Claim(s.ctx, d.ID, s.donor.ID)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("unapproved donation", func() {
		unverified := identity.User{ID: uuid.NewString(), Role: identity.RoleDonor}
		s.directory.Put(unverified)
		d, err := s.svc.Create(s.ctx, unverified.ID, donation.CreateInput{
			Type:  donation.TypeFoodItems,
			Lines: []inventory.Line{{ItemID: item.ID, Quantity: 1}},
		})
		s.Require().NoError(err)
		s.False(d.Approved)

		_, err = s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotAuthorized))
	})

	s.Run("second claim fails closed", func() {
		d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})
		s.notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

		_, err := s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
		s.Require().NoError(err)

		_, err = s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyClaimed))
	})
}

// TestClaimConcurrent races N claims on one donation; exactly one wins.
func (s *ServiceSuite) TestClaimConcurrent() {
	const racers = 20
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})

	s.notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(1)

	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	losses := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.svc.Claim(s.ctx, d.ID, s.recipient.ID); err != nil {
				losses <- err
				return
			}
			wins <- struct{}{}
		}()
	}
	wg.Wait()
	close(wins)
	close(losses)

	s.Len(wins, 1, "exactly one claim must win")
	s.Len(losses, racers-1)
	for err := range losses {
		s.True(dErrors.Is(err, dErrors.CodeAlreadyClaimed))
	}
}

// TestClaimSideEffectFailure proves the claim stands when the conversation
// cannot be opened, and that the failure is reported to the caller.
func (s *ServiceSuite) TestClaimSideEffectFailure() {
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})

	conversations := mocks.NewMockConversations(gomock.NewController(s.T()))
	conversations.EXPECT().
		GetOrCreate(gomock.Any(), s.recipient.ID, s.donor.ID).
		Return(chat.Chat{}, dErrors.New(dErrors.CodeInternal, "chat backend down"))

	svc := donation.NewService(s.store, s.ledger, conversations, s.notifier,
		s.directory, nil, audit.NewPublisher(16, s.logger), s.logger)

	result, err := svc.Claim(s.ctx, d.ID, s.recipient.ID)
	s.Require().NoError(err, "the claim itself must commit")
	s.Equal(donation.StatusClaimed, result.Donation.Status)
	s.True(dErrors.Is(result.SideEffectErr, dErrors.CodeExternalService))
	s.Empty(result.ChatID)

	stored, err := s.svc.Get(s.ctx, d.ID, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(donation.StatusClaimed, stored.Status, "claim is durable despite the side-effect failure")
}

func (s *ServiceSuite) TestAdvance() {
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})
	s.notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	_, err := s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
	s.Require().NoError(err)

	s.Run("forward steps succeed", func() {
		advanced, err := s.svc.Advance(s.ctx, d.ID, s.donor.ID, donation.StatusReadyForDelivery, "packed")
		s.Require().NoError(err)
		s.Equal(donation.StatusReadyForDelivery, advanced.Status)
		s.Equal("packed", advanced.StatusDescription)

		advanced, err = s.svc.Advance(s.ctx, d.ID, s.recipient.ID, donation.StatusDelivered, "")
		s.Require().NoError(err)
		s.Equal(donation.StatusDelivered, advanced.Status)
		s.Equal("packed", advanced.StatusDescription, "empty description keeps the previous one")
	})

	s.Run("no going back", func() {
		_, err := s.svc.Advance(s.ctx, d.ID, s.donor.ID, donation.StatusClaimed, "")
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
	})

	s.Run("strangers cannot advance", func() {
		other := s.seedItem("beans", 5)
		fresh := s.createFood(inventory.Line{ItemID: other.ID, Quantity: 1})
		stranger := identity.User{ID: uuid.NewString(), Role: identity.RoleRecipient, Verified: true}
		s.directory.Put(stranger)
		_, err := s.svc.Advance(s.ctx, fresh.ID, stranger.ID, donation.StatusClaimed, "")
		s.True(dErrors.Is(err, dErrors.CodeNotAuthorized))
	})
}

func (s *ServiceSuite) TestAdvanceMoneyShortcut() {
	s.True(donation.AdvanceAllowed(donation.TypeMoney, donation.StatusPending, donation.StatusDelivered))
	s.False(donation.AdvanceAllowed(donation.TypeFoodItems, donation.StatusPending, donation.StatusDelivered))
	s.False(donation.AdvanceAllowed(donation.TypeMoney, donation.StatusClaimed, donation.StatusPending))
}

func (s *ServiceSuite) TestDeleteRestoresStock() {
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 2})

	s.Require().NoError(s.svc.Delete(s.ctx, d.ID, s.donor.ID))

	restored, err := s.ledger.Get(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(5, restored.Quantity, "delete returns the reservation to the ledger")

	_, err = s.svc.Get(s.ctx, d.ID, s.admin.ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound), "the donation no longer exists")
}

func (s *ServiceSuite) TestDeleteGuards() {
	item := s.seedItem("rice", 5)
	d := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})

	s.Run("only the donor or an admin", func() {
		err := s.svc.Delete(s.ctx, d.ID, s.recipient.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotAuthorized))
	})

	s.Run("claimed donations are immutable", func() {
		s.notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
		_, err := s.svc.Claim(s.ctx, d.ID, s.recipient.ID)
		s.Require().NoError(err)

		err = s.svc.Delete(s.ctx, d.ID, s.donor.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceSuite) TestListVisible() {
	item := s.seedItem("rice", 10)
	mine := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})
	claimedOut := s.createFood(inventory.Line{ItemID: item.ID, Quantity: 1})

	s.notifier.EXPECT().DeliverMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	_, err := s.svc.Claim(s.ctx, claimedOut.ID, s.recipient.ID)
	s.Require().NoError(err)

	s.Run("admin sees everything", func() {
		all, err := s.svc.ListVisible(s.ctx, s.admin.ID)
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("donor sees own donations", func() {
		own, err := s.svc.ListVisible(s.ctx, s.donor.ID)
		s.Require().NoError(err)
		s.Len(own, 2)
	})

	s.Run("recipient sees only open approved donations", func() {
		open, err := s.svc.ListVisible(s.ctx, s.recipient.ID)
		s.Require().NoError(err)
		s.Require().Len(open, 1)
		s.Equal(mine.ID, open[0].ID)
	})
}
