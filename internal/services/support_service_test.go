package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wellness-service/internal/models"
	"wellness-service/internal/repository"
)

type mockEngagementStore struct {
	mock.Mock
}

func (m *mockEngagementStore) CreateTicket(ctx context.Context, ticket *models.Ticket, message *models.TicketMessage) error {
	return m.Called(ctx, ticket, message).Error(0)
}

func (m *mockEngagementStore) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *mockEngagementStore) ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *mockEngagementStore) ListAllTickets(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *mockEngagementStore) AddTicketMessage(ctx context.Context, message *models.TicketMessage) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockEngagementStore) ListTicketMessages(ctx context.Context, ticketID uuid.UUID) ([]models.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketMessage), args.Error(1)
}

func (m *mockEngagementStore) UpdateTicketStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockEngagementStore) CreateForumCategory(ctx context.Context, category *models.ForumCategory) error {
	return m.Called(ctx, category).Error(0)
}

func (m *mockEngagementStore) ListForumCategories(ctx context.Context) ([]models.ForumCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForumCategory), args.Error(1)
}

func (m *mockEngagementStore) GetForumCategory(ctx context.Context, id uuid.UUID) (*models.ForumCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForumCategory), args.Error(1)
}

func (m *mockEngagementStore) CreateForumSubject(ctx context.Context, subject *models.ForumSubject) error {
	return m.Called(ctx, subject).Error(0)
}

func (m *mockEngagementStore) GetForumSubject(ctx context.Context, id uuid.UUID) (*models.ForumSubject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForumSubject), args.Error(1)
}

func (m *mockEngagementStore) ListForumSubjects(ctx context.Context, categoryID uuid.UUID) ([]models.ForumSubject, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForumSubject), args.Error(1)
}

func (m *mockEngagementStore) CreateForumPost(ctx context.Context, post *models.ForumPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *mockEngagementStore) ListForumPosts(ctx context.Context, subjectID uuid.UUID) ([]models.ForumPost, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForumPost), args.Error(1)
}

func (m *mockEngagementStore) CreateNGO(ctx context.Context, ngo *models.NGO) error {
	return m.Called(ctx, ngo).Error(0)
}

func (m *mockEngagementStore) GetNGO(ctx context.Context, id uuid.UUID) (*models.NGO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NGO), args.Error(1)
}

func (m *mockEngagementStore) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NGO), args.Error(1)
}

func (m *mockEngagementStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEngagementStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *mockEngagementStore) ListUpcomingEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *mockEngagementStore) CountEventBookings(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEngagementStore) HasEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEngagementStore) CreateEventBooking(ctx context.Context, booking *models.EventBooking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *mockEngagementStore) DeleteEventBooking(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEngagementStore) ListEventBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.EventBooking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventBooking), args.Error(1)
}

func (m *mockEngagementStore) CreateDonation(ctx context.Context, donation *models.Donation) error {
	return m.Called(ctx, donation).Error(0)
}

func (m *mockEngagementStore) ListDonationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Donation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Donation), args.Error(1)
}

func (m *mockEngagementStore) GetPlatformStats(ctx context.Context) (*repository.PlatformStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PlatformStats), args.Error(1)
}

func newTestSupport(store *mockEngagementStore) *SupportService {
	return NewSupportService(store, nil, testLogger())
}

func TestJoinEvent(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	event := &models.Event{ID: eventID, Capacity: 2, Date: time.Now().Add(7 * 24 * time.Hour)}

	t.Run("seat available", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(event, nil)
		store.On("HasEventBooking", mock.Anything, eventID, userID).Return(false, nil)
		store.On("CountEventBookings", mock.Anything, eventID).Return(int64(1), nil)
		store.On("CreateEventBooking", mock.Anything, mock.Anything).Return(nil)

		err := newTestSupport(store).JoinEvent(context.Background(), userID, eventID)
		require.NoError(t, err)
	})

	t.Run("already joined", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(event, nil)
		store.On("HasEventBooking", mock.Anything, eventID, userID).Return(true, nil)

		err := newTestSupport(store).JoinEvent(context.Background(), userID, eventID)
		_, ok := IsConflictError(err)
		assert.True(t, ok)
	})

	t.Run("event full", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(event, nil)
		store.On("HasEventBooking", mock.Anything, eventID, userID).Return(false, nil)
		store.On("CountEventBookings", mock.Anything, eventID).Return(int64(2), nil)

		err := newTestSupport(store).JoinEvent(context.Background(), userID, eventID)
		_, ok := IsConflictError(err)
		assert.True(t, ok)
		store.AssertNotCalled(t, "CreateEventBooking", mock.Anything, mock.Anything)
	})

	t.Run("unknown event", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(nil, nil)

		err := newTestSupport(store).JoinEvent(context.Background(), userID, eventID)
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})

	t.Run("leave releases the seat", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(event, nil)
		store.On("DeleteEventBooking", mock.Anything, eventID, userID).Return(true, nil)

		err := newTestSupport(store).LeaveEvent(context.Background(), userID, eventID)
		require.NoError(t, err)
	})

	t.Run("leave without joining", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetEvent", mock.Anything, eventID).Return(event, nil)
		store.On("DeleteEventBooking", mock.Anything, eventID, userID).Return(false, nil)

		err := newTestSupport(store).LeaveEvent(context.Background(), userID, eventID)
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})
}

func TestDonate(t *testing.T) {
	userID := uuid.New()
	ngoID := uuid.New()
	ngo := &models.NGO{ID: ngoID, Name: "Helping Hands"}

	t.Run("physical donation", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetNGO", mock.Anything, ngoID).Return(ngo, nil)
		store.On("CreateDonation", mock.Anything, mock.Anything).Return(nil)

		donation, err := newTestSupport(store).Donate(context.Background(), userID, "Jane Doe", DonationInput{
			NGOID:       ngoID,
			Type:        models.DonationPhysical,
			Description: "winter clothes",
		})
		require.NoError(t, err)
		assert.Nil(t, donation.Amount)
		assert.Nil(t, donation.ReceiptFile)
	})

	t.Run("money donation without amount", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetNGO", mock.Anything, ngoID).Return(ngo, nil)

		_, err := newTestSupport(store).Donate(context.Background(), userID, "Jane Doe", DonationInput{
			NGOID: ngoID,
			Type:  models.DonationMoney,
		})
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("money donation without billing details", func(t *testing.T) {
		amount := 50.0
		store := new(mockEngagementStore)
		store.On("GetNGO", mock.Anything, ngoID).Return(ngo, nil)

		_, err := newTestSupport(store).Donate(context.Background(), userID, "Jane Doe", DonationInput{
			NGOID:  ngoID,
			Type:   models.DonationMoney,
			Amount: &amount,
		})
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("unknown type", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetNGO", mock.Anything, ngoID).Return(ngo, nil)

		_, err := newTestSupport(store).Donate(context.Background(), userID, "Jane Doe", DonationInput{
			NGOID: ngoID,
			Type:  "crypto",
		})
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("unknown ngo", func(t *testing.T) {
		store := new(mockEngagementStore)
		store.On("GetNGO", mock.Anything, ngoID).Return(nil, nil)

		_, err := newTestSupport(store).Donate(context.Background(), userID, "Jane Doe", DonationInput{
			NGOID: ngoID,
			Type:  models.DonationPhysical,
		})
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})
}

func TestTickets(t *testing.T) {
	userID := uuid.New()
	ticketID := uuid.New()

	t.Run("reply to closed ticket", func(t *testing.T) {
		closed := &models.Ticket{ID: ticketID, UserID: userID, Status: models.TicketClosed}
		store := new(mockEngagementStore)
		store.On("GetTicket", mock.Anything, ticketID).Return(closed, nil)

		_, err := newTestSupport(store).ReplyTicket(context.Background(), userID, ticketID, "hello?", false)
		_, ok := IsConflictError(err)
		assert.True(t, ok)
	})

	t.Run("stranger cannot read a ticket", func(t *testing.T) {
		ticket := &models.Ticket{ID: ticketID, UserID: userID, Status: models.TicketOpen}
		store := new(mockEngagementStore)
		store.On("GetTicket", mock.Anything, ticketID).Return(ticket, nil)

		_, _, err := newTestSupport(store).GetTicketThread(context.Background(), uuid.New(), ticketID, false)
		_, ok := IsForbiddenError(err)
		assert.True(t, ok)
	})

	t.Run("admin can close any ticket", func(t *testing.T) {
		ticket := &models.Ticket{ID: ticketID, UserID: userID, Status: models.TicketOpen}
		store := new(mockEngagementStore)
		store.On("GetTicket", mock.Anything, ticketID).Return(ticket, nil)
		store.On("UpdateTicketStatus", mock.Anything, ticketID, models.TicketClosed).Return(nil)

		err := newTestSupport(store).CloseTicket(context.Background(), uuid.New(), ticketID, true)
		require.NoError(t, err)
	})

	t.Run("closing twice conflicts", func(t *testing.T) {
		closed := &models.Ticket{ID: ticketID, UserID: userID, Status: models.TicketClosed}
		store := new(mockEngagementStore)
		store.On("GetTicket", mock.Anything, ticketID).Return(closed, nil)

		err := newTestSupport(store).CloseTicket(context.Background(), userID, ticketID, false)
		_, ok := IsConflictError(err)
		assert.True(t, ok)
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := newTestSupport(new(mockEngagementStore)).OpenTicket(context.Background(), userID, "", "billing", "content")
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})
}
