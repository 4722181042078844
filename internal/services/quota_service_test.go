package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wellness-service/internal/models"
)

type mockQuotaStore struct {
	mock.Mock
}

func (m *mockQuotaStore) GetCollaboratorByUserID(ctx context.Context, userID uuid.UUID) (*models.Collaborator, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaborator), args.Error(1)
}

func (m *mockQuotaStore) LatestPaidBill(ctx context.Context, companyID uuid.UUID) (*models.Bill, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *mockQuotaStore) GetSubscription(ctx context.Context, companyID, subscriptionID uuid.UUID) (*models.CompanySubscription, error) {
	args := m.Called(ctx, companyID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompanySubscription), args.Error(1)
}

func (m *mockQuotaStore) GetPackByID(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pack), args.Error(1)
}

func (m *mockQuotaStore) CountByCollaboratorSince(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, collaboratorID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQuotaStore) CountChatbotUsageBetween(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, collaboratorID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQuotaStore) CreateChatbotUsage(ctx context.Context, usage *models.ChatbotUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Reply(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyWindow(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid window",
			anchor:    date(2025, time.January, 14),
			now:       date(2025, time.February, 20),
			wantStart: date(2025, time.February, 14),
			wantEnd:   date(2025, time.March, 14),
		},
		{
			name:      "first window",
			anchor:    date(2025, time.January, 14),
			now:       date(2025, time.January, 20),
			wantStart: date(2025, time.January, 14),
			wantEnd:   date(2025, time.February, 14),
		},
		{
			name:      "now equals anchor",
			anchor:    date(2025, time.January, 14),
			now:       date(2025, time.January, 14),
			wantStart: date(2025, time.January, 14),
			wantEnd:   date(2025, time.February, 14),
		},
		{
			name:      "same month before anchor day",
			anchor:    date(2025, time.January, 14),
			now:       date(2025, time.March, 2),
			wantStart: date(2025, time.February, 14),
			wantEnd:   date(2025, time.March, 14),
		},
		{
			name:      "end of month anchor clamps to february",
			anchor:    date(2025, time.January, 31),
			now:       date(2025, time.March, 1),
			wantStart: date(2025, time.February, 28),
			wantEnd:   date(2025, time.March, 31),
		},
		{
			name:      "leap year clamp",
			anchor:    date(2024, time.January, 31),
			now:       date(2024, time.March, 1),
			wantStart: date(2024, time.February, 29),
			wantEnd:   date(2024, time.March, 31),
		},
		{
			name:      "spans year boundary",
			anchor:    date(2024, time.November, 10),
			now:       date(2025, time.January, 5),
			wantStart: date(2024, time.December, 10),
			wantEnd:   date(2025, time.January, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthlyWindow(tt.anchor, tt.now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.False(t, tt.now.Before(start), "now must be inside the window")
			assert.True(t, tt.now.Before(end), "now must be inside the window")
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), addMonthsClamped(date(2025, time.January, 31), 1))
	assert.Equal(t, date(2025, time.March, 31), addMonthsClamped(date(2025, time.January, 31), 2))
	assert.Equal(t, date(2025, time.April, 30), addMonthsClamped(date(2025, time.January, 30), 3))
	assert.Equal(t, date(2026, time.January, 15), addMonthsClamped(date(2025, time.December, 15), 1))
}

func quotaFixture() (uuid.UUID, *models.Collaborator, *models.Bill, *models.CompanySubscription, *models.Pack) {
	collaboratorID := uuid.New()
	companyID := uuid.New()
	subscriptionID := uuid.New()
	packID := uuid.New()
	payedDate := time.Now().Add(-10 * 24 * time.Hour)

	collaborator := &models.Collaborator{ID: collaboratorID, CompanyID: companyID}
	bill := &models.Bill{CompanyID: companyID, SubscriptionID: subscriptionID, Payed: true, PayedDate: &payedDate}
	sub := &models.CompanySubscription{CompanyID: companyID, ID: subscriptionID, PackID: packID, Status: models.SubscriptionActive}
	pack := &models.Pack{ID: packID, DefaultConsultationNumber: 3}
	return collaboratorID, collaborator, bill, sub, pack
}

func TestFreeConsultationsLeft(t *testing.T) {
	t.Run("remaining allowance", func(t *testing.T) {
		collaboratorID, collaborator, bill, sub, pack := quotaFixture()
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(bill, nil)
		store.On("GetSubscription", mock.Anything, collaborator.CompanyID, bill.SubscriptionID).Return(sub, nil)
		store.On("GetPackByID", mock.Anything, sub.PackID).Return(pack, nil)
		store.On("CountByCollaboratorSince", mock.Anything, collaboratorID, mock.Anything, mock.Anything).Return(int64(1), nil)

		svc := NewQuotaService(store, nil, testLogger())
		left, err := svc.FreeConsultationsLeft(context.Background(), collaboratorID)
		require.NoError(t, err)
		assert.Equal(t, 2, left)
	})

	t.Run("usage above allowance clamps at zero", func(t *testing.T) {
		collaboratorID, collaborator, bill, sub, pack := quotaFixture()
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(bill, nil)
		store.On("GetSubscription", mock.Anything, collaborator.CompanyID, bill.SubscriptionID).Return(sub, nil)
		store.On("GetPackByID", mock.Anything, sub.PackID).Return(pack, nil)
		store.On("CountByCollaboratorSince", mock.Anything, collaboratorID, mock.Anything, mock.Anything).Return(int64(5), nil)

		svc := NewQuotaService(store, nil, testLogger())
		left, err := svc.FreeConsultationsLeft(context.Background(), collaboratorID)
		require.NoError(t, err)
		assert.Equal(t, 0, left)
	})

	t.Run("no paid bill", func(t *testing.T) {
		collaboratorID, collaborator, _, _, _ := quotaFixture()
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(nil, nil)

		svc := NewQuotaService(store, nil, testLogger())
		left, err := svc.FreeConsultationsLeft(context.Background(), collaboratorID)
		require.NoError(t, err)
		assert.Equal(t, 0, left)
	})

	t.Run("subscription not active", func(t *testing.T) {
		collaboratorID, collaborator, bill, sub, _ := quotaFixture()
		sub.Status = models.SubscriptionResiliated
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(bill, nil)
		store.On("GetSubscription", mock.Anything, collaborator.CompanyID, bill.SubscriptionID).Return(sub, nil)

		svc := NewQuotaService(store, nil, testLogger())
		left, err := svc.FreeConsultationsLeft(context.Background(), collaboratorID)
		require.NoError(t, err)
		assert.Equal(t, 0, left)
	})

	t.Run("bill older than coverage", func(t *testing.T) {
		collaboratorID, collaborator, bill, sub, pack := quotaFixture()
		old := time.Now().Add(-400 * 24 * time.Hour)
		bill.PayedDate = &old
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(bill, nil)
		store.On("GetSubscription", mock.Anything, collaborator.CompanyID, bill.SubscriptionID).Return(sub, nil)
		store.On("GetPackByID", mock.Anything, sub.PackID).Return(pack, nil)

		svc := NewQuotaService(store, nil, testLogger())
		left, err := svc.FreeConsultationsLeft(context.Background(), collaboratorID)
		require.NoError(t, err)
		assert.Equal(t, 0, left)
	})

	t.Run("unknown collaborator", func(t *testing.T) {
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, mock.Anything).Return(nil, nil)

		svc := NewQuotaService(store, nil, testLogger())
		_, err := svc.FreeConsultationsLeft(context.Background(), uuid.New())
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})
}

func TestAsk(t *testing.T) {
	quota := 2

	setup := func(used int64) (*mockQuotaStore, *mockAssistant, uuid.UUID) {
		collaboratorID, collaborator, bill, sub, pack := quotaFixture()
		pack.ChatbotMessageQuota = &quota
		store := new(mockQuotaStore)
		store.On("GetCollaboratorByUserID", mock.Anything, collaboratorID).Return(collaborator, nil)
		store.On("LatestPaidBill", mock.Anything, collaborator.CompanyID).Return(bill, nil)
		store.On("GetSubscription", mock.Anything, collaborator.CompanyID, bill.SubscriptionID).Return(sub, nil)
		store.On("GetPackByID", mock.Anything, sub.PackID).Return(pack, nil)
		store.On("CountChatbotUsageBetween", mock.Anything, collaboratorID, mock.Anything, mock.Anything).Return(used, nil)
		store.On("CreateChatbotUsage", mock.Anything, mock.Anything).Return(nil)
		assistant := new(mockAssistant)
		return store, assistant, collaboratorID
	}

	t.Run("within quota", func(t *testing.T) {
		store, assistant, collaboratorID := setup(1)
		assistant.On("Reply", mock.Anything, "hello").Return("hi there", nil)

		svc := NewQuotaService(store, assistant, testLogger())
		reply, err := svc.Ask(context.Background(), collaboratorID, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hi there", reply)
		store.AssertCalled(t, "CreateChatbotUsage", mock.Anything, mock.Anything)
	})

	t.Run("quota reached", func(t *testing.T) {
		store, assistant, collaboratorID := setup(2)

		svc := NewQuotaService(store, assistant, testLogger())
		_, err := svc.Ask(context.Background(), collaboratorID, "hello")
		_, ok := IsForbiddenError(err)
		assert.True(t, ok)
		assistant.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
	})

	t.Run("empty message", func(t *testing.T) {
		svc := NewQuotaService(new(mockQuotaStore), new(mockAssistant), testLogger())
		_, err := svc.Ask(context.Background(), uuid.New(), "")
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})
}
