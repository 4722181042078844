package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wellness-service/internal/clients"
	"wellness-service/internal/models"
)

type mockSchedulerStore struct {
	mock.Mock
}

func (m *mockSchedulerStore) CreateAppointmentIfFree(ctx context.Context, appointment *models.MedicalAppointment) (bool, error) {
	args := m.Called(ctx, appointment)
	return args.Bool(0), args.Error(1)
}

func (m *mockSchedulerStore) GetAppointment(ctx context.Context, id uuid.UUID) (*models.MedicalAppointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MedicalAppointment), args.Error(1)
}

func (m *mockSchedulerStore) ListBookedByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.MedicalAppointment, error) {
	args := m.Called(ctx, contractorID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MedicalAppointment), args.Error(1)
}

func (m *mockSchedulerStore) ListBookedByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.MedicalAppointment, error) {
	args := m.Called(ctx, contractorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MedicalAppointment), args.Error(1)
}

func (m *mockSchedulerStore) ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]models.MedicalAppointment, error) {
	args := m.Called(ctx, collaboratorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MedicalAppointment), args.Error(1)
}

func (m *mockSchedulerStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSchedulerStore) SetAppointmentNote(ctx context.Context, id uuid.UUID, note int) error {
	return m.Called(ctx, id, note).Error(0)
}

func (m *mockSchedulerStore) CreateUnavailabilityIfFree(ctx context.Context, unavailability *models.CalendarUnavailability) (bool, error) {
	args := m.Called(ctx, unavailability)
	return args.Bool(0), args.Error(1)
}

func (m *mockSchedulerStore) ListUnavailabilitiesByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.CalendarUnavailability, error) {
	args := m.Called(ctx, contractorID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarUnavailability), args.Error(1)
}

func (m *mockSchedulerStore) ListUnavailabilitiesByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.CalendarUnavailability, error) {
	args := m.Called(ctx, contractorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarUnavailability), args.Error(1)
}

func (m *mockSchedulerStore) DeleteUnavailability(ctx context.Context, contractorID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, contractorID, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSchedulerStore) GetContractorByUserID(ctx context.Context, userID uuid.UUID) (*models.Contractor, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contractor), args.Error(1)
}

func (m *mockSchedulerStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockSchedulerStore) SetPaymentID(ctx context.Context, userID uuid.UUID, paymentID string) error {
	return m.Called(ctx, userID, paymentID).Error(0)
}

type mockFreeQuota struct {
	mock.Mock
}

func (m *mockFreeQuota) FreeConsultationsLeft(ctx context.Context, collaboratorID uuid.UUID) (int, error) {
	args := m.Called(ctx, collaboratorID)
	return args.Int(0), args.Error(1)
}

type mockCheckout struct {
	mock.Mock
}

func (m *mockCheckout) CreateSession(ctx context.Context, req clients.CheckoutRequest) (*clients.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CheckoutSession), args.Error(1)
}

func newTestScheduler(store *mockSchedulerStore) *SchedulerService {
	return NewSchedulerService(store, nil, nil, nil, nil, "http://localhost", testLogger())
}

func TestBusySlots(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	appointments := []models.MedicalAppointment{
		{Date: start},
		{Date: start.Add(2 * time.Hour)},
	}
	windows := []models.CalendarUnavailability{
		{Begin: start.Add(4 * time.Hour), End: start.Add(6 * time.Hour)},
	}

	slots := BusySlots(appointments, windows)
	require.Len(t, slots, 3)
	assert.Equal(t, models.Interval{Begin: start, End: start.Add(models.AppointmentSlot)}, slots[0])
	assert.Equal(t, models.Interval{Begin: start.Add(4 * time.Hour), End: start.Add(6 * time.Hour)}, slots[2])
}

func TestPlaceCompatible(t *testing.T) {
	tests := []struct {
		intervention string
		place        string
		want         bool
	}{
		{models.InterventionBoth, models.InterventionIncall, true},
		{models.InterventionBoth, models.InterventionOutcall, true},
		{models.InterventionIncall, models.InterventionIncall, true},
		{models.InterventionIncall, models.InterventionOutcall, false},
		{models.InterventionOutcall, models.InterventionOutcall, true},
		{models.InterventionOutcall, models.InterventionIncall, false},
		{models.InterventionBoth, "home", false},
		{"", models.InterventionIncall, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlaceCompatible(tt.intervention, tt.place),
			"intervention %q place %q", tt.intervention, tt.place)
	}
}

func TestAddNote(t *testing.T) {
	collaboratorID := uuid.New()
	appointmentID := uuid.New()

	booked := func() *models.MedicalAppointment {
		return &models.MedicalAppointment{
			ID:             appointmentID,
			CollaboratorID: collaboratorID,
			Status:         models.AppointmentPayed,
		}
	}

	t.Run("valid rating", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(booked(), nil)
		store.On("SetAppointmentNote", mock.Anything, appointmentID, 4).Return(nil)

		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 4)
		require.NoError(t, err)
	})

	t.Run("zero is a valid rating", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(booked(), nil)
		store.On("SetAppointmentNote", mock.Anything, appointmentID, 0).Return(nil)

		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 0)
		require.NoError(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		store := new(mockSchedulerStore)
		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 6)
		_, ok := IsValidationError(err)
		assert.True(t, ok)

		err = newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, -1)
		_, ok = IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("another collaborator's appointment", func(t *testing.T) {
		appointment := booked()
		appointment.CollaboratorID = uuid.New()
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 3)
		_, ok := IsForbiddenError(err)
		assert.True(t, ok)
	})

	t.Run("canceled appointment", func(t *testing.T) {
		appointment := booked()
		appointment.Status = models.AppointmentCanceled
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 3)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("already rated", func(t *testing.T) {
		existing := 5
		appointment := booked()
		appointment.Note = &existing
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).AddNote(context.Background(), collaboratorID, appointmentID, 3)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
		store.AssertNotCalled(t, "SetAppointmentNote", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCancel(t *testing.T) {
	collaboratorID := uuid.New()
	appointmentID := uuid.New()

	future := func() *models.MedicalAppointment {
		return &models.MedicalAppointment{
			ID:             appointmentID,
			CollaboratorID: collaboratorID,
			ContractorID:   uuid.New(),
			Date:           time.Now().Add(48 * time.Hour),
			Status:         models.AppointmentPayed,
		}
	}

	t.Run("future appointment", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(future(), nil)
		store.On("UpdateAppointmentStatus", mock.Anything, appointmentID, models.AppointmentCanceled).Return(nil)

		err := newTestScheduler(store).Cancel(context.Background(), collaboratorID, appointmentID)
		require.NoError(t, err)
	})

	t.Run("past appointment", func(t *testing.T) {
		appointment := future()
		appointment.Date = time.Now().Add(-time.Hour)
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).Cancel(context.Background(), collaboratorID, appointmentID)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("another collaborator's appointment", func(t *testing.T) {
		appointment := future()
		appointment.CollaboratorID = uuid.New()
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).Cancel(context.Background(), collaboratorID, appointmentID)
		_, ok := IsForbiddenError(err)
		assert.True(t, ok)
	})

	t.Run("already canceled", func(t *testing.T) {
		appointment := future()
		appointment.Status = models.AppointmentCanceled
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(appointment, nil)

		err := newTestScheduler(store).Cancel(context.Background(), collaboratorID, appointmentID)
		_, ok := IsConflictError(err)
		assert.True(t, ok)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetAppointment", mock.Anything, appointmentID).Return(nil, nil)

		err := newTestScheduler(store).Cancel(context.Background(), collaboratorID, appointmentID)
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})
}

func TestAddUnavailability(t *testing.T) {
	contractorID := uuid.New()

	t.Run("free window", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("CreateUnavailabilityIfFree", mock.Anything, mock.Anything).Return(true, nil)

		begin := time.Now().Add(24 * time.Hour)
		window, err := newTestScheduler(store).AddUnavailability(context.Background(), contractorID, begin, begin.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, contractorID, window.ContractorID)
	})

	t.Run("past window", func(t *testing.T) {
		store := new(mockSchedulerStore)
		begin := time.Now().Add(-24 * time.Hour)
		_, err := newTestScheduler(store).AddUnavailability(context.Background(), contractorID, begin, begin.Add(time.Hour))
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("inverted window", func(t *testing.T) {
		store := new(mockSchedulerStore)
		begin := time.Now().Add(24 * time.Hour)
		_, err := newTestScheduler(store).AddUnavailability(context.Background(), contractorID, begin, begin.Add(-time.Hour))
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("overlaps a booked appointment", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("CreateUnavailabilityIfFree", mock.Anything, mock.Anything).Return(false, nil)

		begin := time.Now().Add(24 * time.Hour)
		_, err := newTestScheduler(store).AddUnavailability(context.Background(), contractorID, begin, begin.Add(time.Hour))
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})
}

func TestBook(t *testing.T) {
	collaboratorID := uuid.New()
	contractorID := uuid.New()
	date := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	contractor := func() *models.Contractor {
		return &models.Contractor{
			ID:           contractorID,
			Service:      "massage",
			ServicePrice: 80,
			Intervention: models.InterventionBoth,
		}
	}
	newBookingScheduler := func(store *mockSchedulerStore, quota *mockFreeQuota, checkout *mockCheckout) *SchedulerService {
		return NewSchedulerService(store, quota, newTestDocuments(t), checkout, nil, "http://localhost", testLogger())
	}

	t.Run("free quota confirms immediately", func(t *testing.T) {
		store := new(mockSchedulerStore)
		quota := new(mockFreeQuota)
		checkout := new(mockCheckout)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(contractor(), nil)
		quota.On("FreeConsultationsLeft", mock.Anything, collaboratorID).Return(2, nil)
		store.On("CreateAppointmentIfFree", mock.Anything, mock.Anything).Return(true, nil)

		result, err := newBookingScheduler(store, quota, checkout).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionIncall)
		require.NoError(t, err)
		require.NotNil(t, result.Appointment)
		assert.Equal(t, models.AppointmentPayed, result.Appointment.Status)
		assert.Equal(t, int64(0), result.Appointment.Price)
		assert.Equal(t, date, result.Appointment.Date)
		assert.Empty(t, result.CheckoutURL)
		checkout.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("slot already taken on the free path", func(t *testing.T) {
		store := new(mockSchedulerStore)
		quota := new(mockFreeQuota)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(contractor(), nil)
		quota.On("FreeConsultationsLeft", mock.Anything, collaboratorID).Return(2, nil)
		store.On("CreateAppointmentIfFree", mock.Anything, mock.Anything).Return(false, nil)

		_, err := newBookingScheduler(store, quota, new(mockCheckout)).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionIncall)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("incompatible place checked before quota", func(t *testing.T) {
		incall := contractor()
		incall.Intervention = models.InterventionIncall
		store := new(mockSchedulerStore)
		quota := new(mockFreeQuota)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(incall, nil)

		_, err := newBookingScheduler(store, quota, new(mockCheckout)).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionOutcall)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
		quota.AssertNotCalled(t, "FreeConsultationsLeft", mock.Anything, mock.Anything)
	})

	t.Run("past date", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(contractor(), nil)

		_, err := newBookingScheduler(store, new(mockFreeQuota), new(mockCheckout)).Book(context.Background(), collaboratorID, contractorID, time.Now().Add(-time.Hour), models.InterventionIncall)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("unknown contractor", func(t *testing.T) {
		store := new(mockSchedulerStore)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(nil, nil)

		_, err := newBookingScheduler(store, new(mockFreeQuota), new(mockCheckout)).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionIncall)
		_, ok := IsNotFoundError(err)
		assert.True(t, ok)
	})

	t.Run("exhausted quota goes through checkout", func(t *testing.T) {
		store := new(mockSchedulerStore)
		quota := new(mockFreeQuota)
		checkout := new(mockCheckout)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(contractor(), nil)
		quota.On("FreeConsultationsLeft", mock.Anything, collaboratorID).Return(0, nil)
		store.On("ListBookedByContractorBetween", mock.Anything, contractorID, mock.Anything, mock.Anything).Return([]models.MedicalAppointment{}, nil)
		store.On("ListUnavailabilitiesByContractorBetween", mock.Anything, contractorID, mock.Anything, mock.Anything).Return([]models.CalendarUnavailability{}, nil)
		store.On("GetUserByID", mock.Anything, collaboratorID).Return(&models.User{ID: collaboratorID, Email: "john@acme.fr"}, nil)
		checkout.On("CreateSession", mock.Anything, mock.MatchedBy(func(req clients.CheckoutRequest) bool {
			if req.AmountCents != 8000 || req.CustomerEmail != "john@acme.fr" {
				return false
			}
			if req.Metadata["origin"] != "book-medical-appointment" {
				return false
			}
			if _, err := uuid.Parse(req.Metadata["appointment_id"]); err != nil {
				return false
			}
			return req.Metadata["contractor_id"] == contractorID.String() &&
				req.Metadata["collaborator_id"] == collaboratorID.String() &&
				req.Metadata["date"] == date.UTC().Format(time.RFC3339) &&
				req.Metadata["place"] == models.InterventionIncall
		})).Return(&clients.CheckoutSession{ID: "cs_123", URL: "https://pay.example/cs_123"}, nil)
		store.On("SetPaymentID", mock.Anything, collaboratorID, "cs_123").Return(nil)

		result, err := newBookingScheduler(store, quota, checkout).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionIncall)
		require.NoError(t, err)
		assert.Nil(t, result.Appointment)
		assert.Equal(t, "https://pay.example/cs_123", result.CheckoutURL)
		store.AssertNotCalled(t, "CreateAppointmentIfFree", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("exhausted quota with a busy slot", func(t *testing.T) {
		store := new(mockSchedulerStore)
		quota := new(mockFreeQuota)
		checkout := new(mockCheckout)
		store.On("GetContractorByUserID", mock.Anything, contractorID).Return(contractor(), nil)
		quota.On("FreeConsultationsLeft", mock.Anything, collaboratorID).Return(0, nil)
		store.On("ListBookedByContractorBetween", mock.Anything, contractorID, mock.Anything, mock.Anything).Return([]models.MedicalAppointment{{Date: date, Status: models.AppointmentPayed}}, nil)
		store.On("ListUnavailabilitiesByContractorBetween", mock.Anything, contractorID, mock.Anything, mock.Anything).Return([]models.CalendarUnavailability{}, nil)

		_, err := newBookingScheduler(store, quota, checkout).Book(context.Background(), collaboratorID, contractorID, date, models.InterventionIncall)
		_, ok := IsValidationError(err)
		assert.True(t, ok)
		checkout.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})
}
