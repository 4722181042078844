package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/cache"
	"wellness-service/internal/clients"
	"wellness-service/internal/models"
)

// SchedulerStore is the persistence surface the scheduler needs
type SchedulerStore interface {
	CreateAppointmentIfFree(ctx context.Context, appointment *models.MedicalAppointment) (bool, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.MedicalAppointment, error)
	ListBookedByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.MedicalAppointment, error)
	ListBookedByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.MedicalAppointment, error)
	ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]models.MedicalAppointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error
	SetAppointmentNote(ctx context.Context, id uuid.UUID, note int) error

	CreateUnavailabilityIfFree(ctx context.Context, unavailability *models.CalendarUnavailability) (bool, error)
	ListUnavailabilitiesByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.CalendarUnavailability, error)
	ListUnavailabilitiesByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.CalendarUnavailability, error)
	DeleteUnavailability(ctx context.Context, contractorID, id uuid.UUID) (bool, error)

	GetContractorByUserID(ctx context.Context, userID uuid.UUID) (*models.Contractor, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetPaymentID(ctx context.Context, userID uuid.UUID, paymentID string) error
}

// FreeQuota exposes the consultation allowance check
type FreeQuota interface {
	FreeConsultationsLeft(ctx context.Context, collaboratorID uuid.UUID) (int, error)
}

// BookingResult is either an immediately confirmed appointment (free quota
// path) or a checkout session the caller must complete.
type BookingResult struct {
	Appointment *models.MedicalAppointment `json:"appointment,omitempty"`
	CheckoutURL string                     `json:"checkout_url,omitempty"`
}

// SchedulerService manages contractor calendars and appointment booking
type SchedulerService struct {
	store     SchedulerStore
	quota     FreeQuota
	documents *DocumentService
	checkout  CheckoutProvider
	cache     *cache.AvailabilityCache
	baseURL   string
	logger    *logrus.Logger
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(store SchedulerStore, quota FreeQuota, documents *DocumentService, checkout CheckoutProvider, availabilityCache *cache.AvailabilityCache, baseURL string, logger *logrus.Logger) *SchedulerService {
	return &SchedulerService{
		store:     store,
		quota:     quota,
		documents: documents,
		checkout:  checkout,
		cache:     availabilityCache,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// BusySlots flattens appointments and unavailability windows into busy
// intervals. Appointments occupy their 30-minute slot. Windows are kept
// as declared; nothing is merged.
func BusySlots(appointments []models.MedicalAppointment, windows []models.CalendarUnavailability) []models.Interval {
	slots := make([]models.Interval, 0, len(appointments)+len(windows))
	for _, a := range appointments {
		slots = append(slots, models.Interval{Begin: a.Date, End: a.End()})
	}
	for _, w := range windows {
		slots = append(slots, models.Interval{Begin: w.Begin, End: w.End})
	}
	return slots
}

// WeeklyAvailability returns a contractor's busy slots. With a week start
// the window is [start, start+7d); otherwise every future slot is returned.
func (s *SchedulerService) WeeklyAvailability(ctx context.Context, contractorID uuid.UUID, weekStart *time.Time) ([]models.Interval, error) {
	contractor, err := s.store.GetContractorByUserID(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if contractor == nil {
		return nil, NewNotFoundError("contractor", contractorID.String())
	}

	cacheKey := "future"
	if weekStart != nil {
		cacheKey = weekStart.UTC().Format(time.RFC3339)
	}
	if s.cache != nil {
		if slots, ok := s.cache.Get(ctx, contractorID, cacheKey); ok {
			return slots, nil
		}
	}

	var appointments []models.MedicalAppointment
	var windows []models.CalendarUnavailability
	if weekStart != nil {
		weekEnd := weekStart.Add(7 * 24 * time.Hour)
		appointments, err = s.store.ListBookedByContractorBetween(ctx, contractorID, *weekStart, weekEnd)
		if err != nil {
			return nil, err
		}
		windows, err = s.store.ListUnavailabilitiesByContractorBetween(ctx, contractorID, *weekStart, weekEnd)
		if err != nil {
			return nil, err
		}
	} else {
		now := time.Now()
		appointments, err = s.store.ListBookedByContractor(ctx, contractorID, now)
		if err != nil {
			return nil, err
		}
		windows, err = s.store.ListUnavailabilitiesByContractor(ctx, contractorID, now)
		if err != nil {
			return nil, err
		}
	}

	slots := BusySlots(appointments, windows)
	if s.cache != nil {
		s.cache.Set(ctx, contractorID, cacheKey, slots)
	}
	return slots, nil
}

// PlaceCompatible reports whether a contractor serves the requested place
func PlaceCompatible(intervention, place string) bool {
	switch intervention {
	case models.InterventionBoth:
		return place == models.InterventionIncall || place == models.InterventionOutcall
	case models.InterventionIncall, models.InterventionOutcall:
		return place == intervention
	default:
		return false
	}
}

// Book reserves a consultation slot. When the collaborator still has free
// quota the appointment is confirmed immediately; otherwise a checkout
// session is returned and the appointment is created on payment.
func (s *SchedulerService) Book(ctx context.Context, collaboratorID, contractorID uuid.UUID, date time.Time, place string) (*BookingResult, error) {
	contractor, err := s.store.GetContractorByUserID(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if contractor == nil {
		return nil, NewNotFoundError("contractor", contractorID.String())
	}
	if !PlaceCompatible(contractor.Intervention, place) {
		return nil, NewValidationError("place", fmt.Sprintf("contractor does not serve %s consultations", place))
	}
	if date.Before(time.Now()) {
		return nil, NewValidationError("date", "cannot book in the past")
	}

	left, err := s.quota.FreeConsultationsLeft(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}

	if left > 0 {
		appointment := &models.MedicalAppointment{
			ID:             uuid.New(),
			ContractorID:   contractorID,
			CollaboratorID: collaboratorID,
			Date:           date,
			CreationDate:   time.Now(),
			Status:         models.AppointmentPayed,
			Price:          0,
			BillFile:       fmt.Sprintf("appointments/%s.html", uuid.New()),
			Place:          place,
		}
		free, err := s.store.CreateAppointmentIfFree(ctx, appointment)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, NewValidationError("appointment", "the slot is already taken")
		}
		if err := s.generateAppointmentInvoice(ctx, appointment, contractor); err != nil {
			return nil, err
		}
		s.invalidate(ctx, contractorID)
		s.logger.WithFields(logrus.Fields{
			"appointment_id":  appointment.ID,
			"collaborator_id": collaboratorID,
			"contractor_id":   contractorID,
		}).Info("appointment booked on free quota")
		return &BookingResult{Appointment: appointment}, nil
	}

	// Paid path. The slot must be free now, but it is only taken once the
	// webhook confirms payment with this pre-generated id.
	if conflict, err := s.slotTaken(ctx, contractorID, date); err != nil {
		return nil, err
	} else if conflict {
		return nil, NewValidationError("appointment", "the slot is already taken")
	}

	user, err := s.store.GetUserByID(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFoundError("collaborator", collaboratorID.String())
	}

	appointmentID := uuid.New()
	session, err := s.checkout.CreateSession(ctx, clients.CheckoutRequest{
		AmountCents:   contractor.ServicePrice * 100,
		Currency:      "eur",
		CustomerEmail: user.Email,
		SuccessURL:    s.baseURL + "/collaborator/appointment/success",
		CancelURL:     s.baseURL + "/collaborator/appointment/cancel",
		Metadata: map[string]string{
			"origin":          "book-medical-appointment",
			"appointment_id":  appointmentID.String(),
			"contractor_id":   contractorID.String(),
			"collaborator_id": collaboratorID.String(),
			"date":            date.UTC().Format(time.RFC3339),
			"place":           place,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	// Remember the latest checkout reference so support can trace the payment.
	if err := s.store.SetPaymentID(ctx, collaboratorID, session.ID); err != nil {
		s.logger.WithError(err).WithField("collaborator_id", collaboratorID).Warn("failed to record payment reference")
	}
	return &BookingResult{CheckoutURL: session.URL}, nil
}

// slotTaken applies the open-interval overlap test against the week
// containing the requested start
func (s *SchedulerService) slotTaken(ctx context.Context, contractorID uuid.UUID, date time.Time) (bool, error) {
	weekStart := date.Truncate(24 * time.Hour)
	weekStart = weekStart.AddDate(0, 0, -int((weekStart.Weekday()+6)%7))
	weekEnd := weekStart.AddDate(0, 0, 7)

	appointments, err := s.store.ListBookedByContractorBetween(ctx, contractorID, weekStart, weekEnd)
	if err != nil {
		return false, err
	}
	windows, err := s.store.ListUnavailabilitiesByContractorBetween(ctx, contractorID, weekStart, weekEnd)
	if err != nil {
		return false, err
	}

	candidate := models.Interval{Begin: date, End: date.Add(models.AppointmentSlot)}
	for _, slot := range BusySlots(appointments, windows) {
		if candidate.Overlaps(slot) {
			return true, nil
		}
	}
	return false, nil
}

// ConfirmAppointment creates the appointment announced in a paid checkout
// session. Redelivered webhooks are no-ops: the pre-generated id makes
// creation idempotent.
func (s *SchedulerService) ConfirmAppointment(ctx context.Context, appointmentID, contractorID, collaboratorID uuid.UUID, date time.Time, place string) error {
	existing, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	contractor, err := s.store.GetContractorByUserID(ctx, contractorID)
	if err != nil {
		return err
	}
	if contractor == nil {
		return NewNotFoundError("contractor", contractorID.String())
	}

	appointment := &models.MedicalAppointment{
		ID:             appointmentID,
		ContractorID:   contractorID,
		CollaboratorID: collaboratorID,
		Date:           date,
		CreationDate:   time.Now(),
		Status:         models.AppointmentPayed,
		Price:          contractor.ServicePrice,
		BillFile:       fmt.Sprintf("appointments/%s.html", uuid.New()),
		Place:          place,
	}
	free, err := s.store.CreateAppointmentIfFree(ctx, appointment)
	if err != nil {
		return err
	}
	if !free {
		// Paid but the slot was taken in the meantime. Record it anyway so
		// support can refund; double booking is resolved by the contractor.
		s.logger.WithField("appointment_id", appointmentID).Warn("paid appointment conflicts with an existing slot")
		return NewValidationError("appointment", "the slot was taken before payment completed")
	}

	if err := s.generateAppointmentInvoice(ctx, appointment, contractor); err != nil {
		return err
	}
	s.invalidate(ctx, contractorID)
	s.logger.WithField("appointment_id", appointmentID).Info("paid appointment confirmed")
	return nil
}

func (s *SchedulerService) generateAppointmentInvoice(ctx context.Context, appointment *models.MedicalAppointment, contractor *models.Contractor) error {
	ttc := float64(appointment.Price)
	ht, tva := SplitVAT(ttc)
	return s.documents.GenerateInvoice(ctx, appointment.BillFile, InvoiceDocument{
		Reference:   appointment.ID.String(),
		BilledTo:    appointment.CollaboratorID.String(),
		Description: fmt.Sprintf("%s consultation (%s)", contractor.Service, appointment.Place),
		TotalTTC:    ttc,
		TotalHT:     ht,
		TVA:         tva,
		Date:        time.Now(),
	})
}

// AddUnavailability declares a blackout window on a contractor's calendar
func (s *SchedulerService) AddUnavailability(ctx context.Context, contractorID uuid.UUID, begin, end time.Time) (*models.CalendarUnavailability, error) {
	now := time.Now()
	if begin.Before(now) || end.Before(now) {
		return nil, NewValidationError("window", "cannot be in the past")
	}
	if end.Before(begin) {
		return nil, NewValidationError("window", "end precedes begin")
	}

	window := &models.CalendarUnavailability{
		ID:           uuid.New(),
		ContractorID: contractorID,
		Begin:        begin,
		End:          end,
	}
	free, err := s.store.CreateUnavailabilityIfFree(ctx, window)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, NewValidationError("unavailability", "window overlaps a booked appointment")
	}
	s.invalidate(ctx, contractorID)
	return window, nil
}

// RemoveUnavailability deletes one of the contractor's windows
func (s *SchedulerService) RemoveUnavailability(ctx context.Context, contractorID, windowID uuid.UUID) error {
	deleted, err := s.store.DeleteUnavailability(ctx, contractorID, windowID)
	if err != nil {
		return err
	}
	if !deleted {
		return NewNotFoundError("unavailability", windowID.String())
	}
	s.invalidate(ctx, contractorID)
	return nil
}

// Cancel voids a future appointment. Only its collaborator may cancel.
func (s *SchedulerService) Cancel(ctx context.Context, collaboratorID, appointmentID uuid.UUID) error {
	appointment, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment == nil {
		return NewNotFoundError("appointment", appointmentID.String())
	}
	if appointment.CollaboratorID != collaboratorID {
		return NewForbiddenError("appointment belongs to another collaborator")
	}
	if !appointment.Date.After(time.Now()) {
		return NewValidationError("appointment", "cannot cancel a past appointment")
	}
	if appointment.Status == models.AppointmentCanceled {
		return NewConflictError("appointment", "already canceled")
	}

	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, models.AppointmentCanceled); err != nil {
		return err
	}
	s.invalidate(ctx, appointment.ContractorID)
	s.logger.WithField("appointment_id", appointmentID).Info("appointment canceled")
	return nil
}

// AddNote rates a consultation, once, from 0 to 5. Canceled appointments
// cannot be rated.
func (s *SchedulerService) AddNote(ctx context.Context, collaboratorID, appointmentID uuid.UUID, note int) error {
	if note < 0 || note > 5 {
		return NewValidationError("note", "must be between 0 and 5")
	}

	appointment, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment == nil {
		return NewNotFoundError("appointment", appointmentID.String())
	}
	if appointment.CollaboratorID != collaboratorID {
		return NewForbiddenError("appointment belongs to another collaborator")
	}
	if appointment.Status == models.AppointmentCanceled {
		return NewValidationError("appointment", "cannot rate a canceled appointment")
	}
	if appointment.Note != nil {
		return NewValidationError("note", "already set")
	}

	return s.store.SetAppointmentNote(ctx, appointmentID, note)
}

// ListForCollaborator returns a collaborator's appointments
func (s *SchedulerService) ListForCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]models.MedicalAppointment, error) {
	return s.store.ListByCollaborator(ctx, collaboratorID)
}

func (s *SchedulerService) invalidate(ctx context.Context, contractorID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, contractorID)
	}
}
