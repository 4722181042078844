package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness-service/internal/models"
)

// AppointmentRepository handles appointment and calendar database operations
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// CreateAppointmentIfFree inserts the appointment unless its 30-minute
// slot overlaps a PAYED appointment or an unavailability window of the
// contractor. Check and insert run in one transaction. Returns false
// without inserting on conflict.
func (r *AppointmentRepository) CreateAppointmentIfFree(ctx context.Context, appointment *models.MedicalAppointment) (bool, error) {
	free := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		begin := appointment.Date
		end := appointment.End()

		var count int64
		if err := tx.Model(&models.MedicalAppointment{}).
			Where("contractor_id = ? AND status = ? AND medical_appointment_date < ? AND medical_appointment_date + interval '30 minutes' > ?",
				appointment.ContractorID, models.AppointmentPayed, end, begin).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check appointment overlap: %w", err)
		}
		if count == 0 {
			if err := tx.Model(&models.CalendarUnavailability{}).
				Where("contractor_id = ? AND unavailable_begin_date < ? AND unavailable_end_date > ?",
					appointment.ContractorID, end, begin).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check unavailability overlap: %w", err)
			}
		}
		if count > 0 {
			free = false
			return nil
		}
		if err := tx.Create(appointment).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	return free, err
}

// CreateUnavailabilityIfFree inserts the window unless it overlaps a PAYED
// appointment of the contractor. Returns false without inserting on conflict.
func (r *AppointmentRepository) CreateUnavailabilityIfFree(ctx context.Context, unavailability *models.CalendarUnavailability) (bool, error) {
	free := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.MedicalAppointment{}).
			Where("contractor_id = ? AND status = ? AND medical_appointment_date < ? AND medical_appointment_date + interval '30 minutes' > ?",
				unavailability.ContractorID, models.AppointmentPayed, unavailability.End, unavailability.Begin).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check appointment overlap: %w", err)
		}
		if count > 0 {
			free = false
			return nil
		}
		if err := tx.Create(unavailability).Error; err != nil {
			return fmt.Errorf("failed to create unavailability: %w", err)
		}
		return nil
	})
	return free, err
}

// GetAppointment retrieves an appointment by id
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*models.MedicalAppointment, error) {
	var appointment models.MedicalAppointment
	if err := r.db.WithContext(ctx).First(&appointment, "medical_appointment_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

// ListBookedByContractor returns a contractor's PAYED appointments starting
// at or after the given instant
func (r *AppointmentRepository) ListBookedByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.MedicalAppointment, error) {
	var appointments []models.MedicalAppointment
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND status = ? AND medical_appointment_date >= ?",
			contractorID, models.AppointmentPayed, from).
		Order("medical_appointment_date ASC").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list contractor appointments: %w", err)
	}
	return appointments, nil
}

// ListBookedByContractorBetween returns a contractor's PAYED appointments
// within [from, to)
func (r *AppointmentRepository) ListBookedByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.MedicalAppointment, error) {
	var appointments []models.MedicalAppointment
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND status = ? AND medical_appointment_date >= ? AND medical_appointment_date < ?",
			contractorID, models.AppointmentPayed, from, to).
		Order("medical_appointment_date ASC").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list contractor appointments: %w", err)
	}
	return appointments, nil
}

// ListByCollaborator returns every appointment of a collaborator, newest first
func (r *AppointmentRepository) ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]models.MedicalAppointment, error) {
	var appointments []models.MedicalAppointment
	if err := r.db.WithContext(ctx).
		Where("collaborator_id = ?", collaboratorID).
		Order("medical_appointment_date DESC").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list collaborator appointments: %w", err)
	}
	return appointments, nil
}

// CountByCollaboratorSince counts a collaborator's PAYED appointments dated
// within [from, to)
func (r *AppointmentRepository) CountByCollaboratorSince(ctx context.Context, collaboratorID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MedicalAppointment{}).
		Where("collaborator_id = ? AND status = ? AND medical_appointment_date >= ? AND medical_appointment_date < ?",
			collaboratorID, models.AppointmentPayed, from, to).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count collaborator appointments: %w", err)
	}
	return count, nil
}

// UpdateAppointmentStatus transitions one appointment
func (r *AppointmentRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := r.db.WithContext(ctx).Model(&models.MedicalAppointment{}).
		Where("medical_appointment_id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return nil
}

// SetAppointmentNote stores the collaborator's rating
func (r *AppointmentRepository) SetAppointmentNote(ctx context.Context, id uuid.UUID, note int) error {
	if err := r.db.WithContext(ctx).Model(&models.MedicalAppointment{}).
		Where("medical_appointment_id = ?", id).
		Update("note", note).Error; err != nil {
		return fmt.Errorf("failed to set appointment note: %w", err)
	}
	return nil
}

// ============================================================================
// Unavailability Operations
// ============================================================================

// ListUnavailabilitiesByContractor returns a contractor's unavailability
// windows ending after the given instant
func (r *AppointmentRepository) ListUnavailabilitiesByContractor(ctx context.Context, contractorID uuid.UUID, from time.Time) ([]models.CalendarUnavailability, error) {
	var windows []models.CalendarUnavailability
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND unavailable_end_date > ?", contractorID, from).
		Order("unavailable_begin_date ASC").
		Find(&windows).Error; err != nil {
		return nil, fmt.Errorf("failed to list unavailabilities: %w", err)
	}
	return windows, nil
}

// ListUnavailabilitiesByContractorBetween returns a contractor's
// unavailability windows intersecting [from, to)
func (r *AppointmentRepository) ListUnavailabilitiesByContractorBetween(ctx context.Context, contractorID uuid.UUID, from, to time.Time) ([]models.CalendarUnavailability, error) {
	var windows []models.CalendarUnavailability
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND unavailable_begin_date < ? AND unavailable_end_date > ?", contractorID, to, from).
		Order("unavailable_begin_date ASC").
		Find(&windows).Error; err != nil {
		return nil, fmt.Errorf("failed to list unavailabilities: %w", err)
	}
	return windows, nil
}

// DeleteUnavailability removes one window owned by the contractor
func (r *AppointmentRepository) DeleteUnavailability(ctx context.Context, contractorID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.CalendarUnavailability{}, "calendar_id = ? AND contractor_id = ?", id, contractorID)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete unavailability: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
