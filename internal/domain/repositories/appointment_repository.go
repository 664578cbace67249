package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations.
// Implementations return defensive copies; callers never hold references into
// the store's own state.
type AppointmentRepository interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// Update overwrites an existing appointment
	Update(ctx context.Context, appointment *entities.Appointment) error

	// ListByDay retrieves a day's appointments ordered by scheduled time ascending
	ListByDay(ctx context.Context, dayIndex int) ([]*entities.Appointment, error)

	// ListAll retrieves every appointment in the book
	ListAll(ctx context.Context) ([]*entities.Appointment, error)
}
