package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// AppointmentSearchRepository defines the interface for full-text appointment
// lookup. Implementations index a lean projection; callers re-fetch the live
// entity by ID so search results never go stale.
type AppointmentSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index indexes an appointment for patient-name search
	Index(ctx context.Context, appointment *entities.Appointment) error

	// Delete removes an appointment from the index
	Delete(ctx context.Context, id string) error

	// Search returns the IDs of appointments matching the query
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
