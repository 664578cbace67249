package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// ActivityRepository stores the append-only global simulation log
type ActivityRepository interface {
	// Append records an activity entry
	Append(ctx context.Context, entry *entities.ActivityEntry) error

	// ListByAppointmentDay retrieves entries whose appointment falls on the
	// given day, ordered by timestamp ascending
	ListByAppointmentDay(ctx context.Context, dayIndex int) ([]*entities.ActivityEntry, error)

	// ListByAppointment retrieves entries for one appointment, ordered by
	// timestamp ascending
	ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.ActivityEntry, error)
}
