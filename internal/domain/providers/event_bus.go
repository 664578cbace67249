package providers

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// simulation events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SimulationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SimulationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for simulation streams
const (
	// EventChannelSimulation carries every simulation event
	EventChannelSimulation = "simulation:updates"

	// EventChannelAppointmentPrefix is the prefix for per-appointment channels
	EventChannelAppointmentPrefix = "appointment:"
)

// GetAppointmentChannel returns the channel name for one appointment's events
func GetAppointmentChannel(appointmentID string) string {
	return EventChannelAppointmentPrefix + appointmentID
}
