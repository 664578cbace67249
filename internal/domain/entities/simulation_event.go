package entities

import "time"

// SimulationEventType identifies what happened in the simulation
type SimulationEventType string

const (
	EventCommsSent         SimulationEventType = "comms_sent"
	EventOutcomeResolved   SimulationEventType = "outcome_resolved"
	EventDayAdvanced       SimulationEventType = "day_advanced"
	EventDeploymentApplied SimulationEventType = "deployment_applied"
)

// SimulationEvent is published on the event bus whenever the engine mutates
// state, so dashboards can react in real time
type SimulationEvent struct {
	ID            string              `json:"id"`
	EventType     SimulationEventType `json:"event_type"`
	DayIndex      int                 `json:"day_index"`
	AppointmentID string              `json:"appointment_id,omitempty"`
	StrategyID    string              `json:"strategy_id,omitempty"`
	Channel       Channel             `json:"channel,omitempty"`
	Outcome       Outcome             `json:"outcome,omitempty"`
	LiveRisk      float64             `json:"live_risk,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}
