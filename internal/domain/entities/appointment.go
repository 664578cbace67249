package entities

import (
	"math"
	"time"
)

// Outcome represents the resolved attendance state of an appointment
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeAttended Outcome = "attended"
	OutcomeNoShow   Outcome = "no_show"
)

// Variant represents the A/B arm an appointment is assigned to
type Variant string

const (
	VariantUnassigned Variant = ""
	VariantA          Variant = "A"
	VariantB          Variant = "B"
)

// Channel represents an outreach channel
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelCall Channel = "call"
)

// ReplyStatus is the structured reply state of a communication. It replaces
// free-text note inspection for confirmation detection.
type ReplyStatus string

const (
	ReplyPending   ReplyStatus = "pending"
	ReplyConfirmed ReplyStatus = "confirmed"
	ReplyDeclined  ReplyStatus = "declined"
	ReplyNone      ReplyStatus = "no_reply"
)

// Risk bounds. Risks are clamped away from 0 and 1 so no appointment is ever
// treated as a certainty.
const (
	RiskFloor   = 0.01
	RiskCeiling = 0.99

	// PredictionThreshold converts a risk into a predicted no-show label.
	PredictionThreshold = 0.50
)

// PatientFeatures is the fixed feature bag consumed by the external scorer.
// The engine never interprets these beyond passing them through.
type PatientFeatures struct {
	Age         int     `json:"age" db:"age"`
	PrevNoShows int     `json:"prev_no_shows" db:"prev_no_shows"`
	DistanceKM  float64 `json:"distance_km" db:"distance_km"`
	SlotHour    int     `json:"slot_hour" db:"slot_hour"`
	NewPatient  bool    `json:"new_patient" db:"new_patient"`
	Weekday     int     `json:"weekday" db:"weekday"`
}

// CommsEntry is one communication event in an appointment's log. Append-only.
type CommsEntry struct {
	ID           string      `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	SendDayIndex int         `json:"send_day_index"`
	Channel      Channel     `json:"channel"`
	Variant      Variant     `json:"variant"`
	Note         string      `json:"note"`
	Reply        ReplyStatus `json:"reply"`
}

// Appointment represents one scheduled patient visit in the simulated book
type Appointment struct {
	ID           string          `json:"id" db:"id"`
	PatientName  string          `json:"patient_name" db:"patient_name"`
	DayIndex     int             `json:"day_index" db:"day_index"`
	ScheduledAt  time.Time       `json:"scheduled_at" db:"scheduled_at"`
	Features     PatientFeatures `json:"features"`
	BaselineRisk float64         `json:"baseline_risk" db:"baseline_risk"`
	LiveRisk     float64         `json:"live_risk" db:"live_risk"`

	Variant            Variant      `json:"variant" db:"variant"`
	AppliedStrategyIDs []string     `json:"applied_strategy_ids"`
	CommsLog           []CommsEntry `json:"comms_log"`
	Outcome            Outcome      `json:"outcome" db:"outcome"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PredictedNoShow reports the current predicted label from the live risk
func (a *Appointment) PredictedNoShow() bool {
	return a.LiveRisk >= PredictionThreshold
}

// HasAppliedStrategy reports whether the strategy already targeted this appointment
func (a *Appointment) HasAppliedStrategy(strategyID string) bool {
	for _, id := range a.AppliedStrategyIDs {
		if id == strategyID {
			return true
		}
	}
	return false
}

// ConfirmedSMSWithin reports whether an SMS communication was confirmed within
// the trailing window ending at now
func (a *Appointment) ConfirmedSMSWithin(now time.Time, window time.Duration) bool {
	cutoff := now.Add(-window)
	for _, entry := range a.CommsLog {
		if entry.Channel == ChannelSMS && entry.Reply == ReplyConfirmed && !entry.Timestamp.Before(cutoff) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share mutable state with the store
func (a *Appointment) Clone() *Appointment {
	clone := *a
	clone.AppliedStrategyIDs = append([]string(nil), a.AppliedStrategyIDs...)
	clone.CommsLog = append([]CommsEntry(nil), a.CommsLog...)
	return &clone
}

// ClampRisk clamps a risk value to the [RiskFloor, RiskCeiling] safety band
func ClampRisk(v float64) float64 {
	return math.Max(RiskFloor, math.Min(RiskCeiling, v))
}

// RoundRisk rounds a risk to three decimal places, matching the precision the
// rest of the pipeline reports
func RoundRisk(v float64) float64 {
	return math.Round(v*1000) / 1000
}
