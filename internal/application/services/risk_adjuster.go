package services

import (
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// Multiplicative and additive live-risk adjustments. Factors below 1 lower
// the risk; the silence lift raises it.
const (
	SMSFactor     = 0.90
	CallFactor    = 0.80
	ConfirmFactor = 0.60

	SilenceThreshold = 0.40
	SilenceLift      = 0.05

	// ConfirmWindow is the trailing window in which an SMS confirmation
	// still counts toward the same-day reduction.
	ConfirmWindow = 12 * time.Hour
)

// RiskAdjuster applies live-risk adjustments in response to outreach and
// patient behavior. Adjustments touch live risk only; the baseline is frozen
// at creation.
type RiskAdjuster struct {
	// Now supplies the wall clock for the trailing confirmation window.
	Now func() time.Time
}

// NewRiskAdjuster creates an adjuster on the real clock
func NewRiskAdjuster() *RiskAdjuster {
	return &RiskAdjuster{Now: time.Now}
}

// ApplyComms applies the channel's multiplicative reduction after a
// communication is sent
func (r *RiskAdjuster) ApplyComms(a *entities.Appointment, channel entities.Channel) {
	factor := SMSFactor
	if channel == entities.ChannelCall {
		factor = CallFactor
	}
	a.LiveRisk = entities.RoundRisk(entities.ClampRisk(a.LiveRisk * factor))
}

// ApplyToday applies the same-day behavior heuristic: a recent SMS
// confirmation cuts the risk sharply, while silence on an already risky
// appointment nudges it up. Exactly one branch fires.
func (r *RiskAdjuster) ApplyToday(a *entities.Appointment) {
	if a.ConfirmedSMSWithin(r.Now(), ConfirmWindow) {
		a.LiveRisk = entities.RoundRisk(entities.ClampRisk(a.LiveRisk * ConfirmFactor))
		return
	}
	if a.LiveRisk > SilenceThreshold {
		a.LiveRisk = entities.RoundRisk(entities.ClampRisk(a.LiveRisk + SilenceLift))
	}
}
