package entities

import (
	"time"

	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// Segment is the optional targeting predicate of a non-default strategy.
// Bounds are inclusive. Segmentation always evaluates baseline risk, never
// live risk, so targeting stays stable under later adjustments.
type Segment struct {
	AgeMin  int     `json:"age_min" db:"age_min"`
	AgeMax  int     `json:"age_max" db:"age_max"`
	RiskMin float64 `json:"risk_min" db:"risk_min"`
	RiskMax float64 `json:"risk_max" db:"risk_max"`
}

// Contains reports whether the given age and baseline risk fall inside the segment
func (s *Segment) Contains(age int, baselineRisk float64) bool {
	return age >= s.AgeMin && age <= s.AgeMax &&
		baselineRisk >= s.RiskMin && baselineRisk <= s.RiskMax
}

// VariantDefinition describes what one A/B arm does: which channel it uses
// and on which day offsets (relative to the appointment's day, negative =
// before) it acts.
type VariantDefinition struct {
	Channel       Channel `json:"channel"`
	ActionOffsets []int   `json:"action_offsets"`
}

// Strategy is a named outreach policy with an A/B experiment attached
type Strategy struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	IsDefault bool     `json:"is_default" db:"is_default"`
	Segment   *Segment `json:"segment,omitempty"`
	Split     float64  `json:"split" db:"split"`

	VariantA VariantDefinition `json:"variant_a"`
	VariantB VariantDefinition `json:"variant_b"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Matches reports whether the appointment falls in the strategy's targeting
// segment. An absent segment matches everything.
func (s *Strategy) Matches(a *Appointment) bool {
	if s.Segment == nil {
		return true
	}
	return s.Segment.Contains(a.Features.Age, a.BaselineRisk)
}

// Definition returns the variant definition for the given assignment.
// Unassigned falls back to arm A, mirroring the fallback the book keeps for
// appointments whose variant was never drawn.
func (s *Strategy) Definition(v Variant) VariantDefinition {
	if v == VariantB {
		return s.VariantB
	}
	return s.VariantA
}

// MaxOffsetWindow returns the largest absolute action offset across both arms
func (s *Strategy) MaxOffsetWindow() int {
	max := 0
	for _, offsets := range [][]int{s.VariantA.ActionOffsets, s.VariantB.ActionOffsets} {
		for _, off := range offsets {
			if off < 0 {
				off = -off
			}
			if off > max {
				max = off
			}
		}
	}
	return max
}

// Validate checks the strategy's configuration invariants
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return apperrors.NewValidationError("strategy name is required")
	}
	if s.Split < 0 || s.Split > 1 {
		return apperrors.NewConfigurationError("split must be within [0, 1]")
	}
	if s.IsDefault && s.Segment != nil {
		return apperrors.NewConfigurationError("default strategies must not define a segment")
	}
	if s.Segment != nil {
		if s.Segment.AgeMin > s.Segment.AgeMax {
			return apperrors.NewConfigurationError("segment age_min must not exceed age_max")
		}
		if s.Segment.RiskMin > s.Segment.RiskMax {
			return apperrors.NewConfigurationError("segment risk_min must not exceed risk_max")
		}
	}
	for _, def := range []VariantDefinition{s.VariantA, s.VariantB} {
		if def.Channel != ChannelSMS && def.Channel != ChannelCall {
			return apperrors.NewConfigurationError("variant channel must be sms or call")
		}
	}
	return nil
}

// Clone returns a deep copy of the strategy
func (s *Strategy) Clone() *Strategy {
	clone := *s
	if s.Segment != nil {
		seg := *s.Segment
		clone.Segment = &seg
	}
	clone.VariantA.ActionOffsets = append([]int(nil), s.VariantA.ActionOffsets...)
	clone.VariantB.ActionOffsets = append([]int(nil), s.VariantB.ActionOffsets...)
	return &clone
}
