package entities

// RiskBucket is one bar of the fixed five-bucket live-risk histogram
type RiskBucket struct {
	Label string `json:"bucket"`
	Count int    `json:"count"`
}

// StrategyRef names a strategy touching a day
type StrategyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PredVsObs compares the predicted and observed no-show rates of a fully
// settled day
type PredVsObs struct {
	DayIndex            int     `json:"day_index"`
	PredictedNoShowRate float64 `json:"pred_no_show_rate"`
	ObservedNoShowRate  float64 `json:"obs_no_show_rate"`
}

// RunningPredVsObs is the same comparison restricted to appointments already
// resolved on a day still in progress
type RunningPredVsObs struct {
	Completed           int     `json:"completed"`
	PredictedNoShowRate float64 `json:"pred_no_show_rate"`
	ObservedNoShowRate  float64 `json:"obs_no_show_rate"`
}

// VariantStats is the settled per-variant breakdown of a prior day
type VariantStats struct {
	Variant             Variant `json:"variant"`
	Count               int     `json:"count"`
	PredictedNoShowRate float64 `json:"pred_no_show_rate"`
	ObservedNoShowRate  float64 `json:"obs_no_show_rate"`
}

// StrategyOutcome is the per-strategy A/B result for a fully settled day
type StrategyOutcome struct {
	DayIndex     int            `json:"day_index"`
	StrategyID   string         `json:"strategy_id"`
	StrategyName string         `json:"strategy_name"`
	VariantStats []VariantStats `json:"variant_stats"`
}

// VariantProgress is the running state of one A/B arm on the current day
type VariantProgress struct {
	Total                  int     `json:"total"`
	Completed              int     `json:"completed"`
	ObservedAttendanceRate float64 `json:"observed_attendance_rate"`
	MeanLiveRisk           float64 `json:"mean_live_risk"`
}

// StrategyProgress is the running A/B comparison for one strategy on the
// current day
type StrategyProgress struct {
	StrategyID   string          `json:"strategy_id"`
	StrategyName string          `json:"strategy_name"`
	A            VariantProgress `json:"A"`
	B            VariantProgress `json:"B"`
}

// DaySummary aggregates one simulated day for display
type DaySummary struct {
	DayIndex int    `json:"day_index"`
	Date     string `json:"date_iso"`

	AvgBaselineRisk float64      `json:"avg_baseline_risk"`
	AvgLiveRisk     float64      `json:"avg_live_risk"`
	LiveRiskBuckets []RiskBucket `json:"dist_live"`

	StrategiesApplied []StrategyRef `json:"strategies_applied"`

	// Running stats, present only when the summarized day is today.
	ResolvedToday  *int              `json:"outcomes_recorded_today,omitempty"`
	AccuracyToday  *float64          `json:"accuracy_today,omitempty"`
	TodayPredVsObs *RunningPredVsObs `json:"today_pred_vs_obs,omitempty"`

	// Settled stats for the prior day, present only once every appointment
	// on that day has a resolved outcome.
	PrevDayPredVsObs *PredVsObs        `json:"pred_vs_obs,omitempty"`
	StrategyOutcomes []StrategyOutcome `json:"ab_outcomes,omitempty"`

	// Running per-strategy A/B comparison, present only for today.
	StrategyProgress []StrategyProgress `json:"ab_today,omitempty"`

	TodayIndex int `json:"today_index"`
}

// AppointmentSummary is the per-row listing shape for a day's appointment book
type AppointmentSummary struct {
	ID              string  `json:"id"`
	PatientName     string  `json:"patient_name"`
	Time            string  `json:"time"`
	LiveRisk        float64 `json:"live_risk"`
	PredictedNoShow bool    `json:"predicted_no_show"`
	Outcome         Outcome `json:"outcome"`
	Variant         Variant `json:"variant"`
}
