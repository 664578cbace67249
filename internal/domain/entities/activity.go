package entities

import "time"

// ActivityType classifies an activity log entry
type ActivityType string

const (
	ActivitySMS        ActivityType = "sms"
	ActivityCall       ActivityType = "call"
	ActivityReply      ActivityType = "reply"
	ActivityOutcome    ActivityType = "outcome"
	ActivityDeployment ActivityType = "deployment"
)

// ActivityEntry is one row of the global simulation log. It records both the
// day the event was sent and the day of the appointment it concerns, so the
// log can be filtered either way.
type ActivityEntry struct {
	ID                  string       `json:"id"`
	Timestamp           time.Time    `json:"ts"`
	SendDayIndex        int          `json:"send_day_index"`
	AppointmentDayIndex int          `json:"appointment_day_index"`
	AppointmentID       string       `json:"appointment_id"`
	PatientName         string       `json:"patient_name"`
	Type                ActivityType `json:"type"`
	Variant             Variant      `json:"variant"`
	Message             string       `json:"message"`
	Reply               ReplyStatus  `json:"reply,omitempty"`
	Outcome             Outcome      `json:"outcome,omitempty"`
}

// Clone returns a copy of the entry
func (e *ActivityEntry) Clone() *ActivityEntry {
	clone := *e
	return &clone
}
