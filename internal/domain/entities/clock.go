package entities

import "time"

// SimulationClock is the engine's day pointer. StartDate is fixed at
// initialization; TodayIndex only ever advances, by exactly one, during a
// day-advance.
type SimulationClock struct {
	TodayIndex int       `json:"today_index" db:"today_index"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
}

// DateForDay returns the calendar date of a simulated day index
func (c *SimulationClock) DateForDay(dayIndex int) time.Time {
	return c.StartDate.AddDate(0, 0, dayIndex)
}

// DayIndexFor returns the simulated day index of a calendar date
func (c *SimulationClock) DayIndexFor(date time.Time) int {
	return int(date.Sub(c.StartDate).Hours() / 24)
}

// Clone returns a copy of the clock
func (c *SimulationClock) Clone() *SimulationClock {
	clone := *c
	return &clone
}
