package entities

import "time"

// Deployment is a one-time instruction to apply a list of strategies to every
// appointment on a target day
type Deployment struct {
	ID          string    `json:"id" db:"id"`
	TargetDay   int       `json:"target_day" db:"target_day"`
	StrategyIDs []string  `json:"strategy_ids"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Clone returns a deep copy of the deployment
func (d *Deployment) Clone() *Deployment {
	clone := *d
	clone.StrategyIDs = append([]string(nil), d.StrategyIDs...)
	return &clone
}
