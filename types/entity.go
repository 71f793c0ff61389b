// Package types provides the value types shared across the demurrage ledger.
package types

import "time"

// Entity is the base type for persisted records with timestamps.
// Embed this in domain types to get timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped at now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch moves UpdatedAt forward to now. It never moves it backward.
func (e *Entity) Touch(now time.Time) {
	now = now.UTC()
	if now.After(e.UpdatedAt) {
		e.UpdatedAt = now
	}
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
