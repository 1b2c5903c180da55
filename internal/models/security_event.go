package models

import (
	"time"
)

// SecurityEvent stores a denial or escalation decided by the admission
// engine so it can be audited after the fact. Rows are written off the
// request path and pruned after the retention window.
type SecurityEvent struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UUID       string    `json:"uuid" gorm:"uniqueIndex"`
	Identifier string    `json:"identifier" gorm:"index"`
	RuleClass  string    `json:"rule_class"`
	Reason     string    `json:"reason"` // blocked, rate_limited, burst_detected
	Details    string    `json:"details" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
