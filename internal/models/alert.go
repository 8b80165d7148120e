package models

import (
	"errors"
	"time"
)

// ErrDuplicateAlert reports a creation suppressed by the deduplication
// invariant: an open alert for the same (subject, condition, stage) tuple
// already exists.
var ErrDuplicateAlert = errors.New("open alert already exists for this subject, condition and stage")

// ConditionType is the class of threshold an alert was raised for.
type ConditionType string

const (
	ConditionExpiry   ConditionType = "expiry"
	ConditionLowStock ConditionType = "lowStock"
	ConditionRisk     ConditionType = "risk"
)

// Expiry stages. Staging is exact-match on the day difference: days 1, 2, 4
// and anything beyond 5 raise no alert.
const (
	StageExpired   = "expired"
	StageFiveDays  = "5"
	StageThreeDays = "3"
)

// StageActive is the single stage of a lowStock condition.
const StageActive = "active"

// Risk stages are the qualitative levels themselves.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// Alert is the central mutable entity. Identity and condition/stage fields are
// immutable after creation; only the lifecycle flags and timestamps change.
type Alert struct {
	ID            string        `json:"id"`
	SubjectID     string        `json:"subject_id"`
	ProductID     string        `json:"product_id"`
	ConditionType ConditionType `json:"condition_type"`
	Stage         string        `json:"stage"`

	// Display snapshot captured at creation time, not live-synced.
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	BatchNumber string `json:"batch_number"`

	// Numeric context for the composer.
	CurrentStock int     `json:"current_stock"`
	ReorderLevel int     `json:"reorder_level"`
	RiskScore    float64 `json:"risk_score"`

	IsRead     bool `json:"is_read"`
	IsDone     bool `json:"is_done"`
	IsNotified bool `json:"is_notified"`

	NotifiedAt     time.Time  `json:"notified_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedReason string     `json:"resolved_reason,omitempty"`
}

// DedupKey is the uniqueness tuple: at most one open alert may exist per key.
func (a Alert) DedupKey() string {
	return a.SubjectID + "|" + string(a.ConditionType) + "|" + a.Stage
}

// Resolution reasons.
const (
	ReasonStockRestored = "Stock level restored above reorder level"
	ReasonMarkedDone    = "Marked done"
)
