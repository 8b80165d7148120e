package models

import "time"

// BatchChanged is the inbound event for a batch write. A nil After means the
// batch was deleted and the pipeline does nothing.
type BatchChanged struct {
	Before *Batch `json:"before,omitempty"`
	After  *Batch `json:"after,omitempty"`
}

// ProductChanged is the inbound event for a product (stock) write.
type ProductChanged struct {
	Before *Product `json:"before,omitempty"`
	After  *Product `json:"after,omitempty"`
}

// RiskChanged is the inbound event for a derived risk record write.
type RiskChanged struct {
	Before *RiskRecord `json:"before,omitempty"`
	After  *RiskRecord `json:"after,omitempty"`
}

// SweepTick triggers a full re-evaluation of every subject.
type SweepTick struct {
	AsOf time.Time `json:"as_of"`
}

// Message is a composed push notification addressed to a topic.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
	Topic string            `json:"topic"`
}
