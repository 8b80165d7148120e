package kafka

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"inventory-alert-service/internal/models"
)

// The wire format tolerates sloppy producers: numeric fields may arrive as
// numbers, quoted numbers or garbage (decoded as zero), timestamps as RFC3339
// or epoch seconds. Missing required identifiers are left empty and the
// classifier skips the record.

type envelope struct {
	Kind   string          `json:"kind"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

type looseInt int

func (l *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if v, err := strconv.Atoi(string(b)); err == nil {
		*l = looseInt(v)
	} else {
		*l = 0
	}
	return nil
}

type looseFloat float64

func (l *looseFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		*l = looseFloat(v)
	} else {
		*l = 0
	}
	return nil
}

type looseTime time.Time

func (l *looseTime) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*l = looseTime(t)
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		*l = looseTime(time.Unix(secs, 0))
		return nil
	}
	*l = looseTime(time.Time{})
	return nil
}

type wireBatch struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	ExpiryDate  looseTime `json:"expiry_date"`
}

func (w *wireBatch) model() *models.Batch {
	if w == nil {
		return nil
	}
	return &models.Batch{
		ID:          w.ID,
		ProductID:   w.ProductID,
		BatchNumber: w.BatchNumber,
		ExpiryDate:  time.Time(w.ExpiryDate),
	}
}

type wireProduct struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	SubCategory  string   `json:"sub_category"`
	CurrentStock looseInt `json:"current_stock"`
	ReorderLevel looseInt `json:"reorder_level"`
}

func (w *wireProduct) model() *models.Product {
	if w == nil {
		return nil
	}
	return &models.Product{
		ID:           w.ID,
		Name:         w.Name,
		Category:     w.Category,
		SubCategory:  w.SubCategory,
		CurrentStock: int(w.CurrentStock),
		ReorderLevel: int(w.ReorderLevel),
	}
}

type wireRisk struct {
	ProductID string     `json:"product_id"`
	Level     string     `json:"level"`
	Score     looseFloat `json:"score"`
}

func (w *wireRisk) model() *models.RiskRecord {
	if w == nil {
		return nil
	}
	return &models.RiskRecord{ProductID: w.ProductID, Level: w.Level, Score: float64(w.Score)}
}

func decodeSide[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (e envelope) batchEvent() models.BatchChanged {
	return models.BatchChanged{
		Before: decodeSide[wireBatch](e.Before).model(),
		After:  decodeSide[wireBatch](e.After).model(),
	}
}

func (e envelope) productEvent() models.ProductChanged {
	return models.ProductChanged{
		Before: decodeSide[wireProduct](e.Before).model(),
		After:  decodeSide[wireProduct](e.After).model(),
	}
}

func (e envelope) riskEvent() models.RiskChanged {
	return models.RiskChanged{
		Before: decodeSide[wireRisk](e.Before).model(),
		After:  decodeSide[wireRisk](e.After).model(),
	}
}

// subjectID extracts an id for logging from whichever side is present.
func (e envelope) subjectID() string {
	var probe struct {
		ID        string `json:"id"`
		ProductID string `json:"product_id"`
	}
	side := e.After
	if len(side) == 0 {
		side = e.Before
	}
	_ = json.Unmarshal(side, &probe)
	if probe.ID != "" {
		return probe.ID
	}
	return probe.ProductID
}
