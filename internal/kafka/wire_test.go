package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductEventLenientNumerics(t *testing.T) {
	raw := `{
		"kind": "product_changed",
		"after": {"id": "p1", "name": "Gauze", "current_stock": "7", "reorder_level": "oops"}
	}`
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	ev := env.productEvent()
	require.NotNil(t, ev.After)
	assert.Nil(t, ev.Before)
	assert.Equal(t, 7, ev.After.CurrentStock, "quoted numbers decode")
	assert.Equal(t, 0, ev.After.ReorderLevel, "garbage decodes to zero")
}

func TestBatchEventTimestamps(t *testing.T) {
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": "batch_changed",
		"after": {"id": "b1", "product_id": "p1", "batch_number": "B-1", "expiry_date": "2025-06-06T00:00:00Z"}
	}`), &env))
	ev := env.batchEvent()
	require.NotNil(t, ev.After)
	assert.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), ev.After.ExpiryDate.UTC())

	// Epoch seconds are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": "batch_changed",
		"after": {"id": "b1", "expiry_date": 1749168000}
	}`), &env))
	ev = env.batchEvent()
	assert.Equal(t, int64(1749168000), ev.After.ExpiryDate.Unix())

	// Malformed dates decode to zero; the classifier then skips the record.
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": "batch_changed",
		"after": {"id": "b1", "expiry_date": "next tuesday"}
	}`), &env))
	ev = env.batchEvent()
	assert.True(t, ev.After.ExpiryDate.IsZero())
}

func TestDeletionYieldsNilAfter(t *testing.T) {
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": "batch_changed",
		"before": {"id": "b1"},
		"after": null
	}`), &env))
	ev := env.batchEvent()
	assert.Nil(t, ev.After)
	require.NotNil(t, ev.Before)
	assert.Equal(t, "b1", ev.Before.ID)
	assert.Equal(t, "b1", env.subjectID())
}

func TestRiskEventScore(t *testing.T) {
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": "risk_changed",
		"after": {"product_id": "p9", "level": "Medium", "score": 62}
	}`), &env))
	ev := env.riskEvent()
	require.NotNil(t, ev.After)
	assert.Equal(t, "Medium", ev.After.Level)
	assert.Equal(t, 62.0, ev.After.Score)
	assert.Equal(t, "p9", env.subjectID())
}
