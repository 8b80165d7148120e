package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCivilDayDiff(t *testing.T) {
	n, err := New("Asia/Kuala_Lumpur")
	require.NoError(t, err)

	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, n.Location())

	tests := []struct {
		name string
		a    time.Time
		want int
	}{
		{"same day", time.Date(2025, 3, 10, 23, 59, 0, 0, n.Location()), 0},
		{"five days ahead", time.Date(2025, 3, 15, 0, 0, 1, 0, n.Location()), 5},
		{"three days ahead", time.Date(2025, 3, 13, 8, 0, 0, 0, n.Location()), 3},
		{"yesterday", time.Date(2025, 3, 9, 23, 0, 0, 0, n.Location()), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.CivilDayDiff(tt.a, ref))
		})
	}
}

func TestCivilDayDiffTimezoneStable(t *testing.T) {
	n, err := New("Asia/Kuala_Lumpur")
	require.NoError(t, err)

	// 23:30 UTC on Mar 12 is already Mar 13 in Kuala Lumpur (UTC+8). The
	// classification must follow the fixed zone, not UTC or process-local time.
	expiry := time.Date(2025, 3, 12, 23, 30, 0, 0, time.UTC)
	ref := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, n.CivilDayDiff(expiry, ref))

	// Same instants expressed in another zone give the same answer.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 3, n.CivilDayDiff(expiry.In(ny), ref.In(ny)))
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Not/AZone")
	assert.Error(t, err)
}
