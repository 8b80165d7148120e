package clock

import (
	"fmt"
	"math"
	"time"
)

// Normalizer projects absolute instants onto civil dates in one fixed named
// timezone so that day arithmetic never depends on where the process runs.
type Normalizer struct {
	loc *time.Location
}

func New(tzName string) (*Normalizer, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Location returns the fixed zone used for all civil-date math.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// midnight truncates t to 00:00 of its civil date in the fixed zone.
func (n *Normalizer) midnight(t time.Time) time.Time {
	local := t.In(n.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, n.loc)
}

// CivilDayDiff returns the number of civil days from b to a (positive when a
// is later). Both instants are truncated to midnight in the fixed zone first;
// rounding absorbs DST shifts that make a "day" 23 or 25 hours long.
func (n *Normalizer) CivilDayDiff(a, b time.Time) int {
	diff := n.midnight(a).Sub(n.midnight(b))
	return int(math.Round(diff.Hours() / 24))
}
