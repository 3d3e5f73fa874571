package pricing

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidInterval = errors.New("end time must not be before start time")

// Calculator computes parking charges from elapsed time at a flat hourly rate.
type Calculator struct {
	hourlyRate float64
}

// NewCalculator creates a Calculator with the given hourly rate.
func NewCalculator(hourlyRate float64) *Calculator {
	return &Calculator{hourlyRate: hourlyRate}
}

// Charge returns the amount due for parking between start and end,
// rounded to two decimal places.
func (c *Calculator) Charge(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, ErrInvalidInterval
	}

	hours := end.Sub(start).Hours()
	return math.Round(hours*c.hourlyRate*100) / 100, nil
}
