// Package forecast turns the provider's 3-hour forecast samples into daily
// summaries.
package forecast

import (
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// MaxDays caps the number of daily summaries returned by Daily.
const MaxDays = 5

// Daily groups samples by calendar date in loc, keeping the order in which
// dates are first seen, and summarizes at most MaxDays of them.
//
// The representative sample of a day is the one at index len/2 of that day's
// group; its timestamp and descriptive fields are copied. Min and max are
// taken over every sample of the day.
func Daily(samples []models.ForecastSample, loc *time.Location) []models.ForecastDay {
	if loc == nil {
		loc = time.UTC
	}

	var order []string
	groups := make(map[string][]models.ForecastSample)

	for _, s := range samples {
		key := s.Time(loc).Format("2006-01-02")
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	if len(order) > MaxDays {
		order = order[:MaxDays]
	}

	days := make([]models.ForecastDay, 0, len(order))
	for _, key := range order {
		days = append(days, summarize(groups[key]))
	}
	return days
}

func summarize(group []models.ForecastSample) models.ForecastDay {
	mid := group[MidpointIndex(len(group))]

	minTemp, maxTemp := group[0].Temperature, group[0].Temperature
	for _, s := range group[1:] {
		if s.Temperature < minTemp {
			minTemp = s.Temperature
		}
		if s.Temperature > maxTemp {
			maxTemp = s.Temperature
		}
	}

	return models.ForecastDay{
		Date:        mid.Timestamp,
		TempMin:     minTemp,
		TempMax:     maxTemp,
		Description: mid.Description,
		Icon:        mid.Icon,
		Category:    mid.Category,
	}
}

// MidpointIndex is the representative index for a group of n samples,
// lower-biased for even n.
func MidpointIndex(n int) int {
	return n / 2
}

// Zone returns the fixed zone for a provider UTC offset in seconds.
func Zone(offset int) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", offset)
}
