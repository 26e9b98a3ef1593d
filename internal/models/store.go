package models

import "time"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitFahrenheit Unit = "fahrenheit"
)

// SavedCity is a favorite place owned by one session.
type SavedCity struct {
	ID          string    `json:"id" db:"id"`
	SessionID   string    `json:"-" db:"session_id"`
	CityName    string    `json:"city_name" db:"city_name"`
	CountryCode string    `json:"country_code" db:"country_code"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	IsDefault   bool      `json:"is_default" db:"is_default"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserPreferences holds the display settings of one session.
type UserPreferences struct {
	Theme           Theme `json:"theme" db:"theme"`
	TemperatureUnit Unit  `json:"temperature_unit" db:"temperature_unit"`
}

// DefaultCity returns the saved city flagged as default, if any.
func DefaultCity(cities []SavedCity) (SavedCity, bool) {
	for _, c := range cities {
		if c.IsDefault {
			return c, true
		}
	}
	return SavedCity{}, false
}
