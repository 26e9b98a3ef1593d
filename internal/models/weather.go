package models

import (
	"strconv"
	"time"
)

// CurrentConditions is the normalized snapshot of the weather at one place.
// It is replaced wholesale on every fetch.
type CurrentConditions struct {
	Temperature float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Pressure    float64 `json:"pressure"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Category    string  `json:"main"`
	WindSpeed   float64 `json:"wind_speed"`
	Visibility  int     `json:"visibility"`
	Sunrise     int64   `json:"sunrise"`
	Sunset      int64   `json:"sunset"`
	Timezone    int     `json:"timezone"` // UTC offset in seconds
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ObservedAt  int64   `json:"dt"`
}

// ForecastDay summarizes one calendar day of 3-hour samples.
type ForecastDay struct {
	Date        int64   `json:"date"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Category    string  `json:"main"`
}

// ForecastSample is one 3-hour entry of the provider's forecast list.
type ForecastSample struct {
	Timestamp   int64
	Temperature float64
	Description string
	Icon        string
	Category    string
}

// Time returns the sample timestamp in the given location.
func (s ForecastSample) Time(loc *time.Location) time.Time {
	return time.Unix(s.Timestamp, 0).In(loc)
}

// Forecast is the aggregated forecast for a place together with the
// offset that was used to group the samples into days.
type Forecast struct {
	City     string        `json:"city"`
	Country  string        `json:"country"`
	Timezone int           `json:"timezone"`
	Days     []ForecastDay `json:"days"`
}

// Place is a geocoding candidate.
type Place struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Target identifies what to fetch weather for: a free-text place name or a
// coordinate pair.
type Target struct {
	Name     string
	Lat, Lon float64
	ByCoords bool
}

// CityTarget returns a by-name target.
func CityTarget(name string) Target {
	return Target{Name: name}
}

// CoordsTarget returns a by-coordinates target.
func CoordsTarget(lat, lon float64) Target {
	return Target{Lat: lat, Lon: lon, ByCoords: true}
}

func (t Target) String() string {
	if t.ByCoords {
		return strconv.FormatFloat(t.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(t.Lon, 'f', 4, 64)
	}
	return t.Name
}
