// Package format renders raw weather fields for display.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// CelsiusToFahrenheit converts exactly, without rounding.
func CelsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// Temperature renders a Celsius value in the requested unit, rounded to the
// nearest integer.
func Temperature(celsius float64, unit models.Unit) string {
	value := celsius
	symbol := "C"
	if unit == models.UnitFahrenheit {
		value = CelsiusToFahrenheit(celsius)
		symbol = "F"
	}
	return fmt.Sprintf("%d°%s", int(roundHalfUp(value)), symbol)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Time renders HH:MM of an epoch timestamp at the given UTC offset.
func Time(timestamp int64, offset int) string {
	return time.Unix(timestamp+int64(offset), 0).UTC().Format("15:04")
}

// Date renders an epoch timestamp like "Mon, Jan 2" at the given UTC offset.
func Date(timestamp int64, offset int) string {
	return time.Unix(timestamp+int64(offset), 0).UTC().Format("Mon, Jan 2")
}

// LongDate renders the header date, e.g. "Monday, January 2, 2006".
func LongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// LocalTime renders HH:MM:SS of now at the given UTC offset.
func LocalTime(now time.Time, offset int) string {
	return now.UTC().Add(time.Duration(offset) * time.Second).Format("15:04:05")
}

func MetersToKilometers(meters int) string {
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// CapitalizeWords upper-cases the first letter of every space-separated word.
func CapitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// IconURL returns the provider image for an icon code.
func IconURL(icon string) string {
	return "https://openweathermap.org/img/wn/" + icon + "@2x.png"
}

// Background picks the page background class for a condition category.
func Background(category string, dark bool) string {
	switch strings.ToLower(category) {
	case "clear":
		return pick(dark, "bg-clear-dark", "bg-clear")
	case "clouds":
		return pick(dark, "bg-clouds-dark", "bg-clouds")
	case "rain", "drizzle":
		return pick(dark, "bg-rain-dark", "bg-rain")
	case "thunderstorm":
		return pick(dark, "bg-storm-dark", "bg-storm")
	case "snow":
		return pick(dark, "bg-snow-dark", "bg-snow")
	case "mist", "fog", "haze":
		return pick(dark, "bg-mist-dark", "bg-mist")
	default:
		return pick(dark, "bg-default-dark", "bg-default")
	}
}

func pick(dark bool, darkClass, lightClass string) string {
	if dark {
		return darkClass
	}
	return lightClass
}

func Percent(v float64) string {
	return fmt.Sprintf("%g%%", v)
}

func Pressure(hpa float64) string {
	return fmt.Sprintf("%g hPa", hpa)
}

func WindSpeed(ms float64) string {
	return fmt.Sprintf("%g m/s", ms)
}
