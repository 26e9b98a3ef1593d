package api

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/bobby-s-dev/weather-dashboard/internal/format"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
)

//go:embed templates/index.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/index.html"))

// DashboardView is the shell state plus the display strings derived from it.
type DashboardView struct {
	services.State
	Display Display `json:"display"`
}

type Display struct {
	Date       string         `json:"date"`
	Dark       bool           `json:"dark"`
	Background string         `json:"background"`
	Current    *CurrentView   `json:"current,omitempty"`
	Forecast   []ForecastView `json:"forecast"`
}

type CurrentView struct {
	Location    string `json:"location"`
	LocalTime   string `json:"local_time"`
	Timezone    int    `json:"timezone"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	TempMin     string `json:"temp_min"`
	TempMax     string `json:"temp_max"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	WindSpeed   string `json:"wind_speed"`
	Visibility  string `json:"visibility"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	Saved       bool   `json:"saved"`
}

type ForecastView struct {
	Date        string `json:"date"`
	TempMin     string `json:"temp_min"`
	TempMax     string `json:"temp_max"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

// NewDashboardView formats a state snapshot for the page and the JSON API.
func NewDashboardView(state services.State) DashboardView {
	dark := state.Theme == models.ThemeDark
	d := Display{
		Date:       format.LongDate(state.Now),
		Dark:       dark,
		Background: format.Background("", dark),
		Forecast:   make([]ForecastView, 0, len(state.Forecast)),
	}

	if cur := state.Current; cur != nil {
		d.Background = format.Background(cur.Category, dark)
		d.Current = &CurrentView{
			Location:    cur.City + ", " + cur.Country,
			LocalTime:   format.LocalTime(state.Now, cur.Timezone),
			Timezone:    cur.Timezone,
			Temperature: format.Temperature(cur.Temperature, state.Unit),
			FeelsLike:   format.Temperature(cur.FeelsLike, state.Unit),
			TempMin:     format.Temperature(cur.TempMin, state.Unit),
			TempMax:     format.Temperature(cur.TempMax, state.Unit),
			Description: format.CapitalizeWords(cur.Description),
			IconURL:     format.IconURL(cur.Icon),
			Humidity:    format.Percent(cur.Humidity),
			Pressure:    format.Pressure(cur.Pressure),
			WindSpeed:   format.WindSpeed(cur.WindSpeed),
			Visibility:  format.MetersToKilometers(cur.Visibility),
			Sunrise:     format.Time(cur.Sunrise, cur.Timezone),
			Sunset:      format.Time(cur.Sunset, cur.Timezone),
			Saved:       isSaved(state.SavedCities, cur),
		}

		for _, day := range state.Forecast {
			d.Forecast = append(d.Forecast, ForecastView{
				Date:        format.Date(day.Date, cur.Timezone),
				TempMin:     format.Temperature(day.TempMin, state.Unit),
				TempMax:     format.Temperature(day.TempMax, state.Unit),
				Description: format.CapitalizeWords(day.Description),
				IconURL:     format.IconURL(day.Icon),
			})
		}
	}

	return DashboardView{State: state, Display: d}
}

func isSaved(saved []models.SavedCity, cur *models.CurrentConditions) bool {
	for _, c := range saved {
		if c.CityName == cur.City && c.CountryCode == cur.Country {
			return true
		}
	}
	return false
}

func renderPage(view DashboardView) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
