package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultGeoURL  = "https://api.openweathermap.org/geo/1.0"

	searchLimit = 5
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	geoURL  string
}

type openWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherCurrentResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []openWeatherCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

type OpenWeatherForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

type geoDirectResponse []struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func NewOpenWeatherClient(apiKey, baseURL, geoURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if geoURL == "" {
		geoURL = DefaultGeoURL
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     apiKey,
		baseURL:    baseURL,
		geoURL:     geoURL,
	}
}

func (c *OpenWeatherClient) targetURL(endpoint string, target models.Target) string {
	values := url.Values{}
	if target.ByCoords {
		values.Set("lat", strconv.FormatFloat(target.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(target.Lon, 'f', -1, 64))
	} else {
		values.Set("q", target.Name)
	}
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	return fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, values.Encode())
}

// GetCurrentConditions fetches the current weather for a city name or a
// coordinate pair. An unknown city name yields models.ErrNotFound.
func (c *OpenWeatherClient) GetCurrentConditions(ctx context.Context, target models.Target) (*models.CurrentConditions, error) {
	data, err := c.Get(ctx, c.targetURL("weather", target))
	if err != nil {
		if !target.ByCoords && statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("city %q: %w", target.Name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", models.ErrUpstream, err)
	}
	if len(response.Weather) == 0 {
		return nil, fmt.Errorf("%w: response has no weather conditions", models.ErrUpstream)
	}

	return &models.CurrentConditions{
		Temperature: response.Main.Temp,
		FeelsLike:   response.Main.FeelsLike,
		TempMin:     response.Main.TempMin,
		TempMax:     response.Main.TempMax,
		Pressure:    response.Main.Pressure,
		Humidity:    response.Main.Humidity,
		Description: response.Weather[0].Description,
		Icon:        response.Weather[0].Icon,
		Category:    response.Weather[0].Main,
		WindSpeed:   response.Wind.Speed,
		Visibility:  response.Visibility,
		Sunrise:     response.Sys.Sunrise,
		Sunset:      response.Sys.Sunset,
		Timezone:    response.Timezone,
		City:        response.Name,
		Country:     response.Sys.Country,
		Lat:         response.Coord.Lat,
		Lon:         response.Coord.Lon,
		ObservedAt:  response.Dt,
	}, nil
}

// GetForecast fetches the 5-day/3-hour forecast and groups it into daily
// summaries using the city's own UTC offset.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, target models.Target) (*models.Forecast, error) {
	data, err := c.Get(ctx, c.targetURL("forecast", target))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var response OpenWeatherForecastResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse forecast response: %v", models.ErrUpstream, err)
	}

	samples := make([]models.ForecastSample, 0, len(response.List))
	for _, item := range response.List {
		sample := models.ForecastSample{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			sample.Description = item.Weather[0].Description
			sample.Icon = item.Weather[0].Icon
			sample.Category = item.Weather[0].Main
		}
		samples = append(samples, sample)
	}

	return &models.Forecast{
		City:     response.City.Name,
		Country:  response.City.Country,
		Timezone: response.City.Timezone,
		Days:     forecast.Daily(samples, forecast.Zone(response.City.Timezone)),
	}, nil
}

// SearchPlaces returns up to five geocoding candidates for query.
func (c *OpenWeatherClient) SearchPlaces(ctx context.Context, query string) ([]models.Place, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(searchLimit))
	values.Set("appid", c.apiKey)

	data, err := c.Get(ctx, fmt.Sprintf("%s/direct?%s", c.geoURL, values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}

	var response geoDirectResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search response: %v", models.ErrUpstream, err)
	}

	places := make([]models.Place, 0, len(response))
	for _, p := range response {
		if len(places) == searchLimit {
			break
		}
		places = append(places, models.Place{
			Name:    p.Name,
			Country: p.Country,
			State:   p.State,
			Lat:     p.Lat,
			Lon:     p.Lon,
		})
	}
	return places, nil
}
