package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	wclient "github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubWeather struct{}

func (stubWeather) GetCurrentConditions(ctx context.Context, t models.Target) (*models.CurrentConditions, error) {
	switch {
	case t.ByCoords:
		return &models.CurrentConditions{City: "Oslo", Country: "NO", Lat: t.Lat, Lon: t.Lon, Temperature: -3.4, Category: "Snow", Timezone: 3600}, nil
	case t.Name == "Nowhere":
		return nil, fmt.Errorf("city %q: %w", t.Name, models.ErrNotFound)
	case t.Name == "Broken":
		return nil, fmt.Errorf("%w: HTTP 500", models.ErrUpstream)
	}
	return &models.CurrentConditions{
		City:        t.Name,
		Country:     "ET",
		Lat:         9.03,
		Lon:         38.74,
		Temperature: 21.5,
		Description: "scattered clouds",
		Icon:        "03d",
		Category:    "Clouds",
		Visibility:  10000,
		Timezone:    10800,
	}, nil
}

func (stubWeather) GetForecast(ctx context.Context, t models.Target) (*models.Forecast, error) {
	return &models.Forecast{Days: []models.ForecastDay{
		{Date: 1710000000, TempMin: 12, TempMax: 24, Description: "light rain", Icon: "10d"},
	}}, nil
}

func (stubWeather) SearchPlaces(ctx context.Context, q string) ([]models.Place, error) {
	return []models.Place{{Name: "London", Country: "GB", Lat: 51.5, Lon: -0.12}}, nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return setupTestAppWith(t, stubWeather{})
}

func setupTestAppWith(t *testing.T, weather services.WeatherClient) *fiber.App {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	dashboard := services.NewDashboard(services.DashboardConfig{
		Shell: services.ShellOptions{
			ErrorClearDelay: time.Second,
			SuggestDelay:    10 * time.Millisecond,
		},
		IdleTTL: time.Minute,
	}, weather, st, services.NewTickClock(), zap.NewNop())

	t.Cleanup(func() {
		dashboard.Close()
		st.Close()
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(dashboard, nil, zap.NewNop()), zap.NewNop())
	return app
}

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
	header map[string]string
}

func (c *client) do(method, path, body string) (*http.Response, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	resp, err := c.app.Test(req, 5000)
	if err != nil {
		c.t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatal(err)
	}
	return resp, data
}

func (c *client) dashboard() DashboardView {
	c.t.Helper()
	resp, body := c.do(http.MethodGet, "/api/v1/dashboard", "")
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
	var view DashboardView
	if err := json.Unmarshal(body, &view); err != nil {
		c.t.Fatalf("invalid dashboard JSON: %v", err)
	}
	return view
}

func TestHealth(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}
	resp, body := c.do(http.MethodGet, "/api/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":"healthy"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestDashboardStartsWithFallbackCity(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t), header: map[string]string{"Sec-CH-Prefers-Color-Scheme": "dark"}}

	view := c.dashboard()
	if c.cookie == nil || c.cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if view.Current == nil || view.Current.City != "Addis Ababa" {
		t.Fatalf("expected fallback city, got %+v", view.Current)
	}
	if view.Theme != models.ThemeDark || !view.Display.Dark || view.Display.Background != "bg-clouds-dark" {
		t.Errorf("expected dark theme from client hint, got %+v", view.Display)
	}
	if view.Display.Current.Temperature != "22°C" || view.Display.Current.Visibility != "10.0 km" {
		t.Errorf("unexpected display %+v", view.Display.Current)
	}
	if len(view.Display.Forecast) != 1 || view.Display.Forecast[0].Description != "Light Rain" {
		t.Errorf("unexpected forecast %+v", view.Display.Forecast)
	}

	first := c.cookie.Value
	c.dashboard()
	if c.cookie.Value != first {
		t.Error("session cookie was replaced")
	}
}

func TestSaveCityFlow(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}
	c.dashboard()

	resp, body := c.do(http.MethodPost, "/api/v1/cities", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.StatusCode, body)
	}

	view := c.dashboard()
	if len(view.SavedCities) != 1 || !view.SavedCities[0].IsDefault || !view.Display.Current.Saved {
		t.Fatalf("expected one default saved city, got %+v", view.SavedCities)
	}

	resp, body = c.do(http.MethodPost, "/api/v1/cities", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for duplicate, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"success":false`) {
		t.Errorf("unexpected error body %s", body)
	}
	if got := c.dashboard().Error; got != services.MsgAlreadySaved {
		t.Errorf("expected %q, got %q", services.MsgAlreadySaved, got)
	}

	id := view.SavedCities[0].ID
	resp, _ = c.do(http.MethodPost, "/api/v1/cities/"+id+"/load", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	resp, _ = c.do(http.MethodDelete, "/api/v1/cities/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if got := len(c.dashboard().SavedCities); got != 0 {
		t.Errorf("expected no saved cities, got %d", got)
	}
}

func TestSetDefaultUnknownCity(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}
	c.dashboard()

	resp, _ := c.do(http.MethodPut, "/api/v1/cities/does-not-exist/default", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if got := c.dashboard().Error; got != services.MsgSetDefaultFailed {
		t.Errorf("expected %q, got %q", services.MsgSetDefaultFailed, got)
	}
}

func TestChangeCity(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		city   string
	}{
		{"by name", `{"name":"Lalibela"}`, http.StatusOK, "Lalibela"},
		{"by coordinates", `{"name":"Oslo","lat":59.91,"lon":10.75}`, http.StatusOK, "Oslo"},
		{"not found", `{"name":"Nowhere"}`, http.StatusNotFound, ""},
		{"upstream failure", `{"name":"Broken"}`, http.StatusBadGateway, ""},
		{"empty", `{"name":"  "}`, http.StatusBadRequest, ""},
		{"latitude out of range", `{"name":"X","lat":100,"lon":1}`, http.StatusBadRequest, ""},
		{"malformed", `{"name":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, app: setupTestApp(t)}
			resp, body := c.do(http.MethodPost, "/api/v1/city", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
			if tt.city == "" {
				return
			}
			var view DashboardView
			if err := json.Unmarshal(body, &view); err != nil {
				t.Fatal(err)
			}
			if view.Current == nil || view.Current.City != tt.city {
				t.Errorf("expected %s, got %+v", tt.city, view.Current)
			}
		})
	}
}

func TestChangeCityNotFoundKeepsWeather(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}
	c.dashboard()

	resp, _ := c.do(http.MethodPost, "/api/v1/city", `{"name":"Nowhere"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}

	view := c.dashboard()
	if view.Error != services.MsgCityNotFound {
		t.Errorf("expected %q, got %q", services.MsgCityNotFound, view.Error)
	}
	if view.Current == nil || view.Current.City != "Addis Ababa" {
		t.Errorf("prior weather lost: %+v", view.Current)
	}

	resp, _ = c.do(http.MethodDelete, "/api/v1/error", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.StatusCode)
	}
	if got := c.dashboard().Error; got != "" {
		t.Errorf("banner not dismissed: %q", got)
	}
}

func TestSuggestions(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}

	_, body := c.do(http.MethodGet, "/api/v1/suggestions?q=L", "")
	var short struct {
		Suggestions []models.Place `json:"suggestions"`
	}
	if err := json.Unmarshal(body, &short); err != nil {
		t.Fatal(err)
	}
	if short.Suggestions == nil || len(short.Suggestions) != 0 {
		t.Errorf("expected empty suggestions, got %s", body)
	}

	resp, body := c.do(http.MethodGet, "/api/v1/suggestions?q=Lo", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"name":"London"`) {
		t.Errorf("unexpected suggestions %s", body)
	}
}

func TestTogglePreferences(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}

	_, body := c.do(http.MethodPost, "/api/v1/preferences/theme", "")
	if !strings.Contains(string(body), `"theme":"dark"`) {
		t.Errorf("unexpected theme response %s", body)
	}
	_, body = c.do(http.MethodPost, "/api/v1/preferences/unit", "")
	if !strings.Contains(string(body), `"unit":"fahrenheit"`) {
		t.Errorf("unexpected unit response %s", body)
	}

	view := c.dashboard()
	if view.Display.Current.Temperature != "71°F" {
		t.Errorf("expected fahrenheit display, got %s", view.Display.Current.Temperature)
	}
}

func TestPage(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}

	resp, body := c.do(http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
	for _, want := range []string{"Weather Dashboard", "Addis Ababa, ET", "Scattered Clouds", "No saved cities yet."} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestUnknownEndpoint(t *testing.T) {
	c := &client{t: t, app: setupTestApp(t)}
	resp, _ := c.do(http.MethodGet, "/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: London, GB already saved", models.ErrValidation), http.StatusBadRequest, "London, GB already saved"},
		{fmt.Errorf("city: %w", models.ErrNotFound), http.StatusNotFound, services.MsgCityNotFound},
		{fmt.Errorf("%w: Get \"http://api/weather?appid=SECRET\": timeout", models.ErrUpstream), http.StatusBadGateway, services.MsgLoadFailed},
		{fmt.Errorf("%w: locked", models.ErrStore), http.StatusInternalServerError, "Failed to access storage"},
		{fiber.NewError(http.StatusTeapot, "tea"), http.StatusTeapot, "tea"},
		{errors.New("other"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		err := tt.err
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
		app.Get("/", func(c *fiber.Ctx) error { return err })

		resp, e := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if e != nil {
			t.Fatal(e)
		}
		if resp.StatusCode != tt.status {
			t.Errorf("%v: expected status %d, got %d", tt.err, tt.status, resp.StatusCode)
		}

		var body struct {
			Error   string `json:"error"`
			Success bool   `json:"success"`
		}
		if e := json.NewDecoder(resp.Body).Decode(&body); e != nil {
			t.Fatal(e)
		}
		if body.Error != tt.message || body.Success {
			t.Errorf("%v: expected error %q, got %+v", tt.err, tt.message, body)
		}
	}
}

func TestUpstreamFailureHidesAPIKey(t *testing.T) {
	weather := wclient.NewOpenWeatherClient(
		"SUPERSECRETKEY",
		"http://127.0.0.1:1/data/2.5",
		"http://127.0.0.1:1/geo/1.0",
		wclient.ClientConfig{Timeout: time.Second},
		zap.NewNop(),
	)
	c := &client{t: t, app: setupTestAppWith(t, weather)}

	resp, body := c.do(http.MethodPost, "/api/v1/city", `{"name":"London"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "SUPERSECRETKEY") || strings.Contains(string(body), "appid") {
		t.Errorf("response exposes the upstream URL: %s", body)
	}

	_, body = c.do(http.MethodGet, "/", "")
	if strings.Contains(string(body), "SUPERSECRETKEY") {
		t.Errorf("page exposes the upstream URL")
	}
}
