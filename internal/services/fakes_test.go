package services

import (
	"context"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/store"
)

type fakeWeather struct {
	mu       sync.Mutex
	targets  []models.Target
	current  func(ctx context.Context, t models.Target) (*models.CurrentConditions, error)
	forecast func(ctx context.Context, t models.Target) (*models.Forecast, error)
	search   func(ctx context.Context, q string) ([]models.Place, error)
	searches []string
}

func conditionsFor(t models.Target) *models.CurrentConditions {
	name := t.Name
	if t.ByCoords {
		name = "Coords " + t.String()
	}
	return &models.CurrentConditions{City: name, Country: "XX", Lat: t.Lat, Lon: t.Lon, Temperature: 20, Category: "Clear"}
}

func (f *fakeWeather) GetCurrentConditions(ctx context.Context, t models.Target) (*models.CurrentConditions, error) {
	f.mu.Lock()
	f.targets = append(f.targets, t)
	fn := f.current
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, t)
	}
	return conditionsFor(t), nil
}

func (f *fakeWeather) GetForecast(ctx context.Context, t models.Target) (*models.Forecast, error) {
	f.mu.Lock()
	fn := f.forecast
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, t)
	}
	return &models.Forecast{Days: []models.ForecastDay{{Date: 1, TempMin: 10, TempMax: 20}}}, nil
}

func (f *fakeWeather) SearchPlaces(ctx context.Context, q string) ([]models.Place, error) {
	f.mu.Lock()
	f.searches = append(f.searches, q)
	fn := f.search
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}
	return []models.Place{{Name: q}}, nil
}

func (f *fakeWeather) lastTarget() models.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.targets) == 0 {
		return models.Target{}
	}
	return f.targets[len(f.targets)-1]
}

func (f *fakeWeather) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

type fakeStore struct {
	mu        sync.Mutex
	prefs     *models.UserPreferences
	cities    []models.SavedCity
	nextID    int
	adds      int
	saveCalls int

	addErr, removeErr, defaultErr, savePrefsErr error

	// beforeSave runs ahead of every SavePreferences, outside the lock.
	beforeSave func(prefs models.UserPreferences)
}

func (s *fakeStore) GetPreferences(ctx context.Context, session store.Session) *models.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		return nil
	}
	p := *s.prefs
	return &p
}

func (s *fakeStore) SavePreferences(ctx context.Context, session store.Session, prefs models.UserPreferences) error {
	if s.beforeSave != nil {
		s.beforeSave(prefs)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.savePrefsErr != nil {
		return s.savePrefsErr
	}
	s.prefs = &prefs
	return nil
}

func (s *fakeStore) ListSavedCities(ctx context.Context, session store.Session) []models.SavedCity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SavedCity{}, s.cities...)
}

func (s *fakeStore) AddSavedCity(ctx context.Context, session store.Session, name, country string, lat, lon float64, makeDefault bool) (*models.SavedCity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	if s.addErr != nil {
		return nil, s.addErr
	}
	if makeDefault {
		for i := range s.cities {
			s.cities[i].IsDefault = false
		}
	}
	s.nextID++
	c := models.SavedCity{
		ID:          string(rune('a' + s.nextID - 1)),
		CityName:    name,
		CountryCode: country,
		Latitude:    lat,
		Longitude:   lon,
		IsDefault:   makeDefault,
	}
	s.cities = append(s.cities, c)
	return &c, nil
}

func (s *fakeStore) RemoveSavedCity(ctx context.Context, session store.Session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	out := s.cities[:0]
	for _, c := range s.cities {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.cities = out
	return nil
}

func (s *fakeStore) SetDefaultCity(ctx context.Context, session store.Session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultErr != nil {
		return s.defaultErr
	}
	for i := range s.cities {
		s.cities[i].IsDefault = s.cities[i].ID == id
	}
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
