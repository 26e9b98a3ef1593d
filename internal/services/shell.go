package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	"go.uber.org/zap"
)

const (
	MsgCityNotFound     = "City not found"
	MsgLoadFailed       = "Failed to load weather data"
	MsgAlreadySaved     = "City already saved"
	MsgSaveFailed       = "Failed to save city"
	MsgRemoveFailed     = "Failed to remove city"
	MsgSetDefaultFailed = "Failed to set default city"
)

// ErrNoWeather is returned when an action needs the shown city but nothing
// has been loaded yet.
var ErrNoWeather = errors.New("no weather loaded")

type WeatherClient interface {
	GetCurrentConditions(ctx context.Context, target models.Target) (*models.CurrentConditions, error)
	GetForecast(ctx context.Context, target models.Target) (*models.Forecast, error)
	SearchPlaces(ctx context.Context, query string) ([]models.Place, error)
}

// Store is the session-scoped persistence used by the shell.
type Store interface {
	GetPreferences(ctx context.Context, session store.Session) *models.UserPreferences
	SavePreferences(ctx context.Context, session store.Session, prefs models.UserPreferences) error
	ListSavedCities(ctx context.Context, session store.Session) []models.SavedCity
	AddSavedCity(ctx context.Context, session store.Session, name, country string, lat, lon float64, makeDefault bool) (*models.SavedCity, error)
	RemoveSavedCity(ctx context.Context, session store.Session, id string) error
	SetDefaultCity(ctx context.Context, session store.Session, id string) error
}

type Clock interface {
	Now() time.Time
}

type ShellOptions struct {
	FallbackCity    string
	ErrorClearDelay time.Duration
	SuggestDelay    time.Duration
	MinQueryLength  int
	PersistTimeout  time.Duration
}

func (o ShellOptions) withDefaults() ShellOptions {
	if o.FallbackCity == "" {
		o.FallbackCity = "Addis Ababa"
	}
	if o.ErrorClearDelay <= 0 {
		o.ErrorClearDelay = 3 * time.Second
	}
	if o.SuggestDelay <= 0 {
		o.SuggestDelay = 500 * time.Millisecond
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = 2
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	return o
}

// State is a copy of everything the dashboard renders.
type State struct {
	Current     *models.CurrentConditions `json:"current"`
	Forecast    []models.ForecastDay      `json:"forecast"`
	Loading     bool                      `json:"loading"`
	Error       string                    `json:"error,omitempty"`
	Theme       models.Theme              `json:"theme"`
	Unit        models.Unit               `json:"unit"`
	SavedCities []models.SavedCity        `json:"saved_cities"`
	Now         time.Time                 `json:"now"`
}

// Shell holds the dashboard state of one session and orchestrates the
// weather client and the store on its behalf.
type Shell struct {
	session store.Session
	weather WeatherClient
	store   Store
	clock   Clock
	logger  *zap.Logger
	opts    ShellOptions
	suggest *Suggester

	mu         sync.Mutex
	current    *models.CurrentConditions
	forecast   []models.ForecastDay
	loading    bool
	errMsg     string
	errSeq     uint64
	errTimer   *time.Timer
	theme      models.Theme
	unit       models.Unit
	saved      []models.SavedCity
	generation uint64
	prefsSeq   uint64

	started   chan struct{}
	startOnce sync.Once

	// persistMu orders preference writes; persistedSeq is the newest
	// toggle already handed to the store.
	persistMu    sync.Mutex
	persistedSeq uint64
	persist      sync.WaitGroup
}

func NewShell(session store.Session, weather WeatherClient, st Store, clock Clock, opts ShellOptions, logger *zap.Logger) *Shell {
	opts = opts.withDefaults()
	s := &Shell{
		session:  session,
		weather:  weather,
		store:    st,
		clock:    clock,
		logger:   logger.With(zap.String("session_id", session.ID)),
		opts:     opts,
		loading:  true,
		started:  make(chan struct{}),
		theme:    models.ThemeLight,
		unit:     models.UnitCelsius,
		forecast: []models.ForecastDay{},
		saved:    []models.SavedCity{},
	}
	s.suggest = NewSuggester(weather.SearchPlaces, opts.SuggestDelay, opts.MinQueryLength, s.logger)
	return s
}

// Start loads preferences and saved cities, then the weather of the default
// city or of the fallback city. prefersDark is used when no preferences are
// stored.
func (s *Shell) Start(ctx context.Context, prefersDark bool) error {
	defer s.startOnce.Do(func() { close(s.started) })

	if prefs := s.store.GetPreferences(ctx, s.session); prefs != nil {
		s.mu.Lock()
		s.theme = prefs.Theme
		s.unit = prefs.TemperatureUnit
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		if prefersDark {
			s.theme = models.ThemeDark
		} else {
			s.theme = models.ThemeLight
		}
		s.mu.Unlock()
	}

	cities := s.store.ListSavedCities(ctx, s.session)
	s.mu.Lock()
	s.saved = cities
	s.mu.Unlock()

	target := models.CityTarget(s.opts.FallbackCity)
	if def, ok := models.DefaultCity(cities); ok {
		target = models.CoordsTarget(def.Latitude, def.Longitude)
	}

	s.logger.Info("Starting dashboard", zap.Stringer("target", target))
	return s.load(ctx, target)
}

// Started is closed once the first Start call has returned.
func (s *Shell) Started() <-chan struct{} {
	return s.started
}

// ChangeCity loads the weather for a selection. A selection with both
// coordinates non-zero is fetched by coordinates, anything else by name.
func (s *Shell) ChangeCity(ctx context.Context, name string, lat, lon float64) error {
	if lat != 0 && lon != 0 {
		return s.load(ctx, models.CoordsTarget(lat, lon))
	}
	return s.load(ctx, models.CityTarget(name))
}

// LoadSavedCity shows the weather of one of the session's saved cities.
func (s *Shell) LoadSavedCity(ctx context.Context, id string) error {
	s.mu.Lock()
	var city *models.SavedCity
	for i := range s.saved {
		if s.saved[i].ID == id {
			c := s.saved[i]
			city = &c
			break
		}
	}
	s.mu.Unlock()

	if city == nil {
		return fmt.Errorf("saved city %s: %w", id, models.ErrNotFound)
	}
	return s.load(ctx, models.CoordsTarget(city.Latitude, city.Longitude))
}

// load fetches current conditions and forecast together. Only the newest
// load may apply its result; older ones are dropped when they finish.
func (s *Shell) load(ctx context.Context, target models.Target) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.clearErrorLocked()
	s.mu.Unlock()

	var (
		wg          sync.WaitGroup
		current     *models.CurrentConditions
		fc          *models.Forecast
		errCurrent  error
		errForecast error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, errCurrent = s.weather.GetCurrentConditions(ctx, target)
	}()
	go func() {
		defer wg.Done()
		fc, errForecast = s.weather.GetForecast(ctx, target)
	}()
	wg.Wait()

	err := errCurrent
	if err == nil {
		err = errForecast
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("Dropping superseded weather load", zap.Stringer("target", target))
		return nil
	}
	s.loading = false

	if err != nil {
		s.logger.Error("Failed to load weather", zap.Stringer("target", target), zap.Error(err))
		if errors.Is(err, models.ErrNotFound) {
			s.setErrorLocked(MsgCityNotFound, false)
		} else {
			s.setErrorLocked(MsgLoadFailed, false)
		}
		return err
	}

	s.current = current
	s.forecast = fc.Days
	return nil
}

// SaveCity adds the shown city to the session's favorites. The first saved
// city becomes the default.
func (s *Shell) SaveCity(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	existing := len(s.saved)
	duplicate := false
	if current != nil {
		for _, c := range s.saved {
			if c.CityName == current.City && c.CountryCode == current.Country {
				duplicate = true
				break
			}
		}
	}
	if current == nil {
		s.mu.Unlock()
		return ErrNoWeather
	}
	if duplicate {
		s.setErrorLocked(MsgAlreadySaved, true)
		s.mu.Unlock()
		return fmt.Errorf("%w: %s, %s already saved", models.ErrValidation, current.City, current.Country)
	}
	s.mu.Unlock()

	if _, err := s.store.AddSavedCity(ctx, s.session, current.City, current.Country, current.Lat, current.Lon, existing == 0); err != nil {
		s.setError(MsgSaveFailed)
		return err
	}
	s.reloadSaved(ctx)
	return nil
}

func (s *Shell) RemoveCity(ctx context.Context, id string) error {
	if err := s.store.RemoveSavedCity(ctx, s.session, id); err != nil {
		s.setError(MsgRemoveFailed)
		return err
	}
	s.reloadSaved(ctx)
	return nil
}

func (s *Shell) SetDefault(ctx context.Context, id string) error {
	if err := s.store.SetDefaultCity(ctx, s.session, id); err != nil {
		s.setError(MsgSetDefaultFailed)
		return err
	}
	s.reloadSaved(ctx)
	return nil
}

func (s *Shell) reloadSaved(ctx context.Context) {
	cities := s.store.ListSavedCities(ctx, s.session)
	s.mu.Lock()
	s.saved = cities
	s.mu.Unlock()
}

// ToggleTheme flips the theme right away and persists the preferences in
// the background. Persistence failures are only logged.
func (s *Shell) ToggleTheme() models.Theme {
	s.mu.Lock()
	if s.theme == models.ThemeDark {
		s.theme = models.ThemeLight
	} else {
		s.theme = models.ThemeDark
	}
	s.prefsSeq++
	seq := s.prefsSeq
	prefs := models.UserPreferences{Theme: s.theme, TemperatureUnit: s.unit}
	s.mu.Unlock()

	s.persistPreferences(seq, prefs)
	return prefs.Theme
}

// ToggleUnit flips between Celsius and Fahrenheit, persisting like
// ToggleTheme.
func (s *Shell) ToggleUnit() models.Unit {
	s.mu.Lock()
	if s.unit == models.UnitCelsius {
		s.unit = models.UnitFahrenheit
	} else {
		s.unit = models.UnitCelsius
	}
	s.prefsSeq++
	seq := s.prefsSeq
	prefs := models.UserPreferences{Theme: s.theme, TemperatureUnit: s.unit}
	s.mu.Unlock()

	s.persistPreferences(seq, prefs)
	return prefs.TemperatureUnit
}

// persistPreferences writes one toggle's snapshot. Writes run one at a time
// and a snapshot older than one already written is dropped, so the stored
// preferences always end at the latest toggle.
func (s *Shell) persistPreferences(seq uint64, prefs models.UserPreferences) {
	s.persist.Add(1)
	go func() {
		defer s.persist.Done()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if seq <= s.persistedSeq {
			return
		}
		s.persistedSeq = seq

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()

		if err := s.store.SavePreferences(ctx, s.session, prefs); err != nil {
			s.logger.Warn("Failed to persist preferences", zap.Error(err))
		}
	}()
}

// Suggest returns debounced place suggestions for the search box.
func (s *Shell) Suggest(ctx context.Context, query string) ([]models.Place, error) {
	return s.suggest.Suggest(ctx, query)
}

func (s *Shell) DismissError() {
	s.mu.Lock()
	s.clearErrorLocked()
	s.mu.Unlock()
}

func (s *Shell) setError(msg string) {
	s.mu.Lock()
	s.setErrorLocked(msg, false)
	s.mu.Unlock()
}

// setErrorLocked shows msg in the banner. Transient messages clear
// themselves after ErrorClearDelay unless replaced first.
func (s *Shell) setErrorLocked(msg string, transient bool) {
	s.clearErrorLocked()
	s.errMsg = msg
	if !transient {
		return
	}

	seq := s.errSeq
	s.errTimer = time.AfterFunc(s.opts.ErrorClearDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.errSeq == seq {
			s.clearErrorLocked()
		}
	})
}

func (s *Shell) clearErrorLocked() {
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
	s.errSeq++
	s.errMsg = ""
}

// State returns a snapshot safe to render outside the lock.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *models.CurrentConditions
	if s.current != nil {
		c := *s.current
		current = &c
	}

	forecast := make([]models.ForecastDay, len(s.forecast))
	copy(forecast, s.forecast)
	saved := make([]models.SavedCity, len(s.saved))
	copy(saved, s.saved)

	return State{
		Current:     current,
		Forecast:    forecast,
		Loading:     s.loading,
		Error:       s.errMsg,
		Theme:       s.theme,
		Unit:        s.unit,
		SavedCities: saved,
		Now:         s.clock.Now(),
	}
}

// Close abandons pending suggestions and waits for background preference
// writes.
func (s *Shell) Close() {
	s.suggest.Close()

	s.mu.Lock()
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
	s.mu.Unlock()

	s.persist.Wait()
}
