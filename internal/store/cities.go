package store

import (
	"context"
	"fmt"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListSavedCities returns the session's cities, oldest first. Read failures
// are logged and reported as an empty list.
func (s *Store) ListSavedCities(ctx context.Context, session Session) []models.SavedCity {
	query := `
        SELECT id, session_id, city_name, country_code, latitude, longitude, is_default, created_at
        FROM saved_cities
        WHERE session_id = $1
        ORDER BY created_at ASC, id ASC
    `

	cities, err := s.queryCities(ctx, query, session.ID)
	if err != nil {
		s.logger.Error("Error fetching saved cities",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return []models.SavedCity{}
	}
	return cities
}

func (s *Store) queryCities(ctx context.Context, query string, args ...interface{}) ([]models.SavedCity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := []models.SavedCity{}
	for rows.Next() {
		var c models.SavedCity
		if err := rows.Scan(&c.ID, &c.SessionID, &c.CityName, &c.CountryCode,
			&c.Latitude, &c.Longitude, &c.IsDefault, &c.CreatedAt); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// AddSavedCity inserts a city for the session. When makeDefault is set the
// default flag is first cleared on every other city of the session.
func (s *Store) AddSavedCity(ctx context.Context, session Session, name, country string, lat, lon float64, makeDefault bool) (*models.SavedCity, error) {
	if makeDefault {
		s.clearDefault(ctx, session)
	}

	city := &models.SavedCity{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		CityName:    name,
		CountryCode: country,
		Latitude:    lat,
		Longitude:   lon,
		IsDefault:   makeDefault,
		CreatedAt:   s.now(),
	}

	query := `
        INSERT INTO saved_cities (id, session_id, city_name, country_code, latitude, longitude, is_default, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	if _, err := s.db.ExecContext(ctx, query, city.ID, city.SessionID, city.CityName, city.CountryCode,
		city.Latitude, city.Longitude, city.IsDefault, city.CreatedAt); err != nil {
		s.logger.Error("Error adding saved city",
			zap.String("session_id", session.ID),
			zap.String("city", name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: adding saved city: %v", models.ErrStore, err)
	}
	return city, nil
}

// RemoveSavedCity deletes a city owned by the session. Ids owned by other
// sessions are left untouched.
func (s *Store) RemoveSavedCity(ctx context.Context, session Session, id string) error {
	query := `DELETE FROM saved_cities WHERE id = $1 AND session_id = $2`

	if _, err := s.db.ExecContext(ctx, query, id, session.ID); err != nil {
		s.logger.Error("Error removing saved city",
			zap.String("session_id", session.ID),
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("%w: removing saved city: %v", models.ErrStore, err)
	}
	return nil
}

// SetDefaultCity makes id the only default city of the session. A failure
// while clearing the previous default is logged and ignored.
func (s *Store) SetDefaultCity(ctx context.Context, session Session, id string) error {
	s.clearDefault(ctx, session)

	query := `UPDATE saved_cities SET is_default = $1 WHERE id = $2 AND session_id = $3`

	res, err := s.db.ExecContext(ctx, query, true, id, session.ID)
	if err != nil {
		s.logger.Error("Error setting default city",
			zap.String("session_id", session.ID),
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("%w: setting default city: %v", models.ErrStore, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("saved city %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Store) clearDefault(ctx context.Context, session Session) {
	query := `UPDATE saved_cities SET is_default = $1 WHERE session_id = $2`

	if _, err := s.db.ExecContext(ctx, query, false, session.ID); err != nil {
		s.logger.Warn("Error clearing default city",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
}
