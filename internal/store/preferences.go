package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

// GetPreferences returns the session's preferences, or nil when none are
// stored. Read failures are logged and reported as nil.
func (s *Store) GetPreferences(ctx context.Context, session Session) *models.UserPreferences {
	query := `
        SELECT theme, temperature_unit
        FROM user_preferences
        WHERE session_id = $1
    `

	var prefs models.UserPreferences
	err := s.db.QueryRowContext(ctx, query, session.ID).Scan(&prefs.Theme, &prefs.TemperatureUnit)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("Error fetching preferences",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		return nil
	}
	return &prefs
}

// SavePreferences upserts the single preferences row of the session.
func (s *Store) SavePreferences(ctx context.Context, session Session, prefs models.UserPreferences) error {
	query := `
        INSERT INTO user_preferences (session_id, theme, temperature_unit, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (session_id) DO UPDATE
        SET theme = excluded.theme,
            temperature_unit = excluded.temperature_unit,
            updated_at = excluded.updated_at
    `

	if _, err := s.db.ExecContext(ctx, query, session.ID, string(prefs.Theme), string(prefs.TemperatureUnit), s.now()); err != nil {
		s.logger.Error("Error saving preferences",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return fmt.Errorf("%w: saving preferences: %v", models.ErrStore, err)
	}
	return nil
}
