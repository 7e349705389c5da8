package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahurangi/trapnz-mirror/internal/model"
)

// UpsertVolunteer stores or replaces a volunteer keyed by name.
func (s *Store) UpsertVolunteer(ctx context.Context, volunteer model.Volunteer) error {
	query := s.rebind(`
		INSERT INTO volunteers (name, preferences) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET preferences = excluded.preferences
	`)
	if _, err := s.db.ExecContext(ctx, query, volunteer.Name, volunteer.Preferences); err != nil {
		return fmt.Errorf("failed to upsert volunteer %s: %w", volunteer.Name, err)
	}
	return nil
}

// GetVolunteer returns the volunteer with the given name, or nil if
// none is stored.
func (s *Store) GetVolunteer(ctx context.Context, name string) (*model.Volunteer, error) {
	query := s.rebind(`SELECT name, preferences FROM volunteers WHERE name = ?`)

	var volunteer model.Volunteer
	err := s.db.QueryRowContext(ctx, query, name).Scan(&volunteer.Name, &volunteer.Preferences)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer %s: %w", name, err)
	}
	return &volunteer, nil
}

// GetVolunteers returns all stored volunteers ordered by name.
func (s *Store) GetVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, preferences FROM volunteers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		var volunteer model.Volunteer
		if err := rows.Scan(&volunteer.Name, &volunteer.Preferences); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer row: %w", err)
		}
		volunteers = append(volunteers, volunteer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return volunteers, nil
}
