package store

import (
	"context"
	"errors"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/database"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// UpsertActor inserts an actor, keyed by handle. Returns false when an actor
// with the same handle already exists; the existing row is left untouched and
// its id is loaded into a.
func (s *Store) UpsertActor(ctx context.Context, a *models.Actor) (bool, error) {
	query := `
		INSERT INTO actors (handle, display_name, personality, is_bot, is_official, credibility_score, anxiety_level, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (handle) DO NOTHING
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		a.Handle, a.DisplayName, string(a.Personality), a.IsBot, a.IsOfficial,
		a.CredibilityScore, a.AnxietyLevel, a.Language,
	).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, database.ErrNoRows) {
		existing, lookupErr := s.GetActorByHandle(ctx, a.Handle)
		if lookupErr != nil {
			return false, lookupErr
		}
		*a = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetActorByHandle retrieves a single actor by its unique handle.
func (s *Store) GetActorByHandle(ctx context.Context, handle string) (*models.Actor, error) {
	query := `
		SELECT id, handle, display_name, personality, is_bot, is_official, credibility_score, anxiety_level, language, created_at
		FROM actors
		WHERE handle = $1
	`
	var a models.Actor
	err := s.db.QueryRowContext(ctx, query, handle).Scan(
		&a.ID, &a.Handle, &a.DisplayName, &a.Personality, &a.IsBot, &a.IsOfficial,
		&a.CredibilityScore, &a.AnxietyLevel, &a.Language, &a.CreatedAt,
	)
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListActors returns every actor, officials included.
func (s *Store) ListActors(ctx context.Context) ([]models.Actor, error) {
	query := `
		SELECT id, handle, display_name, personality, is_bot, is_official, credibility_score, anxiety_level, language, created_at
		FROM actors
		ORDER BY created_at ASC, handle ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []models.Actor
	for rows.Next() {
		var a models.Actor
		if err := rows.Scan(
			&a.ID, &a.Handle, &a.DisplayName, &a.Personality, &a.IsBot, &a.IsOfficial,
			&a.CredibilityScore, &a.AnxietyLevel, &a.Language, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// ListEligibleActors returns the actors allowed to participate in cascades.
// Official accounts are excluded.
func (s *Store) ListEligibleActors(ctx context.Context) ([]models.Actor, error) {
	query := `
		SELECT id, handle, display_name, personality, is_bot, is_official, credibility_score, anxiety_level, language, created_at
		FROM actors
		WHERE is_official = FALSE
		ORDER BY created_at ASC, handle ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []models.Actor
	for rows.Next() {
		var a models.Actor
		if err := rows.Scan(
			&a.ID, &a.Handle, &a.DisplayName, &a.Personality, &a.IsBot, &a.IsOfficial,
			&a.CredibilityScore, &a.AnxietyLevel, &a.Language, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// GetOfficialActor returns the oldest official account, or ErrNotFound when
// none is seeded.
func (s *Store) GetOfficialActor(ctx context.Context) (*models.Actor, error) {
	query := `
		SELECT id, handle, display_name, personality, is_bot, is_official, credibility_score, anxiety_level, language, created_at
		FROM actors
		WHERE is_official = TRUE
		ORDER BY created_at ASC
		LIMIT 1
	`
	var a models.Actor
	err := s.db.QueryRowContext(ctx, query).Scan(
		&a.ID, &a.Handle, &a.DisplayName, &a.Personality, &a.IsBot, &a.IsOfficial,
		&a.CredibilityScore, &a.AnxietyLevel, &a.Language, &a.CreatedAt,
	)
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountEligibleActors returns the number of actors that can participate in
// cascades. Officials are excluded, so a database holding only the static
// official accounts counts as empty.
func (s *Store) CountEligibleActors(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actors WHERE is_official = FALSE`).Scan(&count)
	return count, err
}
