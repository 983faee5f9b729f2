package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/database"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// CreateCrisis inserts a new crisis row and loads the generated id and
// start time into c.
func (s *Store) CreateCrisis(ctx context.Context, c *models.Crisis) error {
	query := `
		INSERT INTO crises (crisis_type, topic, phase, severity, target_viral_rate, bot_amplification, organic_activity, speed_factor, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, started_at
	`
	return s.db.QueryRowContext(ctx, query,
		c.Type, c.Topic, string(c.Phase), string(c.Severity),
		c.TargetViralRate, c.BotAmplification, c.OrganicActivity, c.SpeedFactor, c.Language,
	).Scan(&c.ID, &c.StartedAt)
}

// GetCrisis retrieves a crisis by id.
func (s *Store) GetCrisis(ctx context.Context, id string) (*models.Crisis, error) {
	query := `
		SELECT id, crisis_type, topic, phase, severity, target_viral_rate, bot_amplification, organic_activity, speed_factor, language, started_at, resolved_at
		FROM crises
		WHERE id = $1
	`
	return s.scanCrisis(s.db.QueryRowContext(ctx, query, id))
}

// GetActiveCrisis returns the crisis currently producing content, or
// ErrNotFound when the platform is quiet.
func (s *Store) GetActiveCrisis(ctx context.Context) (*models.Crisis, error) {
	query := `
		SELECT id, crisis_type, topic, phase, severity, target_viral_rate, bot_amplification, organic_activity, speed_factor, language, started_at, resolved_at
		FROM crises
		WHERE phase NOT IN ('DORMANT', 'RESOLVED')
		ORDER BY started_at DESC
		LIMIT 1
	`
	return s.scanCrisis(s.db.QueryRowContext(ctx, query))
}

func (s *Store) scanCrisis(row *sql.Row) (*models.Crisis, error) {
	var c models.Crisis
	var resolvedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.Type, &c.Topic, &c.Phase, &c.Severity,
		&c.TargetViralRate, &c.BotAmplification, &c.OrganicActivity,
		&c.SpeedFactor, &c.Language, &c.StartedAt, &resolvedAt,
	)
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

// UpdateCrisisPhase moves a crisis to the given phase. Entering RESOLVED
// stamps resolved_at.
func (s *Store) UpdateCrisisPhase(ctx context.Context, id string, phase models.CrisisPhase) error {
	var query string
	if phase == models.PhaseResolved {
		query = `UPDATE crises SET phase = $2, resolved_at = NOW() WHERE id = $1`
	} else {
		query = `UPDATE crises SET phase = $2 WHERE id = $1`
	}
	result, err := s.db.ExecContext(ctx, query, id, string(phase))
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateCrisisSpeed changes the speed factor of a crisis.
func (s *Store) UpdateCrisisSpeed(ctx context.Context, id string, speedFactor float64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE crises SET speed_factor = $2 WHERE id = $1`, id, speedFactor)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ResetSimulation clears every crisis, post and engagement in one
// transaction. Actors and stream rules survive a reset.
func (s *Store) ResetSimulation(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM engagements`,
		`DELETE FROM posts`,
		`DELETE FROM crises`,
	} {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
