package store

import (
	"context"

	"github.com/lib/pq"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// CreateRule inserts a stream rule and loads the generated id and creation
// time into r.
func (s *Store) CreateRule(ctx context.Context, r *models.StreamRule) error {
	query := `
		INSERT INTO stream_rules (name, keywords)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return s.db.QueryRowContext(ctx, query, r.Name, pq.Array(r.Keywords)).Scan(&r.ID, &r.CreatedAt)
}

// ListRules returns every stream rule, oldest first.
func (s *Store) ListRules(ctx context.Context) ([]models.StreamRule, error) {
	query := `
		SELECT id, name, keywords, created_at
		FROM stream_rules
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.StreamRule
	for rows.Next() {
		var r models.StreamRule
		if err := rows.Scan(&r.ID, &r.Name, pq.Array(&r.Keywords), &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeleteRule removes a stream rule. Posts already matched stay matched;
// deletion only affects future posts.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stream_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
