package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/database"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// CreatePost inserts a post and, when it reacts to a parent, bumps the
// parent's reply or retweet counter in the same transaction. The caller
// assigns the post id.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO posts (id, crisis_id, author_id, parent_id, kind, language, content, tone, is_misinformation,
		                   panic_factor, threat_level, emotional_weight, viral_coefficient)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, query,
		p.ID, p.CrisisID, p.AuthorID, p.ParentID, string(p.Kind), p.Language,
		p.Content, string(p.Tone), p.IsMisinformation,
		p.PanicFactor, p.ThreatLevel, p.EmotionalWeight, p.ViralCoefficient,
	).Scan(&p.CreatedAt)
	if err != nil {
		return err
	}

	if p.ParentID != nil {
		counter := parentCounter(p.Kind)
		if counter != "" {
			update := fmt.Sprintf(`UPDATE posts SET %s = %s + 1 WHERE id = $1`, counter, counter)
			result, err := tx.ExecContext(ctx, update, *p.ParentID)
			if err != nil {
				return err
			}
			if err := requireRow(result); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// parentCounter maps a reaction kind to the counter it increments on the
// parent post. Original posts have no parent and increment nothing.
func parentCounter(kind models.PostKind) string {
	switch kind {
	case models.PostReply:
		return "reply_count"
	case models.PostRetweet, models.PostQuote:
		return "retweet_count"
	}
	return ""
}

// GetPost retrieves a post with its author handle.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT p.id, p.crisis_id, p.author_id, a.handle, p.parent_id, p.kind, p.language, p.content, p.tone, p.is_misinformation,
		       p.panic_factor, p.threat_level, p.emotional_weight, p.viral_coefficient,
		       p.like_count, p.reply_count, p.retweet_count, p.view_count, p.created_at
		FROM posts p
		JOIN actors a ON a.id = p.author_id
		WHERE p.id = $1
	`
	var p models.Post
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.CrisisID, &p.AuthorID, &p.AuthorHandle, &p.ParentID, &p.Kind, &p.Language,
		&p.Content, &p.Tone, &p.IsMisinformation,
		&p.PanicFactor, &p.ThreatLevel, &p.EmotionalWeight, &p.ViralCoefficient,
		&p.LikeCount, &p.ReplyCount, &p.RetweetCount, &p.ViewCount, &p.CreatedAt,
	)
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRecentPosts returns the newest posts first.
func (s *Store) ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT p.id, p.crisis_id, p.author_id, a.handle, p.parent_id, p.kind, p.language, p.content, p.tone, p.is_misinformation,
		       p.panic_factor, p.threat_level, p.emotional_weight, p.viral_coefficient,
		       p.like_count, p.reply_count, p.retweet_count, p.view_count, p.created_at
		FROM posts p
		JOIN actors a ON a.id = p.author_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.CrisisID, &p.AuthorID, &p.AuthorHandle, &p.ParentID, &p.Kind, &p.Language,
			&p.Content, &p.Tone, &p.IsMisinformation,
			&p.PanicFactor, &p.ThreatLevel, &p.EmotionalWeight, &p.ViralCoefficient,
			&p.LikeCount, &p.ReplyCount, &p.RetweetCount, &p.ViewCount, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// AddViews bulk-increments a post's view counter. Views are anonymous and
// never create engagement rows.
func (s *Store) AddViews(ctx context.Context, postID string, views int) error {
	if views <= 0 {
		return nil
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE posts SET view_count = view_count + $2 WHERE id = $1`, postID, views)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// CreateLike records an attributed like and bumps the post's like counter.
// Returns false when the actor already liked the post; the counter is not
// bumped twice.
func (s *Store) CreateLike(ctx context.Context, postID, actorID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO engagements (post_id, actor_id, engagement_type)
		VALUES ($1, $2, 'LIKE')
		ON CONFLICT (post_id, actor_id, engagement_type) DO NOTHING
	`, postID, actorID)
	if err != nil {
		return false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET like_count = like_count + 1 WHERE id = $1`, postID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// CountPosts returns the total number of posts.
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

// CountEngagements returns the total number of attributed engagements.
func (s *Store) CountEngagements(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM engagements`).Scan(&count)
	return count, err
}
