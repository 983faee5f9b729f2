// Package seed provisions the demo cast and default stream rules the
// simulation needs before a first cascade can run.
package seed

import (
	"context"
	"fmt"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/stream"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// Storage is the slice of the store the seeder writes through.
type Storage interface {
	UpsertActor(ctx context.Context, a *models.Actor) (bool, error)
	CountEligibleActors(ctx context.Context) (int, error)
	ListRules(ctx context.Context) ([]models.StreamRule, error)
	CreateRule(ctx context.Context, r *models.StreamRule) error
}

// ActorCache is notified when the actor population changes so cached pools
// are re-read on the next cascade.
type ActorCache interface {
	InvalidateActors()
}

// Seeder writes the demo population and default rules. Seeding is
// idempotent: actors upsert by handle, rules are skipped when a rule with
// the same name already exists.
type Seeder struct {
	storage Storage
	cache   ActorCache
	matcher *stream.Matcher
	logger  logging.Logger
}

func New(storage Storage, cache ActorCache, matcher *stream.Matcher, logger logging.Logger) *Seeder {
	return &Seeder{
		storage: storage,
		cache:   cache,
		matcher: matcher,
		logger:  logger,
	}
}

// Seed writes the demo cast and default rules, reporting only what was
// actually created. Newly created rules start matching immediately.
func (s *Seeder) Seed(ctx context.Context) (*towncrier.SeedResponse, error) {
	resp := &towncrier.SeedResponse{}

	for _, actor := range DemoActors() {
		a := actor
		inserted, err := s.storage.UpsertActor(ctx, &a)
		if err != nil {
			return nil, fmt.Errorf("seed actor %s: %w", actor.Handle, err)
		}
		if inserted {
			resp.ActorsCreated++
		}
	}
	if resp.ActorsCreated > 0 && s.cache != nil {
		s.cache.InvalidateActors()
	}

	existing, err := s.storage.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.Name] = true
	}
	for _, rule := range DefaultRules() {
		if seen[rule.Name] {
			continue
		}
		r := rule
		if err := s.storage.CreateRule(ctx, &r); err != nil {
			return nil, fmt.Errorf("seed rule %s: %w", rule.Name, err)
		}
		if s.matcher != nil {
			s.matcher.AddRule(r)
		}
		resp.RulesCreated++
	}

	s.logger.WithFields(logging.Fields{
		"actors_created": resp.ActorsCreated,
		"rules_created":  resp.RulesCreated,
	}).Info("Demo data seeded")
	return resp, nil
}

// SeedIfEmpty seeds only when no cascade-eligible actors exist yet. Boot
// path for SEED_ON_BOOT deployments; a populated database is left alone.
// The static official accounts applied with the schema do not count.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (*towncrier.SeedResponse, error) {
	count, err := s.storage.CountEligibleActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("count actors: %w", err)
	}
	if count > 0 {
		return &towncrier.SeedResponse{}, nil
	}
	return s.Seed(ctx)
}
