package testutil

import (
	"database/sql/driver"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// Fixtures provides test data fixtures for engine and database testing
type Fixtures struct{}

// NewFixtures creates a new fixtures helper
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// fixtureTime is a stable timestamp so row expectations are deterministic.
var fixtureTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// FixtureTime returns the base timestamp used by all fixtures.
func (f *Fixtures) FixtureTime() time.Time {
	return fixtureTime
}

// ActorPool creates one actor per personality plus a bot, covering both
// languages. Handles are stable so tests can assert on them.
func (f *Fixtures) ActorPool() []models.Actor {
	return []models.Actor{
		{
			ID:               "actor-anxious-1",
			Handle:           "naija_mama_ng",
			DisplayName:      "Mama Chidinma",
			Personality:      models.PersonalityAnxious,
			CredibilityScore: 0.35,
			AnxietyLevel:     0.9,
			Language:         "pcm",
			CreatedAt:        fixtureTime,
		},
		{
			ID:               "actor-skeptical-1",
			Handle:           "lagos_analyst",
			DisplayName:      "Tunde O.",
			Personality:      models.PersonalitySkeptical,
			CredibilityScore: 0.8,
			AnxietyLevel:     0.2,
			Language:         "en",
			CreatedAt:        fixtureTime,
		},
		{
			ID:               "actor-trusting-1",
			Handle:           "blessing_xo",
			DisplayName:      "Blessing",
			Personality:      models.PersonalityTrusting,
			CredibilityScore: 0.5,
			AnxietyLevel:     0.5,
			Language:         "en",
			CreatedAt:        fixtureTime,
		},
		{
			ID:               "actor-analytical-1",
			Handle:           "data_dey",
			DisplayName:      "Emeka Data",
			Personality:      models.PersonalityAnalytical,
			CredibilityScore: 0.85,
			AnxietyLevel:     0.1,
			Language:         "en",
			CreatedAt:        fixtureTime,
		},
		{
			ID:               "actor-impulsive-1",
			Handle:           "gbedu_master",
			DisplayName:      "Gbedu",
			Personality:      models.PersonalityImpulsive,
			CredibilityScore: 0.3,
			AnxietyLevel:     0.7,
			Language:         "pcm",
			CreatedAt:        fixtureTime,
		},
		{
			ID:               "actor-bot-1",
			Handle:           "breaking_naija_247",
			DisplayName:      "Breaking Naija 24/7",
			Personality:      models.PersonalityImpulsive,
			IsBot:            true,
			CredibilityScore: 0.1,
			AnxietyLevel:     0.8,
			Language:         "en",
			CreatedAt:        fixtureTime,
		},
	}
}

// OfficialActor creates a verified institutional account. Officials never
// join cascades.
func (f *Fixtures) OfficialActor() models.Actor {
	return models.Actor{
		ID:               "actor-official-1",
		Handle:           "ZenithBank",
		DisplayName:      "Zenith Bank",
		Personality:      models.PersonalityAnalytical,
		IsOfficial:       true,
		CredibilityScore: 0.95,
		AnxietyLevel:     0.0,
		Language:         "en",
		CreatedAt:        fixtureTime,
	}
}

// ActiveCrisis creates a HIGH severity bank run crisis in its spreading phase.
func (f *Fixtures) ActiveCrisis() models.Crisis {
	return models.Crisis{
		ID:               "crisis-zenith-1",
		Type:             models.CrisisBankInsolvency,
		Topic:            "Zenith Bank",
		Phase:            models.PhaseEscalating,
		Severity:         models.SeverityHigh,
		TargetViralRate:  2.5,
		BotAmplification: 1.5,
		OrganicActivity:  0.3,
		SpeedFactor:      1.0,
		Language:         "en",
		StartedAt:        fixtureTime,
	}
}

// ResolvedCrisis creates a crisis that has completed its lifecycle.
func (f *Fixtures) ResolvedCrisis() models.Crisis {
	resolved := fixtureTime.Add(2 * time.Hour)
	c := f.ActiveCrisis()
	c.ID = "crisis-zenith-0"
	c.Phase = models.PhaseResolved
	c.ResolvedAt = &resolved
	return c
}

// RootPost creates the misinformation post that anchors a cascade.
func (f *Fixtures) RootPost() models.Post {
	crisisID := "crisis-zenith-1"
	return models.Post{
		ID:               "post-root-1",
		CrisisID:         &crisisID,
		AuthorID:         "actor-bot-1",
		AuthorHandle:     "breaking_naija_247",
		Kind:             models.PostOriginal,
		Language:         "en",
		Content:          "BREAKING: Zenith Bank don close!!! Withdraw your money NOW before e too late!!!",
		Tone:             models.TonePanic,
		IsMisinformation: true,
		PanicFactor:      0.9,
		ThreatLevel:      0.9,
		EmotionalWeight:  0.9,
		ViralCoefficient: 2.5,
		CreatedAt:        fixtureTime,
	}
}

// ReplyTo creates a reply reacting to the given parent post.
func (f *Fixtures) ReplyTo(parent models.Post) models.Post {
	return models.Post{
		ID:               "post-reply-1",
		CrisisID:         parent.CrisisID,
		AuthorID:         "actor-anxious-1",
		AuthorHandle:     "naija_mama_ng",
		ParentID:         &parent.ID,
		Kind:             models.PostReply,
		Language:         "pcm",
		Content:          "Chai! My pikin school fees dey that account o! God abeg!",
		Tone:             models.TonePanic,
		PanicFactor:      0.8,
		ThreatLevel:      0.7,
		EmotionalWeight:  0.9,
		ViralCoefficient: 1.2,
		CreatedAt:        fixtureTime.Add(30 * time.Second),
	}
}

// OrganicPost creates background chatter unrelated to any crisis.
func (f *Fixtures) OrganicPost() models.Post {
	return models.Post{
		ID:               "post-organic-1",
		AuthorID:         "actor-trusting-1",
		AuthorHandle:     "blessing_xo",
		Kind:             models.PostOriginal,
		Language:         "en",
		Content:          "This Lagos traffic today is something else, two hours on Third Mainland",
		Tone:             models.ToneNeutral,
		PanicFactor:      0.1,
		ThreatLevel:      0.0,
		EmotionalWeight:  0.2,
		ViralCoefficient: 0.3,
		CreatedAt:        fixtureTime,
	}
}

// ZenithWatchRule creates a stream rule matching Zenith Bank chatter.
func (f *Fixtures) ZenithWatchRule() models.StreamRule {
	return models.StreamRule{
		ID:        "rule-zenith-1",
		Name:      "Zenith Watch",
		Keywords:  []string{"zenith", "bank close"},
		CreatedAt: fixtureTime,
	}
}

// GetPostColumns returns the column names for post queries, author handle
// joined in.
func (f *Fixtures) GetPostColumns() []string {
	return []string{
		"id", "crisis_id", "author_id", "handle", "parent_id", "kind", "language",
		"content", "tone", "is_misinformation",
		"panic_factor", "threat_level", "emotional_weight", "viral_coefficient",
		"like_count", "reply_count", "retweet_count", "view_count", "created_at",
	}
}

// GetPostRowData returns sqlmock row data for a given Post model
func (f *Fixtures) GetPostRowData(p models.Post) []driver.Value {
	return []driver.Value{
		p.ID, nullableString(p.CrisisID), p.AuthorID, p.AuthorHandle, nullableString(p.ParentID), string(p.Kind), p.Language,
		p.Content, string(p.Tone), p.IsMisinformation,
		p.PanicFactor, p.ThreatLevel, p.EmotionalWeight, p.ViralCoefficient,
		p.LikeCount, p.ReplyCount, p.RetweetCount, p.ViewCount, p.CreatedAt,
	}
}

// GetActorColumns returns the column names for actor queries
func (f *Fixtures) GetActorColumns() []string {
	return []string{
		"id", "handle", "display_name", "personality", "is_bot", "is_official",
		"credibility_score", "anxiety_level", "language", "created_at",
	}
}

// GetActorRowData returns sqlmock row data for a given Actor model
func (f *Fixtures) GetActorRowData(a models.Actor) []driver.Value {
	return []driver.Value{
		a.ID, a.Handle, a.DisplayName, string(a.Personality), a.IsBot, a.IsOfficial,
		a.CredibilityScore, a.AnxietyLevel, a.Language, a.CreatedAt,
	}
}

// GetCrisisColumns returns the column names for crisis queries
func (f *Fixtures) GetCrisisColumns() []string {
	return []string{
		"id", "crisis_type", "topic", "phase", "severity",
		"target_viral_rate", "bot_amplification", "organic_activity",
		"speed_factor", "language", "started_at", "resolved_at",
	}
}

// GetCrisisRowData returns sqlmock row data for a given Crisis model
func (f *Fixtures) GetCrisisRowData(c models.Crisis) []driver.Value {
	var resolvedAt driver.Value
	if c.ResolvedAt != nil {
		resolvedAt = *c.ResolvedAt
	}
	return []driver.Value{
		c.ID, c.Type, c.Topic, string(c.Phase), string(c.Severity),
		c.TargetViralRate, c.BotAmplification, c.OrganicActivity,
		c.SpeedFactor, c.Language, c.StartedAt, resolvedAt,
	}
}

// nullableString converts an optional string field into a driver value.
func nullableString(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}

// NullStringValue represents a nullable string value for SQL mocking
type NullStringValue struct {
	String string
	Valid  bool
}

// Match implements sqlmock.Argument interface
func (n NullStringValue) Match(v driver.Value) bool {
	switch val := v.(type) {
	case string:
		return n.Valid && val == n.String
	case nil:
		return !n.Valid
	default:
		return false
	}
}
