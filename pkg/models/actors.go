package models

import (
	"time"
)

// Personality biases the tone and timing of an actor's generated reactions.
type Personality string

const (
	PersonalityAnxious    Personality = "ANXIOUS"
	PersonalitySkeptical  Personality = "SKEPTICAL"
	PersonalityTrusting   Personality = "TRUSTING"
	PersonalityAnalytical Personality = "ANALYTICAL"
	PersonalityImpulsive  Personality = "IMPULSIVE"
)

// Personalities lists every defined personality in a stable order.
var Personalities = []Personality{
	PersonalityAnxious,
	PersonalitySkeptical,
	PersonalityTrusting,
	PersonalityAnalytical,
	PersonalityImpulsive,
}

// Valid reports whether p is one of the defined personalities.
func (p Personality) Valid() bool {
	switch p {
	case PersonalityAnxious, PersonalitySkeptical, PersonalityTrusting,
		PersonalityAnalytical, PersonalityImpulsive:
		return true
	}
	return false
}

// Posting languages understood by the content layer. Anything else falls
// back to English.
const (
	LanguageEnglish = "en"
	LanguagePidgin  = "pcm"
)

// Actor represents a simulated platform account. Actors are created by the
// seeding layer; the simulation engine only reads them.
type Actor struct {
	ID               string      `json:"id"`
	Handle           string      `json:"handle"`
	DisplayName      string      `json:"display_name"`
	Personality      Personality `json:"personality"`
	IsBot            bool        `json:"is_bot"`
	IsOfficial       bool        `json:"is_official"` // verified/official accounts never join cascades
	CredibilityScore float64     `json:"credibility_score"`
	AnxietyLevel     float64     `json:"anxiety_level"`
	Language         string      `json:"language"` // preferred posting language, e.g. "en", "pcm"
	CreatedAt        time.Time   `json:"created_at"`
}
