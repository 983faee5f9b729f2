package cascade

import (
	"math/rand"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// severityFactors returns the panic factor and threat level stamped on
// crisis roots. Both track severity on a fixed table.
func severityFactors(s models.Severity) (panicFactor, threatLevel float64) {
	switch s {
	case models.SeverityHigh:
		return 0.9, 0.9
	case models.SeverityMedium:
		return 0.6, 0.6
	default:
		return 0.3, 0.3
	}
}

// viralCoefficient is a severity-weighted base with ±15% jitter, scaled by
// bot amplification. A positive base overrides the severity table (the
// crisis target viral rate); callers pass amplification 1.0 outside crisis
// mode.
func viralCoefficient(base float64, s models.Severity, botAmplification float64) float64 {
	if base <= 0 {
		base = 0.8
		switch s {
		case models.SeverityHigh:
			base = 2.5
		case models.SeverityMedium:
			base = 1.6
		}
	}
	if botAmplification <= 0 {
		botAmplification = 1.0
	}
	jitter := 1 + (rand.Float64()*0.3 - 0.15)
	return base * jitter * botAmplification
}

// rootTone maps severity to the root post's tone. Organic chatter is always
// neutral.
func rootTone(req Request) models.Tone {
	if req.Mode != ModeCrisis {
		return models.ToneNeutral
	}
	switch req.Severity {
	case models.SeverityHigh:
		return models.TonePanic
	case models.SeverityMedium:
		return models.ToneConcern
	default:
		return models.ToneNeutral
	}
}

// reactionTone derives a reaction's tone from the reacting personality.
func reactionTone(p models.Personality) models.Tone {
	switch p {
	case models.PersonalityAnxious, models.PersonalityImpulsive:
		if rand.Float64() < 0.7 {
			return models.TonePanic
		}
		return models.ToneAnger
	case models.PersonalitySkeptical, models.PersonalityAnalytical:
		return models.ToneFactual
	case models.PersonalityTrusting:
		if rand.Float64() < 0.5 {
			return models.ToneConcern
		}
		return models.ToneNeutral
	default:
		return models.ToneNeutral
	}
}

func emotionalWeight(t models.Tone) float64 {
	switch t {
	case models.TonePanic:
		return 0.9
	case models.ToneAnger:
		return 0.8
	case models.ToneConcern:
		return 0.6
	case models.ToneReassuring:
		return 0.5
	case models.ToneFactual:
		return 0.4
	default:
		return 0.2
	}
}

// reactionKind rolls the reaction type. Retweets and quotes are only valid
// against ORIGINAL parents; every reaction here targets the thread root, so
// the whole distribution is always available.
func reactionKind() models.PostKind {
	roll := rand.Float64()
	switch {
	case roll < 0.6:
		return models.PostReply
	case roll < 0.85:
		return models.PostRetweet
	default:
		return models.PostQuote
	}
}

// likeCount draws the number of LIKE engagements on a root: 3-5 for crisis
// threads, 0-2 for organic chatter.
func likeCount(mode Mode) int {
	if mode == ModeCrisis {
		return 3 + rand.Intn(3)
	}
	return rand.Intn(3)
}

// viewCount converts the root's viral coefficient into an anonymous view
// increment, bounded by the configured budget.
func viewCount(viral float64, budget int) int {
	if budget <= 0 || viral <= 0 {
		return 0
	}
	views := int(viral * viewsPerViralUnit * (0.75 + rand.Float64()*0.5))
	if views > budget {
		return budget
	}
	if views < 0 {
		return 0
	}
	return views
}
