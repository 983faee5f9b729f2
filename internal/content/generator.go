package content

import (
	"context"
	"strings"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// MaxPostLength is the hard cap on generated post text, matching the
// platform's post length limit.
const MaxPostLength = 280

// Request describes a single piece of post text to generate. CrisisType is
// empty for organic chatter; ParentContent is set for replies and quotes so
// the text can respond to something concrete.
type Request struct {
	CrisisType    string
	Topic         string
	Severity      models.Severity
	Tone          models.Tone
	Kind          models.PostKind
	Language      string
	ParentContent string
	ActorHandle   string
	Personality   models.Personality
}

// Result carries the generated text. Fallback is true when the text came
// from the canned template banks rather than a live model.
type Result struct {
	Text     string
	Fallback bool
}

// Generator produces post text for the simulation. Implementations must be
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Failover tries a primary generator and falls back to a secondary when the
// primary is unavailable or fails. A nil primary means canned-only mode.
type Failover struct {
	primary  Generator
	fallback Generator
	logger   logging.Logger
}

// NewFailover wires a primary generator (usually LLM-backed, may be nil)
// in front of a fallback that must always succeed.
func NewFailover(primary, fallback Generator, logger logging.Logger) *Failover {
	return &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *Failover) Generate(ctx context.Context, req Request) (Result, error) {
	if f.primary != nil {
		result, err := f.primary.Generate(ctx, req)
		if err == nil && strings.TrimSpace(result.Text) != "" {
			return result, nil
		}
		if err != nil && f.logger != nil {
			f.logger.WithError(err).WithFields(logging.Fields{
				"crisis_type": req.CrisisType,
				"tone":        req.Tone,
			}).Warn("Primary content generator failed, using canned text")
		}
	}
	return f.fallback.Generate(ctx, req)
}

// capLength truncates text to at most max runes.
func capLength(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
