package realtime

import (
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/stream"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// PostEvents is the slice of the broadcaster the pipeline publishes through.
type PostEvents interface {
	PostCreated(post models.Post)
	StreamMatched(match towncrier.MatchPayload)
}

// Pipeline is the delivery path for freshly persisted posts: each one goes
// out on the live feed and through the filtered-stream rules, with matches
// fanned out on the stream channel. It sits between the cascade generator
// and the broadcaster.
type Pipeline struct {
	events  PostEvents
	matcher *stream.Matcher
}

// NewPipeline wires post delivery. matcher may be nil when filtered streams
// are disabled.
func NewPipeline(events PostEvents, matcher *stream.Matcher) *Pipeline {
	return &Pipeline{events: events, matcher: matcher}
}

// PostCreated receives each post the cascade generator persists, in causal
// order.
func (p *Pipeline) PostCreated(post *models.Post) {
	if post == nil {
		return
	}
	p.events.PostCreated(*post)

	if p.matcher == nil {
		return
	}
	ruleIDs := p.matcher.Match(post.Content)
	if len(ruleIDs) == 0 {
		return
	}
	p.events.StreamMatched(towncrier.MatchPayload{
		PostID:       post.ID,
		RuleIDs:      ruleIDs,
		AuthorHandle: post.AuthorHandle,
		Content:      post.Content,
		Kind:         post.Kind,
		Tone:         post.Tone,
		Language:     post.Language,
		CreatedAt:    post.CreatedAt,
		MatchedAt:    time.Now().UTC(),
	})
}
