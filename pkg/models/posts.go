package models

import (
	"time"
)

// PostKind distinguishes a root post from the reaction shapes.
type PostKind string

const (
	PostOriginal PostKind = "ORIGINAL"
	PostReply    PostKind = "REPLY"
	PostRetweet  PostKind = "RETWEET"
	PostQuote    PostKind = "QUOTE_TWEET"
)

// Tone is the emotional register of a post's content.
type Tone string

const (
	TonePanic      Tone = "PANIC"
	ToneAnger      Tone = "ANGER"
	ToneConcern    Tone = "CONCERN"
	ToneNeutral    Tone = "NEUTRAL"
	ToneReassuring Tone = "REASSURING"
	ToneFactual    Tone = "FACTUAL"
)

// Post is immutable once created except for its engagement counters, which
// are only ever incremented by later engagement/reaction creation. ParentID
// is nil for root posts and always references an earlier post: cascades only
// grow downward in time.
type Post struct {
	ID               string    `json:"id"`
	CrisisID         *string   `json:"crisis_id,omitempty"` // nil for organic chatter
	AuthorID         string    `json:"author_id"`
	AuthorHandle     string    `json:"author_handle,omitempty"` // denormalized for feed consumers
	ParentID         *string   `json:"parent_id,omitempty"`
	Kind             PostKind  `json:"kind"`
	Language         string    `json:"language"`
	Content          string    `json:"content"`
	Tone             Tone      `json:"tone"`
	IsMisinformation bool      `json:"is_misinformation"`
	PanicFactor      float64   `json:"panic_factor"`     // [0,1]
	ThreatLevel      float64   `json:"threat_level"`     // [0,1]
	EmotionalWeight  float64   `json:"emotional_weight"` // [0,1]
	ViralCoefficient float64   `json:"viral_coefficient"`
	LikeCount        int       `json:"like_count"`
	ReplyCount       int       `json:"reply_count"`
	RetweetCount     int       `json:"retweet_count"`
	ViewCount        int       `json:"view_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// EngagementType is the kind of lightweight interaction an actor can have
// with a post. Views are tracked as anonymous bulk counters; likes are
// attributed engagement rows.
type EngagementType string

const (
	EngagementLike EngagementType = "LIKE"
	EngagementView EngagementType = "VIEW"
)

// Engagement is a (post, actor, type) fact. Creating one increments the
// corresponding counter on the post.
type Engagement struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	ActorID   string         `json:"actor_id"`
	Type      EngagementType `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}
