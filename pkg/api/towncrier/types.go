package towncrier

import (
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// Message represents a real-time message sent to clients
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionMessage represents a subscription request from client
type SubscriptionMessage struct {
	Action   string   `json:"action"`   // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // ["feed", "stream"]
}

// SubscriptionConfirmation represents a subscription confirmation response
type SubscriptionConfirmation struct {
	Type     string   `json:"type"`     // "subscription_confirmed" or "unsubscription_confirmed"
	Channels []string `json:"channels"` // Current subscribed channels
}

// MatchPayload is the denormalized post snapshot delivered on rule matches.
// Consumers get everything they render without a second lookup.
type MatchPayload struct {
	PostID       string          `json:"post_id"`
	RuleIDs      []string        `json:"rule_ids"`
	AuthorHandle string          `json:"author_handle"`
	Content      string          `json:"content"`
	Kind         models.PostKind `json:"kind"`
	Tone         models.Tone     `json:"tone"`
	Language     string          `json:"language"`
	CreatedAt    time.Time       `json:"created_at"`
	MatchedAt    time.Time       `json:"matched_at"`
}

// HubStats represents fan-out hub statistics
type HubStats struct {
	Connections          int            `json:"connections"`
	ChannelSubscriptions map[string]int `json:"channel_subscriptions"`
	Delivered            uint64         `json:"delivered"`
	Dropped              uint64         `json:"dropped"`
}

// Channel constants for subscription
const (
	ChannelFeed   = "feed"
	ChannelStream = "stream"
	ChannelAll    = "all"
)

// Message type constants
const (
	// Subscription management
	TypeSubscriptionConfirmed   = "subscription_confirmed"
	TypeUnsubscriptionConfirmed = "unsubscription_confirmed"

	// Simulation events
	TypePostCreated = "post.created"
	TypeStreamMatch = "stream.match"
)

// Subscription action constants
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// StartCrisisRequest starts a new simulated crisis
type StartCrisisRequest struct {
	Type             string  `json:"type" binding:"required"`
	Topic            string  `json:"topic" binding:"required"`
	Severity         string  `json:"severity" binding:"required"`
	Language         string  `json:"language,omitempty"`
	SpeedFactor      float64 `json:"speed_factor,omitempty"`
	BotAmplification float64 `json:"bot_amplification,omitempty"`
	OrganicActivity  float64 `json:"organic_activity,omitempty"`
	TargetViralRate  float64 `json:"target_viral_rate,omitempty"`
}

// SetPhaseRequest forces the crisis into a specific phase
type SetPhaseRequest struct {
	Phase string `json:"phase" binding:"required"`
}

// SetSpeedRequest changes the time acceleration factor
type SetSpeedRequest struct {
	Factor float64 `json:"factor" binding:"required"`
}

// CreateRuleRequest registers a new filtered-stream rule
type CreateRuleRequest struct {
	Name     string   `json:"name" binding:"required"`
	Keywords []string `json:"keywords" binding:"required"`
}

// EngineStats reports the simulation engine's counters
type EngineStats struct {
	Posts        int     `json:"posts"`
	Engagements  int     `json:"engagements"`
	PostsPerMin  float64 `json:"posts_per_min"`
	Paused       bool    `json:"paused"`
	TickInterval string  `json:"tick_interval"`
	SpeedFactor  float64 `json:"speed_factor"`
}

// CrisisStatusResponse is the full admin view of the simulation.
// Stats counts the current engine session; Totals counts everything
// persisted, including posts from previous runs.
type CrisisStatusResponse struct {
	Crisis *models.Crisis `json:"crisis,omitempty"`
	Phase  string         `json:"phase"`
	Stats  EngineStats    `json:"stats"`
	Totals PlatformTotals `json:"totals"`
	Hub    *HubStats      `json:"hub,omitempty"`
}

// PlatformTotals are database-wide counts
type PlatformTotals struct {
	Posts       int `json:"posts"`
	Engagements int `json:"engagements"`
}

// CascadeRunResponse reports a manually triggered cascade
type CascadeRunResponse struct {
	RootPostID         string `json:"root_post_id"`
	ReactionsCreated   int    `json:"reactions_created"`
	ReactionsAttempted int    `json:"reactions_attempted"`
	LikesCreated       int    `json:"likes_created"`
	ViewsAdded         int    `json:"views_added"`
	Fallback           bool   `json:"fallback"`
}

// SeedResponse reports the outcome of demo data seeding
type SeedResponse struct {
	ActorsCreated int `json:"actors_created"`
	RulesCreated  int `json:"rules_created"`
}

// RulesResponse lists the active filtered-stream rules
type RulesResponse struct {
	Rules []models.StreamRule `json:"rules"`
	Count int                 `json:"count"`
}

// PostsResponse is a page of recent posts for inspection
type PostsResponse struct {
	Posts []models.Post `json:"posts"`
	Count int           `json:"count"`
}

// ActorsResponse lists the actor cast, officials included
type ActorsResponse struct {
	Actors []models.Actor `json:"actors"`
	Count  int            `json:"count"`
}
