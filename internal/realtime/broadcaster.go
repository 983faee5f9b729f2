package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/metrics"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/kafka"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// EventProducer is the Kafka egress the broadcaster publishes through.
type EventProducer interface {
	PublishEvent(event *kafka.PlatformEvent) error
}

// Broadcaster fans simulation events out to WebSocket subscribers and,
// when a producer is configured, to the platform event bus. Kafka delivery
// is best-effort; a broker outage never blocks the engine.
type Broadcaster struct {
	hub      *Hub
	producer EventProducer
	source   string
	metrics  *metrics.Metrics
	logger   logging.Logger
}

// NewBroadcaster creates a broadcaster. producer may be nil when Kafka
// egress is disabled; serviceMetrics may be nil.
func NewBroadcaster(hub *Hub, producer EventProducer, source string, serviceMetrics *metrics.Metrics, logger logging.Logger) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		producer: producer,
		source:   source,
		metrics:  serviceMetrics,
		logger:   logger,
	}
}

func (b *Broadcaster) publish(event *kafka.PlatformEvent) error {
	start := time.Now()
	err := b.producer.PublishEvent(event)

	if b.metrics != nil && b.metrics.KafkaMessages != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		b.metrics.KafkaMessages.WithLabelValues(kafka.TopicPlatformEvents, "produce", status).Inc()
		b.metrics.KafkaDuration.WithLabelValues("produce").Observe(time.Since(start).Seconds())
	}
	return err
}

// Hub exposes the underlying hub for stats reporting.
func (b *Broadcaster) Hub() *Hub {
	return b.hub
}

// PostCreated announces a freshly persisted post.
func (b *Broadcaster) PostCreated(post models.Post) {
	b.hub.BroadcastPost(post)

	if b.producer == nil {
		return
	}

	event := kafka.NewPlatformEvent(uuid.New().String(), kafka.EventPostCreated, b.source).
		WithPost(post.ID, post.AuthorID).
		WithData(map[string]interface{}{
			"kind":              string(post.Kind),
			"tone":              string(post.Tone),
			"language":          post.Language,
			"is_misinformation": post.IsMisinformation,
			"viral_coefficient": post.ViralCoefficient,
		})
	if post.CrisisID != nil {
		event = event.WithCrisis(*post.CrisisID)
	}

	if err := b.publish(event); err != nil {
		b.logger.WithError(err).WithField("post_id", post.ID).Warn("Failed to publish post event")
	}
}

// StreamMatched announces that a post matched the filtered stream rules.
func (b *Broadcaster) StreamMatched(match towncrier.MatchPayload) {
	b.hub.BroadcastMatch(match)

	if b.producer == nil {
		return
	}

	event := kafka.NewPlatformEvent(uuid.New().String(), kafka.EventStreamMatch, b.source).
		WithData(map[string]interface{}{
			"post_id":       match.PostID,
			"rule_ids":      match.RuleIDs,
			"author_handle": match.AuthorHandle,
			"tone":          string(match.Tone),
		})
	if err := b.publish(event); err != nil {
		b.logger.WithError(err).WithField("post_id", match.PostID).Warn("Failed to publish stream match event")
	}
}

// CrisisPhaseChanged announces a crisis lifecycle transition.
func (b *Broadcaster) CrisisPhaseChanged(crisis models.Crisis, from models.CrisisPhase) {
	if b.producer == nil {
		return
	}

	event := kafka.NewPlatformEvent(uuid.New().String(), kafka.EventCrisisPhaseChanged, b.source).
		WithCrisis(crisis.ID).
		WithData(map[string]interface{}{
			"from":     string(from),
			"to":       string(crisis.Phase),
			"severity": string(crisis.Severity),
			"topic":    crisis.Topic,
		})
	if err := b.publish(event); err != nil {
		b.logger.WithError(err).WithField("crisis_id", crisis.ID).Warn("Failed to publish phase change event")
	}
}

// CrisisStarted announces a new simulation run.
func (b *Broadcaster) CrisisStarted(crisis models.Crisis) {
	if b.producer == nil {
		return
	}

	event := kafka.NewPlatformEvent(uuid.New().String(), kafka.EventCrisisStarted, b.source).
		WithCrisis(crisis.ID).
		WithData(map[string]interface{}{
			"crisis_type": crisis.Type,
			"topic":       crisis.Topic,
			"severity":    string(crisis.Severity),
			"language":    crisis.Language,
		})
	if err := b.publish(event); err != nil {
		b.logger.WithError(err).WithField("crisis_id", crisis.ID).Warn("Failed to publish crisis start event")
	}
}

// SimulationReset announces that the platform was wiped back to quiet.
func (b *Broadcaster) SimulationReset() {
	if b.producer == nil {
		return
	}

	event := kafka.NewPlatformEvent(uuid.New().String(), kafka.EventCrisisReset, b.source)
	if err := b.publish(event); err != nil {
		b.logger.WithError(err).Warn("Failed to publish reset event")
	}
}
