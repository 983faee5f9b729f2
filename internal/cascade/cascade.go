package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/content"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/cache"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// Mode selects between crisis-driven cascades and background chatter.
type Mode string

const (
	ModeCrisis  Mode = "crisis"
	ModeOrganic Mode = "organic"
)

const (
	actorPoolKey      = "actors:eligible"
	defaultActorTTL   = 30 * time.Second
	viewsPerViralUnit = 50
)

var (
	// ErrNoActors means the actor table has no eligible participants; the
	// simulation cannot produce threads until seeding runs.
	ErrNoActors = errors.New("no eligible actors available")

	// ErrRootPersist wraps a root post write failure. The whole thread is
	// abandoned when the root cannot be stored.
	ErrRootPersist = errors.New("root post persistence failed")
)

// Request describes one cascade run. The caller resolves the phase intensity
// profile into concrete budgets before calling.
type Request struct {
	Mode             Mode
	CrisisID         string
	CrisisType       string
	Topic            string
	Phase            models.CrisisPhase
	Severity         models.Severity
	Language         string
	BotAmplification float64
	TargetViralRate  float64
	MaxReactions     int
	ViewBudget       int
}

// Result reports what a single run created. Partial threads are normal:
// reaction or engagement failures skip the item and the run continues.
type Result struct {
	RootPost           *models.Post
	Reactions          []*models.Post
	ReactionsAttempted int
	ReactionsCreated   int
	LikesCreated       int
	ViewsAdded         int
	Fallback           bool
}

// Sink receives created posts in causal order: root first, then each
// reaction as it lands.
type Sink interface {
	PostCreated(post *models.Post)
}

// Storage is the slice of the store the generator writes through.
type Storage interface {
	ListEligibleActors(ctx context.Context) ([]models.Actor, error)
	GetOfficialActor(ctx context.Context) (*models.Actor, error)
	CreatePost(ctx context.Context, p *models.Post) error
	CreateLike(ctx context.Context, postID, actorID string) (bool, error)
	AddViews(ctx context.Context, postID string, views int) error
}

// Config wires a Generator.
type Config struct {
	Storage Storage
	Content content.Generator
	Logger  logging.Logger

	// Sink is optional; nil disables live delivery.
	Sink Sink

	// ActorTTL bounds how long the eligible-actor pool is cached.
	// Default: 30 seconds.
	ActorTTL time.Duration
}

// Generator produces post threads: one root, a handful of personality-driven
// reactions and synthetic engagements. One Generator serves both crisis and
// organic traffic.
type Generator struct {
	storage Storage
	content content.Generator
	logger  logging.Logger
	sink    Sink
	actors  *cache.Cache
}

func New(cfg Config) *Generator {
	ttl := cfg.ActorTTL
	if ttl <= 0 {
		ttl = defaultActorTTL
	}
	return &Generator{
		storage: cfg.Storage,
		content: cfg.Content,
		logger:  cfg.Logger,
		sink:    cfg.Sink,
		actors: cache.New(cache.Options{
			TTL:                  ttl,
			StaleWhileRevalidate: ttl,
			MaxEntries:           4,
		}, cache.MetricsHooks{}),
	}
}

// InvalidateActors drops the cached actor pool so the next run sees freshly
// seeded accounts immediately.
func (g *Generator) InvalidateActors() {
	g.actors.Delete(actorPoolKey)
}

// Run produces one thread. Root persistence failure aborts the run; any
// later failure downgrades to a partial thread.
func (g *Generator) Run(ctx context.Context, req Request) (*Result, error) {
	pool, err := g.eligiblePool(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	author := g.pickRootAuthor(pool, req)
	root, err := g.generateRoot(ctx, req, author, result)
	if err != nil {
		return nil, err
	}
	if err := g.storage.CreatePost(ctx, root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootPersist, err)
	}
	result.RootPost = root
	g.emit(root)

	g.generateReactions(ctx, req, root, pool, result)
	g.generateLikes(ctx, req, root, pool, result)
	g.generateViews(ctx, req, root, result)

	return result, nil
}

// OfficialResponse publishes a single clarification post from the seeded
// official account. Returns store.ErrNotFound when no official actor exists.
func (g *Generator) OfficialResponse(ctx context.Context, req Request) (*models.Post, error) {
	official, err := g.storage.GetOfficialActor(ctx)
	if err != nil {
		return nil, err
	}

	tone := models.ToneReassuring
	if req.Severity == models.SeverityLow {
		tone = models.ToneFactual
	}

	generated, err := g.content.Generate(ctx, content.Request{
		CrisisType:  req.CrisisType,
		Topic:       req.Topic,
		Severity:    req.Severity,
		Tone:        tone,
		Kind:        models.PostOriginal,
		Language:    models.LanguageEnglish,
		ActorHandle: official.Handle,
		Personality: official.Personality,
	})
	if err != nil {
		return nil, err
	}

	crisisID := req.CrisisID
	post := &models.Post{
		ID:               uuid.New().String(),
		CrisisID:         &crisisID,
		AuthorID:         official.ID,
		AuthorHandle:     official.Handle,
		Kind:             models.PostOriginal,
		Language:         models.LanguageEnglish,
		Content:          generated.Text,
		Tone:             tone,
		EmotionalWeight:  emotionalWeight(tone),
		ViralCoefficient: 1.0,
	}
	if err := g.storage.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootPersist, err)
	}
	g.emit(post)
	return post, nil
}

func (g *Generator) eligiblePool(ctx context.Context) ([]models.Actor, error) {
	val, ok, err := g.actors.Get(ctx, actorPoolKey, func(ctx context.Context, _ string) (interface{}, bool, error) {
		actors, err := g.storage.ListEligibleActors(ctx)
		if err != nil {
			return nil, false, err
		}
		return actors, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActors
	}
	pool := val.([]models.Actor)
	if len(pool) == 0 {
		return nil, ErrNoActors
	}
	return pool, nil
}

func (g *Generator) generateRoot(ctx context.Context, req Request, author models.Actor, result *Result) (*models.Post, error) {
	tone := rootTone(req)
	language := req.Language
	if req.Mode == ModeOrganic || language == "" {
		language = authorLanguage(author)
	}

	contentReq := content.Request{
		Topic:       req.Topic,
		Severity:    req.Severity,
		Tone:        tone,
		Kind:        models.PostOriginal,
		Language:    language,
		ActorHandle: author.Handle,
		Personality: author.Personality,
	}
	if req.Mode == ModeCrisis {
		contentReq.CrisisType = req.CrisisType
	}
	generated, err := g.content.Generate(ctx, contentReq)
	if err != nil {
		return nil, err
	}
	if generated.Fallback {
		result.Fallback = true
	}

	post := &models.Post{
		ID:              uuid.New().String(),
		AuthorID:        author.ID,
		AuthorHandle:    author.Handle,
		Kind:            models.PostOriginal,
		Language:        language,
		Content:         generated.Text,
		Tone:            tone,
		EmotionalWeight: emotionalWeight(tone),
	}
	if req.Mode == ModeCrisis {
		crisisID := req.CrisisID
		post.CrisisID = &crisisID
		post.IsMisinformation = true
		post.PanicFactor, post.ThreatLevel = severityFactors(req.Severity)
		post.ViralCoefficient = viralCoefficient(req.TargetViralRate, req.Severity, req.BotAmplification)
	} else {
		post.ViralCoefficient = viralCoefficient(0, models.SeverityLow, 1.0)
	}
	return post, nil
}

func (g *Generator) generateReactions(ctx context.Context, req Request, root *models.Post, pool []models.Actor, result *Result) {
	if req.MaxReactions <= 0 {
		return
	}
	reactors := g.pickReactors(pool, root.AuthorID, req)
	for _, actor := range reactors {
		result.ReactionsAttempted++

		kind := reactionKind()
		tone := reactionTone(actor.Personality)
		language := authorLanguage(actor)

		text := ""
		fallback := false
		if kind != models.PostRetweet {
			generated, err := g.content.Generate(ctx, content.Request{
				CrisisType:    req.CrisisType,
				Topic:         req.Topic,
				Severity:      req.Severity,
				Tone:          tone,
				Kind:          kind,
				Language:      language,
				ParentContent: root.Content,
				ActorHandle:   actor.Handle,
				Personality:   actor.Personality,
			})
			if err != nil {
				g.logger.WithError(err).WithField("actor", actor.Handle).Warn("Reaction content generation failed, skipping reaction")
				continue
			}
			text = generated.Text
			fallback = generated.Fallback
		}

		rootID := root.ID
		post := &models.Post{
			ID:              uuid.New().String(),
			CrisisID:        root.CrisisID,
			AuthorID:        actor.ID,
			AuthorHandle:    actor.Handle,
			ParentID:        &rootID,
			Kind:            kind,
			Language:        language,
			Content:         text,
			Tone:            tone,
			EmotionalWeight: emotionalWeight(tone),
		}
		if err := g.storage.CreatePost(ctx, post); err != nil {
			g.logger.WithError(err).WithFields(logging.Fields{
				"actor": actor.Handle,
				"kind":  kind,
			}).Warn("Reaction persistence failed, thread continues")
			continue
		}
		if fallback {
			result.Fallback = true
		}
		result.ReactionsCreated++
		result.Reactions = append(result.Reactions, post)
		g.emit(post)
	}
}

func (g *Generator) generateLikes(ctx context.Context, req Request, root *models.Post, pool []models.Actor, result *Result) {
	likers := pickDistinct(pool, root.AuthorID, likeCount(req.Mode))
	for _, actor := range likers {
		created, err := g.storage.CreateLike(ctx, root.ID, actor.ID)
		if err != nil {
			g.logger.WithError(err).WithField("actor", actor.Handle).Warn("Like persistence failed, thread continues")
			continue
		}
		if created {
			result.LikesCreated++
		}
	}
}

func (g *Generator) generateViews(ctx context.Context, req Request, root *models.Post, result *Result) {
	views := viewCount(root.ViralCoefficient, req.ViewBudget)
	if views <= 0 {
		return
	}
	if err := g.storage.AddViews(ctx, root.ID, views); err != nil {
		g.logger.WithError(err).Warn("View counter update failed, thread continues")
		return
	}
	result.ViewsAdded = views
}

func (g *Generator) emit(post *models.Post) {
	if g.sink != nil {
		g.sink.PostCreated(post)
	}
}

func authorLanguage(a models.Actor) string {
	if a.Language == "" {
		return models.LanguageEnglish
	}
	return a.Language
}
