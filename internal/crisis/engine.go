// Package crisis drives the simulation lifecycle: one crisis at a time
// moving through a fixed phase sequence, a tick loop that turns phase
// intensity into cascade runs, and a background loop that keeps organic
// chatter flowing underneath.
package crisis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/cascade"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/metrics"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/store"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

var (
	ErrCrisisActive    = errors.New("a crisis is already active")
	ErrNoCrisis        = errors.New("no active crisis")
	ErrAlreadyResolved = errors.New("crisis is already resolved")
	ErrInvalidPhase    = errors.New("invalid crisis phase")
	ErrInvalidSpeed    = errors.New("speed factor must be positive")
	ErrInvalidParams   = errors.New("invalid crisis parameters")
)

const (
	defaultTickInterval       = 30 * time.Second
	defaultBackgroundInterval = 45 * time.Second
	defaultBackgroundBaseline = 0.25
	defaultViewBudget         = 1000
	defaultOrganicActivity    = 0.3

	// minTickPeriod bounds how far a speed factor can compress the tick.
	minTickPeriod = 50 * time.Millisecond

	organicMaxReactions = 2
	organicViewBudget   = 120
)

// Storage is the slice of the store the engine needs for crisis lifecycle.
type Storage interface {
	CreateCrisis(ctx context.Context, c *models.Crisis) error
	GetActiveCrisis(ctx context.Context) (*models.Crisis, error)
	UpdateCrisisPhase(ctx context.Context, id string, phase models.CrisisPhase) error
	UpdateCrisisSpeed(ctx context.Context, id string, speedFactor float64) error
	ResetSimulation(ctx context.Context) error
}

// CascadeRunner produces post threads. *cascade.Generator satisfies it.
type CascadeRunner interface {
	Run(ctx context.Context, req cascade.Request) (*cascade.Result, error)
	OfficialResponse(ctx context.Context, req cascade.Request) (*models.Post, error)
}

// Events receives lifecycle notifications for live fan-out. All methods must
// be non-blocking; *realtime.Broadcaster satisfies this.
type Events interface {
	CrisisStarted(crisis models.Crisis)
	CrisisPhaseChanged(crisis models.Crisis, from models.CrisisPhase)
	SimulationReset()
}

// StartParams describes the crisis an operator wants to launch. Zero values
// for the optional knobs pick sensible defaults.
type StartParams struct {
	Type             string
	Topic            string
	Severity         models.Severity
	Language         string
	SpeedFactor      float64
	BotAmplification float64
	OrganicActivity  float64
	TargetViralRate  float64
}

func (p *StartParams) normalize() error {
	if p.Type == "" || p.Topic == "" {
		return fmt.Errorf("%w: crisis type and topic are required", ErrInvalidParams)
	}
	if !p.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidParams, p.Severity)
	}
	if p.Language == "" {
		p.Language = models.LanguageEnglish
	}
	if p.SpeedFactor <= 0 {
		p.SpeedFactor = 1
	}
	if p.BotAmplification <= 0 {
		p.BotAmplification = 1
	}
	if p.OrganicActivity <= 0 {
		p.OrganicActivity = defaultOrganicActivity
	}
	if p.OrganicActivity > 1 {
		p.OrganicActivity = 1
	}
	if p.TargetViralRate < 0 {
		p.TargetViralRate = 0
	}
	return nil
}

// Config wires an Engine.
type Config struct {
	Storage  Storage
	Cascades CascadeRunner
	Logger   logging.Logger

	// Events is optional; nil disables live notifications.
	Events Events

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// TickInterval is the crisis cascade period at speed factor 1.
	// Default: 30 seconds.
	TickInterval time.Duration

	// BackgroundInterval is the organic chatter period. Background ticks
	// ignore the speed factor. Default: 45 seconds.
	BackgroundInterval time.Duration

	// BackgroundBaseline is the organic thread probability per background
	// tick when no crisis is active. Default: 0.25.
	BackgroundBaseline float64

	// ViewBudget caps synthetic views per cascade regardless of phase.
	// Default: 1000.
	ViewBudget int
}

// Engine owns the single active crisis and both tick loops. All exported
// methods are safe for concurrent use.
type Engine struct {
	storage  Storage
	cascades CascadeRunner
	events   Events
	metrics  *metrics.Metrics
	logger   logging.Logger

	tickInterval       time.Duration
	backgroundBaseline float64
	viewBudget         int

	scheduler  *Scheduler
	background *Scheduler

	// mu guards the crisis snapshot, the pause flag, the run context
	// handle and startedAt.
	mu        sync.Mutex
	crisis    *models.Crisis
	paused    bool
	runCtx    context.Context
	cancelRun context.CancelFunc
	startedAt time.Time

	// runMu serializes crisis cascade work. Ticks, manual runs, official
	// responses and reset take it; background threads deliberately do not.
	runMu sync.Mutex

	posts       atomic.Int64
	engagements atomic.Int64
}

func New(cfg Config) *Engine {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	backgroundEvery := cfg.BackgroundInterval
	if backgroundEvery <= 0 {
		backgroundEvery = defaultBackgroundInterval
	}
	baseline := cfg.BackgroundBaseline
	if baseline <= 0 {
		baseline = defaultBackgroundBaseline
	}
	if baseline > 1 {
		baseline = 1
	}
	budget := cfg.ViewBudget
	if budget <= 0 {
		budget = defaultViewBudget
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	e := &Engine{
		storage:            cfg.Storage,
		cascades:           cfg.Cascades,
		events:             cfg.Events,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
		tickInterval:       tick,
		backgroundBaseline: baseline,
		viewBudget:         budget,
		runCtx:             runCtx,
		cancelRun:          cancelRun,
		startedAt:          time.Now(),
	}
	// The crisis scheduler starts paused until a crisis exists; organic
	// chatter runs from boot.
	e.scheduler = NewScheduler("crisis", tick, true, e.tick, cfg.Logger)
	e.background = NewScheduler("organic", backgroundEvery, false, e.backgroundTick, cfg.Logger)
	return e
}

// Run drives both schedulers until ctx is cancelled. Shutdown also cancels
// any in-flight cascade.
func (e *Engine) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		e.mu.Lock()
		e.cancelRun()
		e.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.scheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		e.background.Run(ctx)
	}()
	wg.Wait()
}

// Recover adopts a crisis left active by a previous process so a restart
// resumes ticking instead of stranding it.
func (e *Engine) Recover(ctx context.Context) error {
	existing, err := e.storage.GetActiveCrisis(ctx)
	if errors.Is(err, store.ErrNotFound) {
		if e.metrics != nil {
			e.metrics.SetPhase(models.PhaseDormant)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("recover active crisis: %w", err)
	}

	e.mu.Lock()
	e.crisis = existing
	e.paused = false
	e.mu.Unlock()
	e.scheduler.SetPeriod(e.tickPeriod(existing.SpeedFactor))
	e.scheduler.Resume()

	if e.metrics != nil {
		e.metrics.SetPhase(existing.Phase)
		e.metrics.ActiveSimulations.WithLabelValues("crisis").Set(1)
	}
	e.logger.WithFields(logging.Fields{
		"crisis_id": existing.ID,
		"phase":     existing.Phase,
	}).Info("Recovered active crisis from storage")
	return nil
}

// Start launches a new crisis in EMERGING and begins ticking. At most one
// crisis may be active at a time.
func (e *Engine) Start(ctx context.Context, p StartParams) (*models.Crisis, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.crisis.Active() {
		return nil, ErrCrisisActive
	}
	// A crisis left active by another process also blocks a new one.
	if existing, err := e.storage.GetActiveCrisis(ctx); err == nil && existing.Active() {
		return nil, ErrCrisisActive
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check active crisis: %w", err)
	}

	c := &models.Crisis{
		Type:             p.Type,
		Topic:            p.Topic,
		Phase:            models.PhaseEmerging,
		Severity:         p.Severity,
		TargetViralRate:  p.TargetViralRate,
		BotAmplification: p.BotAmplification,
		OrganicActivity:  p.OrganicActivity,
		SpeedFactor:      p.SpeedFactor,
		Language:         p.Language,
	}
	if err := e.storage.CreateCrisis(ctx, c); err != nil {
		return nil, fmt.Errorf("create crisis: %w", err)
	}

	e.crisis = c
	e.paused = false
	e.scheduler.SetPeriod(e.tickPeriod(c.SpeedFactor))
	e.scheduler.Resume()

	if e.metrics != nil {
		e.metrics.SetPhase(c.Phase)
		e.metrics.PhaseTransitions.WithLabelValues(string(models.PhaseDormant), string(c.Phase)).Inc()
		e.metrics.ActiveSimulations.WithLabelValues("crisis").Set(1)
	}
	snapshot := *c
	if e.events != nil {
		e.events.CrisisStarted(snapshot)
	}
	e.logger.WithFields(logging.Fields{
		"crisis_id":    c.ID,
		"crisis_type":  c.Type,
		"topic":        c.Topic,
		"severity":     c.Severity,
		"speed_factor": c.SpeedFactor,
	}).Info("Crisis started")
	return &snapshot, nil
}

// AdvancePhase moves the crisis to the next phase in the sequence. Phases
// never advance on their own; this is the only forward path.
func (e *Engine) AdvancePhase(ctx context.Context) (*models.Crisis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.crisis == nil {
		return nil, ErrNoCrisis
	}
	if e.crisis.Phase == models.PhaseResolved {
		return nil, ErrAlreadyResolved
	}
	return e.transitionLocked(ctx, NextPhase(e.crisis.Phase))
}

// SetPhase jumps the crisis to an arbitrary phase. A resolved crisis stays
// resolved; only Reset brings the platform back from that.
func (e *Engine) SetPhase(ctx context.Context, to models.CrisisPhase) (*models.Crisis, error) {
	if !ValidPhase(to) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, to)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.crisis == nil {
		return nil, ErrNoCrisis
	}
	if e.crisis.Phase == models.PhaseResolved {
		return nil, ErrAlreadyResolved
	}
	if e.crisis.Phase == to {
		snapshot := *e.crisis
		return &snapshot, nil
	}
	return e.transitionLocked(ctx, to)
}

// Stop resolves the crisis immediately, skipping any remaining phases.
func (e *Engine) Stop(ctx context.Context) (*models.Crisis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.crisis == nil {
		return nil, ErrNoCrisis
	}
	if e.crisis.Phase == models.PhaseResolved {
		return nil, ErrAlreadyResolved
	}
	return e.transitionLocked(ctx, models.PhaseResolved)
}

// transitionLocked persists a phase change and fans out its side effects.
// Caller holds e.mu with a non-nil crisis.
func (e *Engine) transitionLocked(ctx context.Context, to models.CrisisPhase) (*models.Crisis, error) {
	from := e.crisis.Phase
	if err := e.storage.UpdateCrisisPhase(ctx, e.crisis.ID, to); err != nil {
		return nil, fmt.Errorf("update crisis phase: %w", err)
	}
	e.crisis.Phase = to
	if to == models.PhaseResolved && e.crisis.ResolvedAt == nil {
		now := time.Now().UTC()
		e.crisis.ResolvedAt = &now
	}
	snapshot := *e.crisis

	if !activePhase(to) {
		e.scheduler.Pause()
	} else if !e.paused {
		e.scheduler.Resume()
	}

	// Entering DECLINING triggers the official clarification. Off the
	// lock: it runs a full content generation.
	if from != models.PhaseDeclining && to == models.PhaseDeclining {
		go e.publishOfficialResponse(snapshot)
	}

	if e.metrics != nil {
		e.metrics.SetPhase(to)
		e.metrics.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
		active := 0.0
		if activePhase(to) {
			active = 1.0
		}
		e.metrics.ActiveSimulations.WithLabelValues("crisis").Set(active)
	}
	if e.events != nil {
		e.events.CrisisPhaseChanged(snapshot, from)
	}
	e.logger.WithFields(logging.Fields{
		"crisis_id": snapshot.ID,
		"from":      from,
		"to":        to,
	}).Info("Crisis phase changed")
	return &snapshot, nil
}

// Pause freezes crisis cascades. The pending tick is cancelled, so no
// crisis content lands after Pause returns. Organic chatter keeps going.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.crisis.Active() {
		return ErrNoCrisis
	}
	e.paused = true
	e.scheduler.Pause()
	e.logger.WithField("crisis_id", e.crisis.ID).Info("Simulation paused")
	return nil
}

// Resume re-arms the crisis tick after a Pause.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.crisis.Active() {
		return ErrNoCrisis
	}
	e.paused = false
	e.scheduler.Resume()
	e.logger.WithField("crisis_id", e.crisis.ID).Info("Simulation resumed")
	return nil
}

// SetSpeed rescales the tick period. A pending tick still fires on the old
// schedule; the new period applies from the next arm.
func (e *Engine) SetSpeed(ctx context.Context, speedFactor float64) (*models.Crisis, error) {
	// The negated comparison also rejects NaN.
	if !(speedFactor > 0) {
		return nil, ErrInvalidSpeed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.crisis.Active() {
		return nil, ErrNoCrisis
	}
	if err := e.storage.UpdateCrisisSpeed(ctx, e.crisis.ID, speedFactor); err != nil {
		return nil, fmt.Errorf("update crisis speed: %w", err)
	}
	e.crisis.SpeedFactor = speedFactor
	e.scheduler.SetPeriod(e.tickPeriod(speedFactor))

	snapshot := *e.crisis
	e.logger.WithFields(logging.Fields{
		"crisis_id":     snapshot.ID,
		"speed_factor":  speedFactor,
		"tick_interval": e.scheduler.Period().String(),
	}).Info("Simulation speed changed")
	return &snapshot, nil
}

// Reset wipes the whole simulation: crisis, posts, engagements and the
// engine's counters. Actors and stream rules survive. Any in-flight cascade
// is cancelled and waited out before storage is cleared.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	hadActive := e.crisis.Active()
	wasPaused := e.paused
	e.cancelRun()
	e.scheduler.Pause()
	e.mu.Unlock()

	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	e.runCtx, e.cancelRun = context.WithCancel(context.Background())
	e.mu.Unlock()

	if err := e.storage.ResetSimulation(ctx); err != nil {
		// The previous crisis stays in place on failure.
		e.mu.Lock()
		if hadActive && !wasPaused {
			e.scheduler.Resume()
		}
		e.mu.Unlock()
		return fmt.Errorf("reset simulation: %w", err)
	}

	e.mu.Lock()
	e.crisis = nil
	e.paused = false
	e.startedAt = time.Now()
	e.mu.Unlock()
	e.posts.Store(0)
	e.engagements.Store(0)

	if e.metrics != nil {
		e.metrics.SetPhase(models.PhaseDormant)
		e.metrics.ActiveSimulations.WithLabelValues("crisis").Set(0)
	}
	if e.events != nil {
		e.events.SimulationReset()
	}
	e.logger.Info("Simulation reset")
	return nil
}

// RunCascadeNow triggers one crisis cascade outside the tick schedule. It
// works while paused; pause stops the clock, not the operator.
func (e *Engine) RunCascadeNow(ctx context.Context) (*cascade.Result, error) {
	e.mu.Lock()
	if !e.crisis.Active() {
		e.mu.Unlock()
		return nil, ErrNoCrisis
	}
	snapshot := *e.crisis
	e.mu.Unlock()

	e.runMu.Lock()
	defer e.runMu.Unlock()

	// The crisis may have been reset or replaced while we waited.
	e.mu.Lock()
	if e.crisis == nil || e.crisis.ID != snapshot.ID {
		e.mu.Unlock()
		return nil, ErrNoCrisis
	}
	snapshot = *e.crisis
	e.mu.Unlock()

	result, err := e.cascades.Run(ctx, e.cascadeRequest(snapshot))
	e.recordResult("crisis", result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// tick runs one crisis scheduler pass: roll against the phase's cascade
// probability and maybe produce a thread.
func (e *Engine) tick(context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	c, paused, runCtx := e.crisis, e.paused, e.runCtx
	e.mu.Unlock()
	// The pause flag is re-checked here so a timer fire racing Pause
	// still produces nothing.
	if paused || !c.Active() {
		return
	}
	snapshot := *c

	profile := IntensityProfile(snapshot.Phase)
	if profile.CascadeProbability <= 0 || rand.Float64() >= profile.CascadeProbability {
		return
	}

	start := time.Now()
	result, err := e.cascades.Run(runCtx, e.cascadeRequest(snapshot))
	if e.metrics != nil {
		e.metrics.TickDuration.WithLabelValues("crisis").Observe(time.Since(start).Seconds())
	}
	e.recordResult("crisis", result, err)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		e.logger.WithError(err).WithField("crisis_id", snapshot.ID).Warn("Cascade run failed")
	}
}

// backgroundTick maybe produces one organic thread. It never takes runMu:
// organic chatter is independent of crisis cascades and keeps flowing while
// the simulation is paused.
func (e *Engine) backgroundTick(context.Context) {
	e.mu.Lock()
	c, runCtx := e.crisis, e.runCtx
	e.mu.Unlock()

	probability := e.backgroundBaseline
	if c.Active() && c.OrganicActivity > 0 {
		probability = c.OrganicActivity
	}
	if rand.Float64() >= probability {
		return
	}

	start := time.Now()
	result, err := e.cascades.Run(runCtx, cascade.Request{
		Mode:         cascade.ModeOrganic,
		MaxReactions: organicMaxReactions,
		ViewBudget:   organicViewBudget,
	})
	if e.metrics != nil {
		e.metrics.TickDuration.WithLabelValues("organic").Observe(time.Since(start).Seconds())
	}
	e.recordResult("organic", result, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.logger.WithError(err).Warn("Organic thread failed")
	}
}

// publishOfficialResponse posts the one clarification that accompanies the
// move into DECLINING. Skipped quietly when no official actor is seeded.
func (e *Engine) publishOfficialResponse(c models.Crisis) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	current, runCtx := e.crisis, e.runCtx
	e.mu.Unlock()
	if current == nil || current.ID != c.ID {
		return
	}

	post, err := e.cascades.OfficialResponse(runCtx, e.cascadeRequest(c))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			e.logger.WithField("crisis_id", c.ID).Info("No official actor seeded, skipping clarification")
		case errors.Is(err, context.Canceled):
		default:
			e.logger.WithError(err).WithField("crisis_id", c.ID).Warn("Official response failed")
		}
		return
	}

	e.posts.Add(1)
	if e.metrics != nil {
		e.metrics.Posts.WithLabelValues(string(post.Kind), "official").Inc()
	}
	e.logger.WithFields(logging.Fields{
		"crisis_id": c.ID,
		"post_id":   post.ID,
	}).Info("Official clarification published")
}

func (e *Engine) cascadeRequest(c models.Crisis) cascade.Request {
	profile := IntensityProfile(c.Phase)
	viewBudget := profile.ViewBudget
	if viewBudget > e.viewBudget {
		viewBudget = e.viewBudget
	}
	return cascade.Request{
		Mode:             cascade.ModeCrisis,
		CrisisID:         c.ID,
		CrisisType:       c.Type,
		Topic:            c.Topic,
		Phase:            c.Phase,
		Severity:         c.Severity,
		Language:         c.Language,
		BotAmplification: c.BotAmplification,
		TargetViralRate:  c.TargetViralRate,
		MaxReactions:     profile.MaxReactions,
		ViewBudget:       viewBudget,
	}
}

// recordResult folds a cascade outcome into the engine counters and metrics.
func (e *Engine) recordResult(mode string, result *cascade.Result, err error) {
	if err != nil {
		if e.metrics != nil {
			e.metrics.CascadeRuns.WithLabelValues(mode, "error").Inc()
		}
		return
	}

	created := int64(0)
	if result.RootPost != nil {
		created = 1
	}
	created += int64(result.ReactionsCreated)
	e.posts.Add(created)
	e.engagements.Add(int64(result.LikesCreated + result.ViewsAdded))

	if e.metrics == nil {
		return
	}
	e.metrics.CascadeRuns.WithLabelValues(mode, "ok").Inc()
	if result.Fallback {
		e.metrics.Fallbacks.WithLabelValues("cascade").Inc()
	}
	if result.RootPost != nil {
		e.metrics.Posts.WithLabelValues(string(result.RootPost.Kind), mode).Inc()
	}
	for _, p := range result.Reactions {
		e.metrics.Posts.WithLabelValues(string(p.Kind), mode).Inc()
	}
	if result.LikesCreated > 0 {
		e.metrics.Engagements.WithLabelValues("like").Add(float64(result.LikesCreated))
	}
	if result.ViewsAdded > 0 {
		e.metrics.Engagements.WithLabelValues("view").Add(float64(result.ViewsAdded))
	}
}

// Snapshot returns a copy of the current crisis (nil when the platform is
// quiet) and the pause flag.
func (e *Engine) Snapshot() (*models.Crisis, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.crisis == nil {
		return nil, e.paused
	}
	c := *e.crisis
	return &c, e.paused
}

// Stats assembles the admin-facing engine counters.
func (e *Engine) Stats() towncrier.EngineStats {
	e.mu.Lock()
	paused := e.paused
	started := e.startedAt
	speed := 1.0
	if e.crisis != nil && e.crisis.SpeedFactor > 0 {
		speed = e.crisis.SpeedFactor
	}
	e.mu.Unlock()

	posts := e.posts.Load()
	perMin := 0.0
	if uptime := time.Since(started); uptime > 0 {
		perMin = float64(posts) / uptime.Minutes()
	}
	return towncrier.EngineStats{
		Posts:        int(posts),
		Engagements:  int(e.engagements.Load()),
		PostsPerMin:  perMin,
		Paused:       paused,
		TickInterval: e.scheduler.Period().String(),
		SpeedFactor:  speed,
	}
}

func (e *Engine) tickPeriod(speedFactor float64) time.Duration {
	if speedFactor <= 0 {
		speedFactor = 1
	}
	period := time.Duration(float64(e.tickInterval) / speedFactor)
	if period < minTickPeriod {
		period = minTickPeriod
	}
	return period
}
