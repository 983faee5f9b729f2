package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/cascade"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/crisis"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/realtime"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/store"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/stream"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/common"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

const serviceName = "towncrier"

// Engine is the slice of the crisis engine the admin surface drives.
// *crisis.Engine satisfies it.
type Engine interface {
	Start(ctx context.Context, p crisis.StartParams) (*models.Crisis, error)
	AdvancePhase(ctx context.Context) (*models.Crisis, error)
	SetPhase(ctx context.Context, to models.CrisisPhase) (*models.Crisis, error)
	Stop(ctx context.Context) (*models.Crisis, error)
	Pause() error
	Resume() error
	SetSpeed(ctx context.Context, speedFactor float64) (*models.Crisis, error)
	Reset(ctx context.Context) error
	RunCascadeNow(ctx context.Context) (*cascade.Result, error)
	Snapshot() (*models.Crisis, bool)
	Stats() towncrier.EngineStats
}

// Storage is the slice of the store the handlers read and write directly.
type Storage interface {
	CreateRule(ctx context.Context, r *models.StreamRule) error
	ListRules(ctx context.Context) ([]models.StreamRule, error)
	DeleteRule(ctx context.Context, id string) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	ListActors(ctx context.Context) ([]models.Actor, error)
	CountPosts(ctx context.Context) (int, error)
	CountEngagements(ctx context.Context) (int, error)
}

// Seeder provisions demo actors and rules on demand.
type Seeder interface {
	Seed(ctx context.Context) (*towncrier.SeedResponse, error)
}

// TowncrierHandlers contains the HTTP handlers for the service.
type TowncrierHandlers struct {
	engine  Engine
	storage Storage
	matcher *stream.Matcher
	hub     *realtime.Hub
	seeder  Seeder
	logger  logging.Logger
}

// NewTowncrierHandlers creates a new handlers instance.
func NewTowncrierHandlers(engine Engine, storage Storage, matcher *stream.Matcher, hub *realtime.Hub, seeder Seeder, logger logging.Logger) *TowncrierHandlers {
	return &TowncrierHandlers{
		engine:  engine,
		storage: storage,
		matcher: matcher,
		hub:     hub,
		seeder:  seeder,
		logger:  logger,
	}
}

// HandleStartCrisis launches a new crisis simulation.
func (h *TowncrierHandlers) HandleStartCrisis(c *gin.Context) {
	var req towncrier.StartCrisisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	created, err := h.engine.Start(c.Request.Context(), crisis.StartParams{
		Type:             req.Type,
		Topic:            req.Topic,
		Severity:         models.Severity(req.Severity),
		Language:         req.Language,
		SpeedFactor:      req.SpeedFactor,
		BotAmplification: req.BotAmplification,
		OrganicActivity:  req.OrganicActivity,
		TargetViralRate:  req.TargetViralRate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// HandleCrisisStatus reports the current crisis, engine counters, database
// totals and hub fan-out stats.
func (h *TowncrierHandlers) HandleCrisisStatus(c *gin.Context) {
	snapshot, _ := h.engine.Snapshot()

	totalPosts, err := h.storage.CountPosts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	totalEngagements, err := h.storage.CountEngagements(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := towncrier.CrisisStatusResponse{
		Crisis: snapshot,
		Phase:  string(models.PhaseDormant),
		Stats:  h.engine.Stats(),
		Totals: towncrier.PlatformTotals{
			Posts:       totalPosts,
			Engagements: totalEngagements,
		},
	}
	if snapshot != nil {
		resp.Phase = string(snapshot.Phase)
	}
	if h.hub != nil {
		hubStats := h.hub.Stats()
		resp.Hub = &hubStats
	}
	c.JSON(http.StatusOK, resp)
}

// HandleStopCrisis resolves the active crisis immediately.
func (h *TowncrierHandlers) HandleStopCrisis(c *gin.Context) {
	stopped, err := h.engine.Stop(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stopped)
}

// HandleAdvancePhase moves the crisis to the next lifecycle phase.
func (h *TowncrierHandlers) HandleAdvancePhase(c *gin.Context) {
	advanced, err := h.engine.AdvancePhase(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, advanced)
}

// HandleSetPhase forces the crisis into a specific phase.
func (h *TowncrierHandlers) HandleSetPhase(c *gin.Context) {
	var req towncrier.SetPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	updated, err := h.engine.SetPhase(c.Request.Context(), models.CrisisPhase(req.Phase))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// HandleSetSpeed rescales the simulation clock.
func (h *TowncrierHandlers) HandleSetSpeed(c *gin.Context) {
	var req towncrier.SetSpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	updated, err := h.engine.SetSpeed(c.Request.Context(), req.Factor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// HandlePause freezes crisis cascade generation.
func (h *TowncrierHandlers) HandlePause(c *gin.Context) {
	if err := h.engine.Pause(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.SuccessResponse{Success: true, Message: "simulation paused"})
}

// HandleResume restarts crisis cascade generation.
func (h *TowncrierHandlers) HandleResume(c *gin.Context) {
	if err := h.engine.Resume(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.SuccessResponse{Success: true, Message: "simulation resumed"})
}

// HandleReset wipes the simulation back to a quiet platform.
func (h *TowncrierHandlers) HandleReset(c *gin.Context) {
	if err := h.engine.Reset(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.SuccessResponse{Success: true, Message: "simulation reset"})
}

// HandleRunCascade triggers one cascade outside the tick schedule.
func (h *TowncrierHandlers) HandleRunCascade(c *gin.Context) {
	result, err := h.engine.RunCascadeNow(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := towncrier.CascadeRunResponse{
		ReactionsCreated:   result.ReactionsCreated,
		ReactionsAttempted: result.ReactionsAttempted,
		LikesCreated:       result.LikesCreated,
		ViewsAdded:         result.ViewsAdded,
		Fallback:           result.Fallback,
	}
	if result.RootPost != nil {
		resp.RootPostID = result.RootPost.ID
	}
	c.JSON(http.StatusOK, resp)
}

// HandleNotFound returns a 404 response for unknown routes.
func (h *TowncrierHandlers) HandleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, common.ErrorResponse{
		Error:   "endpoint not found",
		Code:    "not_found",
		Service: serviceName,
	})
}

func (h *TowncrierHandlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Error:   err.Error(),
		Code:    "invalid_request",
		Service: serviceName,
	})
}

// respondError maps engine and store errors onto admin API status codes.
func (h *TowncrierHandlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, crisis.ErrCrisisActive):
		status, code = http.StatusConflict, "crisis_active"
	case errors.Is(err, crisis.ErrAlreadyResolved):
		status, code = http.StatusConflict, "crisis_resolved"
	case errors.Is(err, crisis.ErrNoCrisis):
		status, code = http.StatusNotFound, "no_active_crisis"
	case errors.Is(err, crisis.ErrInvalidPhase),
		errors.Is(err, crisis.ErrInvalidSpeed),
		errors.Is(err, crisis.ErrInvalidParams),
		errors.Is(err, stream.ErrNoKeywords):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, cascade.ErrNoActors):
		status, code = http.StatusConflict, "no_actors_seeded"
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Admin request failed")
	}
	c.JSON(status, common.ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Service: serviceName,
	})
}
