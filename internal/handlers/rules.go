package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/stream"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/common"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// HandleCreateRule registers a filtered-stream rule. The rule starts
// matching immediately; posts created before it never re-match.
func (h *TowncrierHandlers) HandleCreateRule(c *gin.Context) {
	var req towncrier.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	keywords, err := stream.NormalizeKeywords(req.Keywords)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rule := models.StreamRule{
		Name:     req.Name,
		Keywords: keywords,
	}
	if err := h.storage.CreateRule(c.Request.Context(), &rule); err != nil {
		h.respondError(c, err)
		return
	}
	h.matcher.AddRule(rule)

	h.logger.WithFields(logging.Fields{
		"rule_id":  rule.ID,
		"keywords": rule.Keywords,
	}).Info("Stream rule created")
	c.JSON(http.StatusCreated, rule)
}

// HandleListRules returns the active rule set.
func (h *TowncrierHandlers) HandleListRules(c *gin.Context) {
	rules, err := h.storage.ListRules(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, towncrier.RulesResponse{Rules: rules, Count: len(rules)})
}

// HandleDeleteRule removes a rule. Future posts stop matching it; matches
// already delivered stand.
func (h *TowncrierHandlers) HandleDeleteRule(c *gin.Context) {
	id := c.Param("id")
	if err := h.storage.DeleteRule(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.matcher.RemoveRule(id)

	h.logger.WithField("rule_id", id).Info("Stream rule deleted")
	c.JSON(http.StatusOK, common.SuccessResponse{Success: true, Message: "rule deleted"})
}
