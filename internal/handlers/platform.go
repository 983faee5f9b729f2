package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
)

const (
	defaultPostsLimit = 50
	maxPostsLimit     = 200
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// HandlePosts returns recent posts, newest first, for inspecting what the
// simulation produced.
func (h *TowncrierHandlers) HandlePosts(c *gin.Context) {
	limit := defaultPostsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.badRequest(c, errInvalidLimit)
			return
		}
		limit = parsed
	}
	if limit > maxPostsLimit {
		limit = maxPostsLimit
	}

	posts, err := h.storage.ListRecentPosts(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, towncrier.PostsResponse{Posts: posts, Count: len(posts)})
}

// HandlePost returns a single post with its engagement counters.
func (h *TowncrierHandlers) HandlePost(c *gin.Context) {
	post, err := h.storage.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// HandleActors returns the full actor cast, officials included, so an
// operator can check what a seed produced.
func (h *TowncrierHandlers) HandleActors(c *gin.Context) {
	actors, err := h.storage.ListActors(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, towncrier.ActorsResponse{Actors: actors, Count: len(actors)})
}

// HandleSeed provisions the demo actor population and default rules.
func (h *TowncrierHandlers) HandleSeed(c *gin.Context) {
	result, err := h.seeder.Seed(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleWebSocketAll serves a connection subscribed to every channel.
func (h *TowncrierHandlers) HandleWebSocketAll(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, towncrier.ChannelAll)
}

// HandleWebSocketFeed serves a connection pre-subscribed to the live feed.
func (h *TowncrierHandlers) HandleWebSocketFeed(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, towncrier.ChannelFeed)
}

// HandleWebSocketStream serves a connection pre-subscribed to filtered
// stream matches.
func (h *TowncrierHandlers) HandleWebSocketStream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, towncrier.ChannelStream)
}
