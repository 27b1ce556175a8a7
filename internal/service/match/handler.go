package match

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/middleware"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/server"
)

type swipeRequest struct {
	TargetID  uint64 `json:"targetId" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=like nope"`
}

type swipeResponse struct {
	IsMatch  bool    `json:"isMatch"`
	Message  string  `json:"message"`
	TargetID *uint64 `json:"targetId,omitempty"`
}

type matchesResponse struct {
	Matches             []repository.MatchEntry `json:"matches"`
	NextPaginationToken *string                 `json:"nextPaginationToken,omitempty"`
}

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Candidates handles GET /api/matches/candidates[?limit=n].
func (h *Handler) Candidates(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			server.RespondBadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	candidates, err := h.svc.SelectCandidates(c.Request.Context(), uid, limit)
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// Swipe handles POST /api/matches/swipe.
func (h *Handler) Swipe(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondBadRequest(c, "targetId and direction (like/nope) are required")
		return
	}

	res, err := h.svc.RecordSwipe(c.Request.Context(), uid, req.TargetID, db.Direction(req.Direction))
	if err != nil {
		server.RespondError(c, err)
		return
	}

	if res.IsMatch {
		c.JSON(http.StatusOK, swipeResponse{IsMatch: true, Message: "It's a match!", TargetID: &req.TargetID})
		return
	}
	c.JSON(http.StatusOK, swipeResponse{IsMatch: false, Message: "swipe recorded"})
}

// Matches handles GET /api/matches[?paginationToken=].
func (h *Handler) Matches(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	var token *string
	if raw, ok := c.GetQuery("paginationToken"); ok && raw != "" {
		token = &raw
	}

	entries, next, err := h.svc.ListMatches(c.Request.Context(), uid, token)
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matchesResponse{Matches: entries, NextPaginationToken: next})
}

// Count handles GET /api/matches/count.
func (h *Handler) Count(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	n, err := h.svc.CountMatches(c.Request.Context(), uid)
	if err != nil {
		server.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
