package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/getcoachly/coachly/internal/ratelimit"
	"github.com/getcoachly/coachly/internal/trends"
	"github.com/getcoachly/coachly/internal/utils"
)

type TrendsHandler struct {
	svc     trends.Service
	limiter *ratelimit.Limiter
}

func NewTrendsHandler(svc trends.Service, limiter *ratelimit.Limiter) *TrendsHandler {
	return &TrendsHandler{svc: svc, limiter: limiter}
}

// Generate runs the tiered trend aggregation. Rate limited per user because
// every cold request fans out into database reads and an LLM call.
func (h *TrendsHandler) Generate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if res := h.limiter.Check(userID); !res.Allowed {
		c.Header("Retry-After", strconv.Itoa(res.RetryAfter))
		c.JSON(http.StatusTooManyRequests, APIError{
			Code:    utils.CodeRateLimited,
			Message: "too many trend requests, slow down",
		})
		return
	}

	var req trends.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TrendsHandler.Generate", "invalid request body", err))
		return
	}

	report, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
