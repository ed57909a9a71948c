package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/getcoachly/coachly/internal/services"
)

type RepHandler struct {
	svc services.RepService
}

func NewRepHandler(svc services.RepService) *RepHandler {
	return &RepHandler{svc: svc}
}

func (h *RepHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), c.Query("team_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *RepHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rep, err := h.svc.Get(c.Request.Context(), c.Param("rep_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *RepHandler) ListTeams(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rows, err := h.svc.ListTeams(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
