package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/getcoachly/coachly/internal/services"
	"github.com/getcoachly/coachly/internal/utils"
)

type TaskHandler struct {
	svc services.TaskService
}

func NewTaskHandler(svc services.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type createTaskRequest struct {
	RepID   string  `json:"rep_id" binding:"required"`
	CallID  *string `json:"call_id,omitempty"`
	Title   string  `json:"title" binding:"required"`
	Detail  string  `json:"detail"`
	DueDate string  `json:"due_date" binding:"required"` // RFC 3339 or YYYY-MM-DD
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TaskHandler.Create", "invalid request body", err))
		return
	}

	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02", req.DueDate, time.UTC)
	}
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TaskHandler.Create", "due_date must be RFC 3339 or YYYY-MM-DD", err))
		return
	}

	task, err := h.svc.Create(c.Request.Context(), userID, services.CreateTaskInput{
		RepID:   req.RepID,
		CallID:  req.CallID,
		Title:   req.Title,
		Detail:  req.Detail,
		DueDate: due,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ListByRep(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.ListByRep(c.Request.Context(), c.Param("rep_id"), c.Query("status"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *TaskHandler) Complete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	task, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
