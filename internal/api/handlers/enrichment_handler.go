package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/getcoachly/coachly/internal/services"
	"github.com/getcoachly/coachly/internal/utils"
)

type EnrichmentHandler struct {
	svc services.EnrichmentService
}

func NewEnrichmentHandler(svc services.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{svc: svc}
}

// Enrich matches an uploaded Salesforce export against analyzed calls.
func (h *EnrichmentHandler) Enrich(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EnrichmentHandler.Enrich", "file part is required", err))
		return
	}

	name := strings.ToLower(fh.Filename)
	if strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls") {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EnrichmentHandler.Enrich", "Excel files are not supported, export as CSV from Salesforce", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EnrichmentHandler.Enrich", "failed to open uploaded file", err))
		return
	}
	defer f.Close()

	result, err := h.svc.EnrichCSV(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
