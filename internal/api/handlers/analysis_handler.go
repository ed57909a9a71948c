package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/getcoachly/coachly/internal/services"
	"github.com/getcoachly/coachly/internal/utils"
)

const maxUploadBytes = 25 << 20 // recordings can get big

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

type uploadCallRequest struct {
	RepID       string `json:"rep_id" binding:"required"`
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	CallDate    string `json:"call_date"` // YYYY-MM-DD, optional
	Transcript  string `json:"transcript" binding:"required"`
}

// Upload takes a transcript as JSON, or a multipart form with a "file" part
// (text or audio) when Content-Type is multipart.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	in := services.UploadCallInput{}

	if ct := c.ContentType(); ct == "multipart/form-data" {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

		fh, err := c.FormFile("file")
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.Upload", "file part is required", err))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.Upload", "failed to open uploaded file", err))
			return
		}
		defer f.Close()

		in.File = f
		in.FileName = fh.Filename
		in.FileSize = int(fh.Size)
		in.MimeType = fh.Header.Get("Content-Type")
		in.RepID = c.PostForm("rep_id")
		in.CompanyName = c.PostForm("company_name")
		in.ContactName = c.PostForm("contact_name")
		in.CallDate = parseDate(c.PostForm("call_date"))
	} else {
		var req uploadCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "AnalysisHandler.Upload", "invalid request body", err))
			return
		}
		in.RepID = req.RepID
		in.CompanyName = req.CompanyName
		in.ContactName = req.ContactName
		in.Transcript = req.Transcript
		in.CallDate = parseDate(req.CallDate)
	}

	row, err := h.svc.UploadAndAnalyze(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (h *AnalysisHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	row, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *AnalysisHandler) ListByRep(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.ListByRep(c.Request.Context(), c.Param("rep_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AnalysisHandler) Download(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *AnalysisHandler) Delete(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
