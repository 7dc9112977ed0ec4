// Package controller exposes the engine over HTTP for the surrounding
// CRUD/API layer. Auth happens upstream; requests arrive with an
// already-authenticated user id.
package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"algolab/internal/judge/service"
	"algolab/pkg/utils/response"
)

// JudgeController handles submission and status requests.
type JudgeController struct {
	svc *service.JudgeService
}

func NewJudgeController(svc *service.JudgeService) *JudgeController {
	return &JudgeController{svc: svc}
}

// RegisterRoutes mounts the engine API on the router.
func (h *JudgeController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health-check", h.HealthCheck)
	api := r.Group("/api/v1")
	{
		api.POST("/submissions", h.Submit)
		api.GET("/submissions/:id", h.GetStatus)
		api.GET("/submissions", h.GetStatusBatch)
		api.POST("/run", h.Run)
		api.GET("/languages", h.Languages)
	}
}

type submitRequest struct {
	UserID     string `json:"userId" binding:"required"`
	ProblemID  string `json:"problemId" binding:"required"`
	LanguageID string `json:"languageId" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// Submit accepts a submission for asynchronous grading.
func (h *JudgeController) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid submit request: "+err.Error())
		return
	}
	id, err := h.svc.Submit(c.Request.Context(), req.UserID, req.ProblemID, req.LanguageID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"submissionId": id})
}

// GetStatus returns the poll snapshot for one submission.
func (h *JudgeController) GetStatus(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		response.BadRequest(c, "invalid submission id")
		return
	}
	snap, err := h.svc.GetStatus(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// GetStatusBatch returns snapshots for a comma-separated id list.
func (h *JudgeController) GetStatusBatch(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		response.BadRequest(c, "ids query parameter is required")
		return
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	snaps, err := h.svc.GetStatusBatch(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snaps)
}

type runRequest struct {
	ProblemID  string `json:"problemId" binding:"required"`
	LanguageID string `json:"languageId" binding:"required"`
	Code       string `json:"code" binding:"required"`
	Stdin      string `json:"stdin"`
}

// Run executes code synchronously against a problem's sample test cases,
// or against custom stdin, without persisting a submission.
func (h *JudgeController) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid run request: "+err.Error())
		return
	}
	res, err := h.svc.RunSamples(c.Request.Context(), req.ProblemID, req.LanguageID, req.Code, req.Stdin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Languages lists the supported language identifiers.
func (h *JudgeController) Languages(c *gin.Context) {
	response.Success(c, gin.H{"languages": h.svc.Languages()})
}

// HealthCheck reports liveness.
func (h *JudgeController) HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
