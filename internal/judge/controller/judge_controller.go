package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"codearena/internal/judge/model"
	appErr "codearena/pkg/errors"
	"codearena/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeService judges one request. Implemented by service.Service.
type JudgeService interface {
	Judge(ctx context.Context, req model.JudgeRequest) model.Verdict
}

// JudgeRequest is the submit/run request body.
type JudgeRequest struct {
	ProblemID   int64  `json:"problem_id" binding:"required,gt=0"`
	UserID      int64  `json:"user_id" binding:"required,gt=0"`
	Code        string `json:"code" binding:"required"`
	RunOnly     bool   `json:"run_only"`
	CustomInput string `json:"custom_input"`
}

// JudgeResponse is the verdict payload returned for every judged request.
// ExecutionTime is in seconds.
type JudgeResponse struct {
	Status        string  `json:"status"`
	Output        string  `json:"output"`
	ExecutionTime float64 `json:"execution_time"`
	PassedTests   *int    `json:"passed_tests,omitempty"`
	TotalTests    *int    `json:"total_tests,omitempty"`
}

// JudgeController handles code judging HTTP endpoints.
type JudgeController struct {
	judgeService JudgeService
}

// NewJudgeController creates a new JudgeController.
func NewJudgeController(judgeService JudgeService) *JudgeController {
	return &JudgeController{judgeService: judgeService}
}

// Judge handles POST /api/judge. Rate-limited requests answer 429 with a
// Retry-After header; every other verdict answers 200 with the verdict body.
func (h *JudgeController) Judge(c *gin.Context) {
	var req JudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	mode := model.ModeSubmit
	if req.RunOnly {
		mode = model.ModeRun
	}

	verdict := h.judgeService.Judge(c.Request.Context(), model.JudgeRequest{
		ProblemID:   req.ProblemID,
		UserID:      req.UserID,
		Code:        req.Code,
		Mode:        mode,
		CustomInput: req.CustomInput,
	})

	if verdict.Status == model.StatusRateLimited {
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(verdict.RetryAfter)))
		c.JSON(http.StatusTooManyRequests, response.Response{
			Code:    appErr.TooManyRequests,
			Message: verdict.Output,
			Data:    toJudgeResponse(verdict),
		})
		return
	}

	response.Success(c, toJudgeResponse(verdict))
}

func toJudgeResponse(verdict model.Verdict) JudgeResponse {
	resp := JudgeResponse{
		Status:        string(verdict.Status),
		Output:        verdict.Output,
		ExecutionTime: verdict.ExecutionTime.Seconds(),
	}
	if verdict.TotalTests > 0 {
		passed := verdict.PassedTests
		total := verdict.TotalTests
		resp.PassedTests = &passed
		resp.TotalTests = &total
	}
	return resp
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
