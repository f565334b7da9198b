package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codearena/internal/judge/model"

	"github.com/gin-gonic/gin"
)

type stubJudge struct {
	verdict model.Verdict
	lastReq model.JudgeRequest
}

func (s *stubJudge) Judge(ctx context.Context, req model.JudgeRequest) model.Verdict {
	s.lastReq = req
	return s.verdict
}

func newTestRouter(stub *stubJudge) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/judge", NewJudgeController(stub).Judge)
	return router
}

func postJudge(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/judge", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJudgeEndpointAccepted(t *testing.T) {
	stub := &stubJudge{verdict: model.Verdict{
		Status:        model.StatusAccepted,
		Output:        "All test cases passed",
		ExecutionTime: 120 * time.Millisecond,
		PassedTests:   3,
		TotalTests:    3,
	}}
	router := newTestRouter(stub)

	w := postJudge(t, router, map[string]interface{}{
		"problem_id": 1,
		"user_id":    5,
		"code":       "print(5)",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var envelope struct {
		Code int           `json:"code"`
		Data JudgeResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data.Status != "Accepted" {
		t.Fatalf("verdict status = %q", envelope.Data.Status)
	}
	if envelope.Data.PassedTests == nil || *envelope.Data.PassedTests != 3 {
		t.Fatalf("passed_tests = %v, want 3", envelope.Data.PassedTests)
	}
	if envelope.Data.ExecutionTime != 0.12 {
		t.Fatalf("execution_time = %v, want 0.12", envelope.Data.ExecutionTime)
	}
	if stub.lastReq.Mode != model.ModeSubmit {
		t.Fatalf("mode = %q, want submit", stub.lastReq.Mode)
	}
}

func TestJudgeEndpointRunOnly(t *testing.T) {
	stub := &stubJudge{verdict: model.Verdict{Status: model.StatusExecuted, Output: "10\n"}}
	router := newTestRouter(stub)

	w := postJudge(t, router, map[string]interface{}{
		"problem_id":   1,
		"user_id":      5,
		"code":         "print(10)",
		"run_only":     true,
		"custom_input": "3 7",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if stub.lastReq.Mode != model.ModeRun {
		t.Fatalf("mode = %q, want run", stub.lastReq.Mode)
	}
	if stub.lastReq.CustomInput != "3 7" {
		t.Fatalf("custom input = %q", stub.lastReq.CustomInput)
	}
}

func TestJudgeEndpointRateLimited(t *testing.T) {
	stub := &stubJudge{verdict: model.Verdict{
		Status:     model.StatusRateLimited,
		Output:     "Too many requests. Try again in 42s.",
		RetryAfter: 42 * time.Second,
	}}
	router := newTestRouter(stub)

	w := postJudge(t, router, map[string]interface{}{
		"problem_id": 1,
		"user_id":    5,
		"code":       "print(5)",
	})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After = %q, want 42", got)
	}
}

func TestJudgeEndpointRejectsBadBody(t *testing.T) {
	stub := &stubJudge{}
	router := newTestRouter(stub)

	cases := []map[string]interface{}{
		{"user_id": 5, "code": "print(5)"},
		{"problem_id": 1, "code": "print(5)"},
		{"problem_id": 1, "user_id": 5},
		{"problem_id": 0, "user_id": 5, "code": "print(5)"},
	}
	for _, body := range cases {
		w := postJudge(t, router, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d, want 400", body, w.Code)
		}
	}
}
