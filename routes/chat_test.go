package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-rag-chatbot/internal/ai"
	"legal-rag-chatbot/internal/health"
	"legal-rag-chatbot/internal/queue"
	"legal-rag-chatbot/internal/rag"
	"legal-rag-chatbot/models"
	"legal-rag-chatbot/utils"
)

type fakeService struct {
	answer    *rag.Answer
	retrieved *rag.Retrieved
	reply     *rag.AssistReply
	err       error

	question string
	opts     rag.AskOptions
}

func (f *fakeService) AnswerQuestion(_ context.Context, q string, opts rag.AskOptions) (*rag.Answer, error) {
	f.question, f.opts = q, opts
	return f.answer, f.err
}

func (f *fakeService) Search(_ context.Context, q string) (*rag.Retrieved, error) {
	f.question = q
	return f.retrieved, f.err
}

func (f *fakeService) Assist(_ context.Context, p string, _ int) (*rag.AssistReply, error) {
	f.question = p
	return f.reply, f.err
}

type fakeJobs struct {
	id     string
	status *queue.JobStatus
	err    error
}

func (f *fakeJobs) EnqueueAnswer(context.Context, string, int) (string, error) { return f.id, f.err }
func (f *fakeJobs) Job(string) (*queue.JobStatus, error) { return f.status, f.err }

func newRouter(svc RAGService, jobs JobQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupChatRoutes(r, svc, jobs)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestChat_Success(t *testing.T) {
	svc := &fakeService{answer: &rag.Answer{Context: "=== 📂 CASE ===\n", Answer: "답변입니다."}}
	w := do(newRouter(svc, nil), http.MethodPost, "/api/chat", `{"message":"  보험금 청구 절차는?  ","max_length":200}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ChatResponse](t, w)
	assert.Equal(t, "=== 📂 CASE ===\n", resp.ReplyContent)
	assert.Equal(t, "답변입니다.", resp.ReplyAnswer)
	assert.Equal(t, "보험금 청구 절차는?", svc.question)
	assert.Equal(t, 200, svc.opts.MaxTokens)
}

func TestChat_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"blank message", `{"message":"   "}`},
		{"missing message", `{}`},
		{"malformed json", `{"message":`},
		{"max_length out of range", `{"message":"q","max_length":99999}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			w := do(newRouter(svc, nil), http.MethodPost, "/api/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_input", decode[utils.ErrorResponse](t, w).ErrorCode)
			assert.Empty(t, svc.question)
		})
	}
}

func TestChat_PipelineErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"embedding", &rag.Error{Kind: rag.KindEmbedding, Message: "failed to embed question", Err: errors.New("x")}, http.StatusBadGateway, "embedding_failed"},
		{"retrieval", &rag.Error{Kind: rag.KindRetrieval, Category: rag.CategoryLaw, Message: "m", Err: errors.New("x")}, http.StatusBadGateway, "retrieval_failed"},
		{"synthesis", &rag.Error{Kind: rag.KindSynthesis, Message: "m", Err: errors.New("x")}, http.StatusBadGateway, "synthesis_failed"},
		{"model unavailable", &rag.Error{Kind: rag.KindSynthesis, Message: "m", Err: ai.ErrModelUnavailable}, http.StatusServiceUnavailable, "model_unavailable"},
		{"timeout", &rag.Error{Kind: rag.KindRetrieval, Message: "m", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&fakeService{err: tt.err}, nil), http.MethodPost, "/api/chat", `{"message":"q"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decode[utils.ErrorResponse](t, w).ErrorCode)
		})
	}
}

func TestChat_ClientCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"during retrieval", &rag.Error{Kind: rag.KindRetrieval, Category: rag.CategoryCase, Message: "m", Err: context.Canceled}},
		{"during synthesis", &rag.Error{Kind: rag.KindSynthesis, Message: "m", Err: context.Canceled}},
		{"unwrapped", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&fakeService{err: tt.err}, nil), http.MethodPost, "/api/chat", `{"message":"q"}`)
			assert.Equal(t, 499, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestChat_RetrievalErrorNamesCategory(t *testing.T) {
	err := &rag.Error{Kind: rag.KindRetrieval, Category: rag.CategoryPractice, Message: "m", Err: errors.New("x")}
	w := do(newRouter(&fakeService{err: err}, nil), http.MethodPost, "/api/chat", `{"message":"q"}`)

	var body struct {
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "practice", body.Details["category"])
	assert.Equal(t, false, body.Details["retryable"])
}

func TestChatBot(t *testing.T) {
	svc := &fakeService{reply: &rag.AssistReply{Response: "안내드립니다.", Action: rag.ActionAccountHelp}}
	w := do(newRouter(svc, nil), http.MethodPost, "/api/chatBot", `{"prompt":"로그인이 안 돼요","temperature":0.9}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.AIResponse](t, w)
	assert.Equal(t, "안내드립니다.", resp.Response)
	assert.Equal(t, rag.ActionAccountHelp, resp.Action)
}

func TestChatBot_ErrorStillOK(t *testing.T) {
	w := do(newRouter(&fakeService{err: errors.New("quota exceeded")}, nil), http.MethodPost, "/api/chatBot", `{"prompt":"문의"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.AIResponse](t, w)
	assert.Equal(t, rag.AssistUnavailable, resp.Response)
	assert.Equal(t, "error: quota exceeded", resp.Action)
}

func TestSearch(t *testing.T) {
	svc := &fakeService{retrieved: &rag.Retrieved{Cases: []rag.CaseDoc{{CaseNo: "2019다1"}}}}
	w := do(newRouter(svc, nil), http.MethodGet, "/api/search?query=%EC%86%90%ED%95%B4%EB%B0%B0%EC%83%81", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.SearchResponse](t, w)
	assert.Equal(t, "손해배상", resp.Query)
	assert.Len(t, resp.Cases, 1)
	assert.NotNil(t, resp.Laws)
	assert.Contains(t, w.Body.String(), `"practices":[]`)
}

func TestSearch_MissingQuery(t *testing.T) {
	w := do(newRouter(&fakeService{}, nil), http.MethodGet, "/api/search?query=+", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsync_WithoutQueue(t *testing.T) {
	r := newRouter(&fakeService{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/api/chat/async", `{"message":"q"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/chat/jobs/abc", "").Code)
}

func TestAsync_Enqueue(t *testing.T) {
	w := do(newRouter(&fakeService{}, &fakeJobs{id: "job-42"}), http.MethodPost, "/api/chat/async", `{"message":"q"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.AsyncJob{JobID: "job-42", Status: "pending"}, decode[models.AsyncJob](t, w))
}

func TestAsync_EnqueueFailure(t *testing.T) {
	w := do(newRouter(&fakeService{}, &fakeJobs{err: errors.New("redis down")}), http.MethodPost, "/api/chat/async", `{"message":"q"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestJobStatus(t *testing.T) {
	jobs := &fakeJobs{status: &queue.JobStatus{ID: "job-42", State: "completed", Result: &queue.AnswerResult{ReplyAnswer: "답"}}}
	w := do(newRouter(&fakeService{}, jobs), http.MethodGet, "/api/chat/jobs/job-42", "")

	require.Equal(t, http.StatusOK, w.Code)
	st := decode[queue.JobStatus](t, w)
	assert.Equal(t, "completed", st.State)
	assert.Equal(t, "답", st.Result.ReplyAnswer)
}

func TestJobStatus_NotFound(t *testing.T) {
	w := do(newRouter(&fakeService{}, &fakeJobs{err: queue.ErrJobNotFound}), http.MethodGet, "/api/chat/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type staticProbe health.Status

func (s staticProbe) Status() health.Status { return health.Status(s) }

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	SetupHealthRoutes(r, staticProbe{Ready: false, Error: "collection laws is empty"})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	w := do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "collection laws is empty")

	r = gin.New()
	SetupHealthRoutes(r, staticProbe{Ready: true})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "").Code)

	r = gin.New()
	SetupHealthRoutes(r, nil)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "").Code)
}
