package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/docchat/models"
)

type fakeChatService struct {
	lastChat   models.ChatRequest
	chatCalls  int
	chatResp   *models.ChatResponse
	chatErr    error
	ingestErr  error
	lastIngest models.IngestDocumentRequest
	docs       *models.ListDocumentsResponse
	count      int
	countErr   error
}

func (f *fakeChatService) Chat(_ context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.chatCalls++
	f.lastChat = req
	return f.chatResp, f.chatErr
}

func (f *fakeChatService) IngestDocument(_ context.Context, req models.IngestDocumentRequest) (int, error) {
	f.lastIngest = req
	if f.ingestErr != nil {
		return 0, f.ingestErr
	}
	return 3, nil
}

func (f *fakeChatService) ListDocuments(_ context.Context) (*models.ListDocumentsResponse, error) {
	return f.docs, nil
}

func (f *fakeChatService) CountChunks(_ context.Context) (int, error) {
	return f.count, f.countErr
}

func newTestRouter(svc *fakeChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(NewChatController(svc, logger), logger)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestChatSuccess(t *testing.T) {
	svc := &fakeChatService{chatResp: &models.ChatResponse{
		Text: "It is...",
		SourceDocuments: []models.SourceDocument{
			{PageContent: "p", Metadata: map[string]interface{}{"source": "u1", "title": "Doc1"}},
		},
	}}
	router := newTestRouter(svc)

	w := do(t, router, http.MethodPost, "/api/chat",
		`{"question":"  What is\nSoroban? ","history":[["q1","a1"]]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"text":"It is...","sourceDocuments":[{"pageContent":"p","metadata":{"source":"u1","title":"Doc1"}}]}`,
		w.Body.String())
	assert.Equal(t, "What is Soroban?", svc.lastChat.Question)
	assert.Equal(t, []models.HistoryPair{{"q1", "a1"}}, svc.lastChat.History)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestChatMissingQuestion(t *testing.T) {
	for _, body := range []string{`{}`, `{"question":"   "}`, `{"question":"\n","history":[]}`} {
		svc := &fakeChatService{}
		w := do(t, newTestRouter(svc), http.MethodPost, "/api/chat", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "No question in the request", decode(t, w)["error"])
		assert.Zero(t, svc.chatCalls)
	}
}

func TestChatInvalidBody(t *testing.T) {
	svc := &fakeChatService{}
	w := do(t, newTestRouter(svc), http.MethodPost, "/api/chat", `{"question":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Invalid request body")
}

func TestChatServiceFailure(t *testing.T) {
	svc := &fakeChatService{chatErr: errors.New("chroma is down")}
	w := do(t, newTestRouter(svc), http.MethodPost, "/api/chat", `{"question":"hi","history":[]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Failed to generate AI response", body["error"])
	assert.NotContains(t, w.Body.String(), "chroma")
}

func TestChatMethodNotAllowed(t *testing.T) {
	w := do(t, newTestRouter(&fakeChatService{}), http.MethodGet, "/api/chat", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decode(t, w)["error"])
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestRouter(&fakeChatService{}), http.MethodOptions, "/api/chat", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIngestDocument(t *testing.T) {
	svc := &fakeChatService{}
	router := newTestRouter(svc)

	w := do(t, router, http.MethodPost, "/api/v1/documents", `{"text":"Fees are paid in XLM.","source":"fees.md"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["chunks"])
	assert.Equal(t, "fees.md", svc.lastIngest.Source)

	w = do(t, router, http.MethodPost, "/api/v1/documents", `{"source":"fees.md"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.ingestErr = errors.New("embedder down")
	w = do(t, router, http.MethodPost, "/api/v1/documents", `{"text":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListDocuments(t *testing.T) {
	svc := &fakeChatService{docs: &models.ListDocumentsResponse{
		Count:     1,
		Documents: []models.Document{{ID: "1", Text: "t"}},
	}}
	w := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/documents", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1,"documents":[{"id":"1","text":"t"}]}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	svc := &fakeChatService{count: 42}
	router := newTestRouter(svc)

	w := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(42), body["chunks"])

	svc.countErr = errors.New("unreachable")
	w = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
