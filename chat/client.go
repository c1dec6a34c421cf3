package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/itish2003/docchat/models"
)

// ChatPath is the server route answering questions.
const ChatPath = "/api/chat"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// HTTPClient is a Pipeline backed by a docchat server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Pipeline = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at baseURL. A nil httpClient
// means http.DefaultClient; its Timeout, if any, applies to every request.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// chatResponseBody mirrors models.ChatResponse but keeps track of whether
// text was present at all.
type chatResponseBody struct {
	Text            *string                 `json:"text"`
	SourceDocuments []models.SourceDocument `json:"sourceDocuments"`
	Error           string                  `json:"error"`
}

// Ask posts the question and history to the server. A body carrying an
// error field is a Failure whatever the status code.
func (c *HTTPClient) Ask(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(models.ChatRequest{
		Question: req.Question,
		History:  historyToWire(req.History),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call chat api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	var data chatResponseBody
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}
	c.logger.Debug("chat response", "status", resp.StatusCode, "sources", len(data.SourceDocuments))

	if data.Error != "" {
		return Failure{Message: data.Error}, nil
	}
	if data.Text == nil {
		return nil, fmt.Errorf("chat response (status %d): %w", resp.StatusCode, errMissingText)
	}

	var sources []SourceDocument
	if len(data.SourceDocuments) > 0 {
		sources = make([]SourceDocument, 0, len(data.SourceDocuments))
		for _, doc := range data.SourceDocuments {
			sources = append(sources, sourceFromWire(doc))
		}
	}
	return Success{Text: *data.Text, Sources: sources}, nil
}

var errMissingText = errors.New("response has neither text nor error")
