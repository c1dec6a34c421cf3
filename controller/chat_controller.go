package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itish2003/docchat/models"
	"github.com/itish2003/docchat/services"
)

// ChatController handles the HTTP requests for the chat API. It depends on
// the ChatService to perform the actual business logic.
type ChatController struct {
	chatService services.ChatService
	logger      *slog.Logger
}

// NewChatController creates a ChatController around service.
func NewChatController(service services.ChatService, logger *slog.Logger) *ChatController {
	return &ChatController{
		chatService: service,
		logger:      logger,
	}
}

// Chat is the Gin handler for the POST /api/chat endpoint.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ChatResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	req.Question = services.SanitizeQuestion(req.Question)
	if req.Question == "" {
		ctx.JSON(http.StatusBadRequest, models.ChatResponse{Error: "No question in the request"})
		return
	}

	response, err := c.chatService.Chat(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuestion) {
			ctx.JSON(http.StatusBadRequest, models.ChatResponse{Error: "No question in the request"})
			return
		}
		c.logger.Error("chat failed", "error", err, "request_id", requestID(ctx))
		ctx.JSON(http.StatusInternalServerError, models.ChatResponse{Error: "Failed to generate AI response"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// IngestDocument is the Gin handler for the POST /api/v1/documents endpoint.
func (c *ChatController) IngestDocument(ctx *gin.Context) {
	var req models.IngestDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	chunks, err := c.chatService.IngestDocument(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Error("ingest failed", "error", err, "request_id", requestID(ctx))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest document"})
		return
	}

	ctx.JSON(http.StatusCreated, models.IngestDocumentResponse{
		Message: "Document ingested successfully",
		Chunks:  chunks,
	})
}

// ListDocuments is the Gin handler for the GET /api/v1/documents endpoint.
func (c *ChatController) ListDocuments(ctx *gin.Context) {
	response, err := c.chatService.ListDocuments(ctx.Request.Context())
	if err != nil {
		c.logger.Error("list documents failed", "error", err, "request_id", requestID(ctx))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve documents"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Health reports liveness and the size of the index.
func (c *ChatController) Health(ctx *gin.Context) {
	chunks, err := c.chatService.CountChunks(ctx.Request.Context())
	if err != nil {
		c.logger.Warn("health check could not reach the index", "error", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"service": "docchat",
			"version": Version,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "docchat",
		"version": Version,
		"chunks":  chunks,
	})
}
