package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragquiz/internal/app"
	"ragquiz/internal/model"
	"ragquiz/internal/transport/http/middleware"
	"ragquiz/internal/transport/http/response"
)

type GenerationService interface {
	Generate(ctx context.Context, input app.GenerateInput) (*app.GenerateResult, error)
	History(ctx context.Context, limit int) ([]model.GenerationRecord, error)
}

type GenerationHandler struct {
	generations GenerationService
	logger      *zap.Logger
}

// GenerateRequest keeps the camelCase field names the quiz UI sends.
type GenerateRequest struct {
	Query        string `json:"query"`
	NumQuestions *int   `json:"numQuestions" binding:"omitempty,min=0,max=50"`
	Type         string `json:"type"`
	UseTavily    *bool  `json:"useTavily"`
}

func NewGenerationHandler(generations GenerationService, logger *zap.Logger) *GenerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{generations: generations, logger: logger}
}

func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.generations.Generate(c.Request.Context(), app.GenerateInput{
		Query:          req.Query,
		Kind:           req.Type,
		NumQuestions:   req.NumQuestions,
		UseWebFallback: req.UseTavily,
		Subject:        middleware.Subject(c),
	})
	if err != nil {
		writeServiceError(c, err, h.logger)
		return
	}
	response.OK(c, result)
}

func (h *GenerationHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.generations.History(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err, h.logger)
		return
	}
	response.OK(c, records)
}
