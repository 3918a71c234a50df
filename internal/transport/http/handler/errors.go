package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragquiz/internal/app"
	"ragquiz/internal/pkg/docextract"
	"ragquiz/internal/rag"
	"ragquiz/internal/transport/http/response"
)

const noResultsMessage = "No results generated. The context might be empty or irrelevant."

// writeServiceError maps service errors onto the response envelope.
func writeServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var soErr *rag.StructuredOutputError
	switch {
	case errors.Is(err, docextract.ErrUnsupportedFileType):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "File type not supported or file is empty")
	case errors.Is(err, docextract.ErrEmptyDocument):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "File type not supported or file is empty")
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNoResults):
		response.Error(c, http.StatusNotFound, response.CodeNoResults, noResultsMessage)
	case errors.As(err, &soErr):
		logger.Error("model output not recoverable",
			zap.String("kind", string(soErr.Kind)),
			zap.String("raw", soErr.Raw),
			zap.Error(err),
		)
		response.Error(c, http.StatusBadGateway, response.CodeBadModelOutput, "The model returned output that could not be parsed: "+err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "An error occurred: "+err.Error())
	}
}
