package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragquiz/internal/app"
	"ragquiz/internal/model"
	"ragquiz/internal/pkg/docextract"
	"ragquiz/internal/transport/http/response"
)

type DocumentService interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
	Clear(ctx context.Context) (*app.ClearResult, error)
	List(ctx context.Context) ([]model.Document, error)
}

type DocumentHandler struct {
	documents DocumentService
	maxBytes  int64
	logger    *zap.Logger
}

func NewDocumentHandler(documents DocumentService, maxBytes int64, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{documents: documents, maxBytes: maxBytes, logger: logger}
}

// Upload accepts a multipart form with a single "file" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "No file part")
		return
	}
	if file.Filename == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "No selected file")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge,
			fmt.Sprintf("file too large (max %dMB)", h.maxBytes>>20))
		return
	}
	if !docextract.Supported(file.Filename) {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "File type not supported or file is empty")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	result, err := h.documents.Ingest(c.Request.Context(), app.IngestInput{
		Filename: file.Filename,
		Data:     data,
	})
	if err != nil {
		writeServiceError(c, err, h.logger)
		return
	}
	response.OKMessage(c, "File processed: "+result.Document.Name, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, h.logger)
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Clear(c *gin.Context) {
	result, err := h.documents.Clear(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, h.logger)
		return
	}
	response.OKMessage(c, result.Message, result)
}
