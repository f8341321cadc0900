package handlers

import (
	"errors"
	"fmt"
	"io"
	"time"

	"legalis/internal/dto"
	"legalis/internal/engine"
	"legalis/internal/models"
	"legalis/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService   *service.DocumentService
	replyService *service.ReplyService
	logger       *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, replyService *service.ReplyService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:   docService,
		replyService: replyService,
		logger:       logger,
	}
}

// UploadDocument godoc
// @Summary Upload a legal document for analysis
// @Description Accepts a PDF, DOCX or plain-text file, records it and starts analysis in the background. Poll the document status to observe progress.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (PDF, DOCX or TXT)"
// @Security Bearer
// @Success 201 {object} dto.UploadDocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	// Reject unsupported media types before any record exists
	mediaType := file.Header.Get("Content-Type")
	if !models.SupportedMediaType(mediaType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type. Only PDF, DOCX and plain text are accepted",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	doc, err := h.docService.UploadDocument(c.Context(), userID, file.Filename, mediaType, data)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedMediaType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported file type. Only PDF, DOCX and plain text are accepted",
			})
		}
		h.logger.Error("Failed to upload document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload document",
		})
	}

	h.docService.StartAnalysis(doc, data)

	return c.Status(fiber.StatusCreated).JSON(dto.UploadDocumentResponse{
		DocumentID: doc.ID.String(),
		Message:    "Document uploaded and analysis started",
	})
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get the caller's uploaded documents, newest first
// @Tags documents
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.DocumentResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)

	docs, err := h.docService.ListDocuments(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	responses := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}

	return c.JSON(responses)
}

// GetDocument godoc
// @Summary Get document status
// @Description Get a document's metadata and analysis status. Clients poll this to observe the analysis lifecycle.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.docService.GetDocument(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to get document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get document",
		})
	}

	return c.JSON(toDocumentResponse(doc))
}

// GetAnalysis godoc
// @Summary Get document analysis
// @Description Get a document together with its completed analysis
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentAnalysisResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/analysis [get]
func (h *DocumentHandler) GetAnalysis(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, analysis, err := h.docService.GetAnalysis(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Analysis not found",
			})
		}
		h.logger.Error("Failed to get analysis", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get analysis",
		})
	}

	return c.JSON(dto.DocumentAnalysisResponse{
		Document: toDocumentResponse(doc),
		Analysis: dto.AnalysisResponse{
			ID:                 analysis.ID.String(),
			DocumentID:         analysis.DocumentID.String(),
			DocumentType:       analysis.DocumentType,
			Summary:            analysis.Summary,
			KeyTerms:           analysis.KeyTerms,
			Calculations:       analysis.Calculations,
			RiskAssessment:     analysis.RiskAssessment,
			FraudIndicators:    analysis.FraudIndicators,
			UnusualClauses:     analysis.UnusualClauses,
			SuggestedQuestions: analysis.SuggestedQuestions,
			CreatedAt:          analysis.CreatedAt.Format(time.RFC3339),
		},
	})
}

// GenerateReply godoc
// @Summary Generate a reply letter
// @Description Compose a reply letter from the document's analysis and the caller's answers
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body dto.ReplyRequest true "Answers to the analysis' suggested questions"
// @Security Bearer
// @Success 200 {object} dto.ReplyResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/documents/{id}/reply [post]
func (h *DocumentHandler) GenerateReply(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reply, err := h.replyService.Compose(c.Context(), userID, documentID, req.UserResponses)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Analysis not found",
			})
		case errors.Is(err, engine.ErrUnavailable):
			h.logger.Error("Reply generation failed at the engine", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Letter generation is temporarily unavailable",
			})
		}
		h.logger.Error("Failed to generate reply", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate reply",
		})
	}

	return c.JSON(dto.ReplyResponse{
		ReplyID: reply.ID.String(),
		Letter:  reply.GeneratedLetter,
	})
}

// ListReplies godoc
// @Summary List generated reply letters
// @Description Get every reply letter generated for a document, newest first
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.ReplyLetterResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/replies [get]
func (h *DocumentHandler) ListReplies(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	replies, err := h.replyService.ListReplies(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to list replies", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list replies",
		})
	}

	responses := make([]dto.ReplyLetterResponse, len(replies))
	for i, reply := range replies {
		responses[i] = dto.ReplyLetterResponse{
			ReplyID:       reply.ID.String(),
			UserResponses: reply.UserResponses,
			Letter:        reply.GeneratedLetter,
			CreatedAt:     reply.CreatedAt.Format(time.RFC3339),
		}
	}

	return c.JSON(responses)
}

// DownloadDocument godoc
// @Summary Download the original document
// @Description Stream the archived file exactly as it was uploaded
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {file} file
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/download [get]
func (h *DocumentHandler) DownloadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, rc, err := h.docService.Download(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to download document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to download document",
		})
	}

	c.Set(fiber.HeaderContentType, doc.MediaType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, doc.Filename))
	return c.SendStream(rc, int(doc.FileSize))
}

func toDocumentResponse(doc *models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:             doc.ID.String(),
		Filename:       doc.Filename,
		MediaType:      doc.MediaType,
		FileSize:       doc.FileSize,
		AnalysisStatus: string(doc.AnalysisStatus),
		UploadedAt:     doc.UploadedAt.Format(time.RFC3339),
	}
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}
