package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"legalis/internal/engine"
	"legalis/internal/models"
	"legalis/internal/repository"
	"legalis/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// DocumentService owns the document analysis lifecycle: the fast phase that
// records an upload as pending, and the slow phase that drives the record
// through analyzing to completed or failed.
type DocumentService struct {
	docRepo        repository.DocumentRepository
	analysisRepo   repository.AnalysisRepository
	store          storage.Storage
	engine         engine.Client
	analyzeTimeout time.Duration
	logger         *zap.Logger
}

func NewDocumentService(
	docRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	store storage.Storage,
	engineClient engine.Client,
	analyzeTimeout time.Duration,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:        docRepo,
		analysisRepo:   analysisRepo,
		store:          store,
		engine:         engineClient,
		analyzeTimeout: analyzeTimeout,
		logger:         logger,
	}
}

// UploadDocument runs the fast phase: validate the declared media type,
// archive the raw bytes, insert the document record in pending. The slow
// phase has not started when this returns; the caller observes progress by
// polling the status.
func (s *DocumentService) UploadDocument(ctx context.Context, userID uuid.UUID, filename, mediaType string, data []byte) (*models.Document, error) {
	// The upload boundary already filters media types; re-checking here keeps
	// the invariant even for callers that bypass HTTP.
	if !models.SupportedMediaType(mediaType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}

	docID := uuid.New()
	key := "documents/" + docID.String() + filepath.Ext(filename)

	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mediaType); err != nil {
		return nil, fmt.Errorf("archive file: %w", err)
	}

	doc := &models.Document{
		ID:             docID,
		UserID:         userID,
		Filename:       filename,
		MediaType:      mediaType,
		FileSize:       int64(len(data)),
		StorageKey:     key,
		AnalysisStatus: models.StatusPending,
		UploadedAt:     time.Now().UTC(),
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to roll back archived file", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create document record: %w", err)
	}

	return doc, nil
}

// StartAnalysis dispatches the slow phase onto a background goroutine bounded
// by the configured engine timeout. Upload acknowledgment and analysis
// completion are decoupled; failures surface only as the failed status.
func (s *DocumentService) StartAnalysis(doc *models.Document, data []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.analyzeTimeout)
		defer cancel()
		s.Analyze(ctx, doc, data)
	}()
}

// Analyze runs the slow phase for one document. Every step is an observable
// state on the record store: the analyzing transition is persisted before the
// engine call, and the analysis record is inserted before the completed flip,
// so a completed status always implies the analysis exists.
func (s *DocumentService) Analyze(ctx context.Context, doc *models.Document, data []byte) {
	moved, err := s.docRepo.UpdateStatus(ctx, doc.ID, models.StatusPending, models.StatusAnalyzing)
	if err != nil {
		s.logger.Error("Failed to transition document to analyzing",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		s.fail(doc.ID)
		return
	}
	if !moved {
		// Another submission won the race, or the document is already
		// terminal. Abort with no side effects.
		s.logger.Warn("Document not in pending state, skipping analysis",
			zap.String("document_id", doc.ID.String()))
		return
	}

	raw, err := s.engine.Send(ctx, analysisPrompt, &engine.Attachment{
		Filename:  doc.Filename,
		MediaType: doc.MediaType,
		Data:      data,
	})
	if err != nil {
		s.logger.Error("Engine analysis call failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		s.fail(doc.ID)
		return
	}

	interp := InterpretAnalysis(raw)
	if interp.Degraded {
		s.logger.Warn("Engine response was not structured, stored degraded analysis",
			zap.String("document_id", doc.ID.String()))
	}

	analysis := &models.Analysis{
		ID:                 uuid.New(),
		DocumentID:         doc.ID,
		DocumentType:       interp.DocumentType,
		Summary:            sanitizeUTF8(interp.Summary),
		KeyTerms:           interp.KeyTerms,
		Calculations:       interp.Calculations,
		RiskAssessment:     interp.RiskAssessment,
		FraudIndicators:    interp.FraudIndicators,
		UnusualClauses:     interp.UnusualClauses,
		SuggestedQuestions: interp.SuggestedQuestions,
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		s.logger.Error("Failed to persist analysis",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		s.fail(doc.ID)
		return
	}

	if _, err := s.docRepo.UpdateStatus(ctx, doc.ID, models.StatusAnalyzing, models.StatusCompleted); err != nil {
		s.logger.Error("Failed to transition document to completed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
		return
	}

	s.logger.Info("Document analysis completed",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_type", analysis.DocumentType))
}

// fail flips the document to failed on a fresh context: the analysis context
// may already be expired when this runs, and the terminal transition must
// still be persisted. The update matches only analyzing rows, so when the
// pending -> analyzing transition itself errored the record stays pending and
// a later submission can retry it.
func (s *DocumentService) fail(docID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.docRepo.UpdateStatus(ctx, docID, models.StatusAnalyzing, models.StatusFailed); err != nil {
		s.logger.Error("Failed to transition document to failed",
			zap.String("document_id", docID.String()), zap.Error(err))
	}
}

// GetDocument returns a document owned by userID. Absence and ownership
// mismatch are both ErrNotFound; the caller cannot tell them apart.
func (s *DocumentService) GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docRepo.GetByIDAndUser(ctx, documentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// GetAnalysis returns a document together with its analysis. ErrNotFound when
// the document is missing, not owned, or has no analysis yet.
func (s *DocumentService) GetAnalysis(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, *models.Analysis, error) {
	doc, err := s.GetDocument(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := s.analysisRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	return doc, analysis, nil
}

// Download returns a document owned by userID together with a reader over its
// archived bytes. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.GetDocument(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch archived file: %w", err)
	}

	return doc, rc, nil
}

// ListDocuments lists the caller's documents, newest first.
func (s *DocumentService) ListDocuments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.docRepo.ListByUserID(ctx, userID, limit, offset)
}
