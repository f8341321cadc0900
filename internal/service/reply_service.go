package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legalis/internal/engine"
	"legalis/internal/models"
	"legalis/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReplyService composes reply letters from a completed analysis and the
// user's answers to its suggested questions.
type ReplyService struct {
	docRepo      repository.DocumentRepository
	analysisRepo repository.AnalysisRepository
	replyRepo    repository.ReplyLetterRepository
	engine       engine.Client
	logger       *zap.Logger
}

func NewReplyService(
	docRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	replyRepo repository.ReplyLetterRepository,
	engineClient engine.Client,
	logger *zap.Logger,
) *ReplyService {
	return &ReplyService{
		docRepo:      docRepo,
		analysisRepo: analysisRepo,
		replyRepo:    replyRepo,
		engine:       engineClient,
		logger:       logger,
	}
}

// Compose generates a reply letter for a document the caller owns. It
// requires a prior analysis; without one the engine is never invoked. Engine
// failure propagates to the caller because a letter has no degraded form.
func (s *ReplyService) Compose(ctx context.Context, userID, documentID uuid.UUID, userResponses map[string]string) (*models.ReplyLetter, error) {
	if _, err := s.docRepo.GetByIDAndUser(ctx, documentID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	analysis, err := s.analysisRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	prompt := replyPrompt(analysis.DocumentType, analysis.Summary, userResponses)

	letter, err := s.engine.Send(ctx, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("generate reply letter: %w", err)
	}

	reply := &models.ReplyLetter{
		ID:              uuid.New(),
		DocumentID:      documentID,
		UserResponses:   userResponses,
		GeneratedLetter: sanitizeUTF8(letter),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.replyRepo.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("persist reply letter: %w", err)
	}

	s.logger.Info("Reply letter generated",
		zap.String("document_id", documentID.String()),
		zap.String("reply_id", reply.ID.String()))

	return reply, nil
}

// ListReplies returns the letters generated for a document the caller owns,
// newest first.
func (s *ReplyService) ListReplies(ctx context.Context, userID, documentID uuid.UUID) ([]*models.ReplyLetter, error) {
	if _, err := s.docRepo.GetByIDAndUser(ctx, documentID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.replyRepo.ListByDocumentID(ctx, documentID)
}
