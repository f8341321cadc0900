package service

import (
	"context"
	"testing"
	"time"

	"legalis/internal/engine"
	enginemocks "legalis/internal/engine/mocks"
	"legalis/internal/models"
	"legalis/internal/repository"
	repomocks "legalis/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type replyServiceMocks struct {
	docRepo      *repomocks.MockDocumentRepository
	analysisRepo *repomocks.MockAnalysisRepository
	replyRepo    *repomocks.MockReplyLetterRepository
	engine       *enginemocks.MockClient
}

func newReplyService(t *testing.T) (*ReplyService, *replyServiceMocks) {
	t.Helper()
	m := &replyServiceMocks{
		docRepo:      new(repomocks.MockDocumentRepository),
		analysisRepo: new(repomocks.MockAnalysisRepository),
		replyRepo:    new(repomocks.MockReplyLetterRepository),
		engine:       new(enginemocks.MockClient),
	}
	svc := NewReplyService(m.docRepo, m.analysisRepo, m.replyRepo, m.engine, zap.NewNop())
	return svc, m
}

func completedAnalysis(docID uuid.UUID) *models.Analysis {
	return &models.Analysis{
		ID:           uuid.New(),
		DocumentID:   docID,
		DocumentType: "lease",
		Summary:      "A twelve month residential lease.",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCompose_Success(t *testing.T) {
	svc, m := newReplyService(t)
	userID := uuid.New()
	doc := pendingDocument(userID)
	responses := map[string]string{"What is the notice period?": "Thirty days."}

	m.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	m.analysisRepo.On("GetByDocumentID", mock.Anything, doc.ID).Return(completedAnalysis(doc.ID), nil)
	m.engine.On("Send", mock.Anything, mock.Anything, (*engine.Attachment)(nil)).Return("Dear Sir or Madam, ...", nil)
	m.replyRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ReplyLetter")).Return(nil)

	reply, err := svc.Compose(context.Background(), userID, doc.ID, responses)

	assert.NoError(t, err)
	assert.Equal(t, doc.ID, reply.DocumentID)
	assert.Equal(t, "Dear Sir or Madam, ...", reply.GeneratedLetter)
	assert.Equal(t, responses, reply.UserResponses)
	m.replyRepo.AssertExpectations(t)

	// The prompt carries the analysis context and the user's answers.
	prompt := m.engine.Calls[0].Arguments.String(1)
	assert.Contains(t, prompt, "lease")
	assert.Contains(t, prompt, "Thirty days.")
}

func TestCompose_NoAnalysisYet(t *testing.T) {
	svc, m := newReplyService(t)
	userID := uuid.New()
	doc := pendingDocument(userID)

	m.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	m.analysisRepo.On("GetByDocumentID", mock.Anything, doc.ID).Return(nil, repository.ErrNotFound)

	reply, err := svc.Compose(context.Background(), userID, doc.ID, map[string]string{})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, reply)
	// Without an analysis the engine is never invoked.
	m.engine.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompose_NotOwned(t *testing.T) {
	svc, m := newReplyService(t)
	docID := uuid.New()
	strangerID := uuid.New()

	m.docRepo.On("GetByIDAndUser", mock.Anything, docID, strangerID).Return(nil, repository.ErrNotFound)

	reply, err := svc.Compose(context.Background(), strangerID, docID, map[string]string{})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, reply)
	m.analysisRepo.AssertNotCalled(t, "GetByDocumentID", mock.Anything, mock.Anything)
}

func TestCompose_EngineFailurePersistsNothing(t *testing.T) {
	svc, m := newReplyService(t)
	userID := uuid.New()
	doc := pendingDocument(userID)

	m.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	m.analysisRepo.On("GetByDocumentID", mock.Anything, doc.ID).Return(completedAnalysis(doc.ID), nil)
	m.engine.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("", engine.ErrUnavailable)

	reply, err := svc.Compose(context.Background(), userID, doc.ID, map[string]string{"q": "a"})

	assert.ErrorIs(t, err, engine.ErrUnavailable)
	assert.Nil(t, reply)
	m.replyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
