package service

import (
	"context"
	"errors"
	"testing"
	"time"

	enginemocks "legalis/internal/engine/mocks"
	"legalis/internal/models"
	"legalis/internal/repository"
	repomocks "legalis/internal/repository/mocks"
	storagemocks "legalis/internal/storage/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type documentServiceMocks struct {
	docRepo      *repomocks.MockDocumentRepository
	analysisRepo *repomocks.MockAnalysisRepository
	store        *storagemocks.MockStorage
	engine       *enginemocks.MockClient
}

func newDocumentService(t *testing.T) (*DocumentService, *documentServiceMocks) {
	t.Helper()
	m := &documentServiceMocks{
		docRepo:      new(repomocks.MockDocumentRepository),
		analysisRepo: new(repomocks.MockAnalysisRepository),
		store:        new(storagemocks.MockStorage),
		engine:       new(enginemocks.MockClient),
	}
	svc := NewDocumentService(m.docRepo, m.analysisRepo, m.store, m.engine, 30*time.Second, zap.NewNop())
	return svc, m
}

func pendingDocument(userID uuid.UUID) *models.Document {
	id := uuid.New()
	return &models.Document{
		ID:             id,
		UserID:         userID,
		Filename:       "contract.txt",
		MediaType:      models.MediaTypeText,
		FileSize:       42,
		StorageKey:     "documents/" + id.String() + ".txt",
		AnalysisStatus: models.StatusPending,
		UploadedAt:     time.Now().UTC(),
	}
}

func TestUploadDocument_Success(t *testing.T) {
	svc, m := newDocumentService(t)
	userID := uuid.New()
	data := []byte("This agreement is made between the parties...")

	m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(len(data)), models.MediaTypeText).Return(nil)
	m.docRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Document")).Return(nil)

	doc, err := svc.UploadDocument(context.Background(), userID, "contract.txt", models.MediaTypeText, data)

	assert.NoError(t, err)
	assert.Equal(t, userID, doc.UserID)
	assert.Equal(t, models.StatusPending, doc.AnalysisStatus)
	assert.Equal(t, int64(len(data)), doc.FileSize)
	assert.Contains(t, doc.StorageKey, "documents/")
	m.store.AssertExpectations(t)
	m.docRepo.AssertExpectations(t)
}

func TestUploadDocument_UnsupportedMediaType(t *testing.T) {
	svc, m := newDocumentService(t)

	doc, err := svc.UploadDocument(context.Background(), uuid.New(), "photo.jpg", "image/jpeg", []byte{0xFF})

	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Nil(t, doc)
	// Nothing is archived or recorded for a rejected upload.
	m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadDocument_RecordFailureRollsBackArchive(t *testing.T) {
	svc, m := newDocumentService(t)

	m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.docRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	m.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

	doc, err := svc.UploadDocument(context.Background(), uuid.New(), "contract.pdf", models.MediaTypePDF, []byte("%PDF-1.4"))

	assert.Error(t, err)
	assert.Nil(t, doc)
	m.store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAnalyze_Success(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())
	data := []byte("This agreement is made between the parties...")

	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(true, nil)
	m.engine.On("Send", mock.Anything, mock.Anything, mock.AnythingOfType("*engine.Attachment")).Return(structuredResponse, nil)
	m.analysisRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Analysis")).Return(nil)
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusCompleted).Return(true, nil)

	svc.Analyze(context.Background(), doc, data)

	m.docRepo.AssertExpectations(t)
	m.engine.AssertExpectations(t)
	m.analysisRepo.AssertExpectations(t)

	created := m.analysisRepo.Calls[0].Arguments.Get(1).(*models.Analysis)
	assert.Equal(t, doc.ID, created.DocumentID)
	assert.Equal(t, "lease", created.DocumentType)
	assert.NotEmpty(t, created.Summary)
}

func TestAnalyze_SkipsWhenNotPending(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())

	// A concurrent run already moved the document out of pending.
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(false, nil)

	svc.Analyze(context.Background(), doc, []byte("data"))

	m.engine.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	m.analysisRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.docRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusCompleted)
}

func TestAnalyze_TransitionErrorLeavesDocumentPending(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())

	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(false, errors.New("db down"))
	// The failed flip matches only analyzing rows; a still-pending record is
	// untouched and stays retryable.
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusFailed).Return(false, nil)

	svc.Analyze(context.Background(), doc, []byte("data"))

	m.engine.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	m.analysisRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.docRepo.AssertExpectations(t)
}

func TestAnalyze_EngineFailureMarksFailed(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())

	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(true, nil)
	m.engine.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("engine unreachable"))
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusFailed).Return(true, nil)

	svc.Analyze(context.Background(), doc, []byte("data"))

	m.docRepo.AssertExpectations(t)
	m.analysisRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAnalyze_PersistFailureMarksFailed(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())

	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(true, nil)
	m.engine.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(structuredResponse, nil)
	m.analysisRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusFailed).Return(true, nil)

	svc.Analyze(context.Background(), doc, []byte("data"))

	// completed is never reached when the analysis record cannot be written.
	m.docRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusCompleted)
	m.docRepo.AssertExpectations(t)
}

func TestAnalyze_DegradedResponseStillCompletes(t *testing.T) {
	svc, m := newDocumentService(t)
	doc := pendingDocument(uuid.New())

	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusPending, models.StatusAnalyzing).Return(true, nil)
	m.engine.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("plain prose, no JSON at all", nil)
	m.analysisRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Analysis")).Return(nil)
	m.docRepo.On("UpdateStatus", mock.Anything, doc.ID, models.StatusAnalyzing, models.StatusCompleted).Return(true, nil)

	svc.Analyze(context.Background(), doc, []byte("data"))

	created := m.analysisRepo.Calls[0].Arguments.Get(1).(*models.Analysis)
	assert.Equal(t, "unknown", created.DocumentType)
	assert.Equal(t, "plain prose, no JSON at all", created.Summary)
	assert.Equal(t, "medium", created.RiskAssessment.OverallRisk)
	m.docRepo.AssertExpectations(t)
}

func TestGetDocument_NotOwned(t *testing.T) {
	svc, m := newDocumentService(t)
	docID := uuid.New()
	strangerID := uuid.New()

	m.docRepo.On("GetByIDAndUser", mock.Anything, docID, strangerID).Return(nil, repository.ErrNotFound)

	doc, err := svc.GetDocument(context.Background(), strangerID, docID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, doc)
}

func TestGetAnalysis_NoAnalysisYet(t *testing.T) {
	svc, m := newDocumentService(t)
	userID := uuid.New()
	doc := pendingDocument(userID)

	m.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	m.analysisRepo.On("GetByDocumentID", mock.Anything, doc.ID).Return(nil, repository.ErrNotFound)

	_, analysis, err := svc.GetAnalysis(context.Background(), userID, doc.ID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, analysis)
}

func TestListDocuments_DefaultLimit(t *testing.T) {
	svc, m := newDocumentService(t)
	userID := uuid.New()

	m.docRepo.On("ListByUserID", mock.Anything, userID, 10, 0).Return([]*models.Document{}, nil)

	docs, err := svc.ListDocuments(context.Background(), userID, 0, -5)

	assert.NoError(t, err)
	assert.Empty(t, docs)
	m.docRepo.AssertExpectations(t)
}
