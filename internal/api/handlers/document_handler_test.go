package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	enginemocks "legalis/internal/engine/mocks"
	"legalis/internal/models"
	"legalis/internal/repository"
	repomocks "legalis/internal/repository/mocks"
	"legalis/internal/service"
	storagemocks "legalis/internal/storage/mocks"
	"legalis/pkg/auth"
	"legalis/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type handlerFixture struct {
	app        *fiber.App
	jwtManager *auth.JWTManager
	docRepo    *repomocks.MockDocumentRepository
	analysis   *repomocks.MockAnalysisRepository
	replies    *repomocks.MockReplyLetterRepository
	store      *storagemocks.MockStorage
	engine     *enginemocks.MockClient
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		jwtManager: auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour),
		docRepo:    new(repomocks.MockDocumentRepository),
		analysis:   new(repomocks.MockAnalysisRepository),
		replies:    new(repomocks.MockReplyLetterRepository),
		store:      new(storagemocks.MockStorage),
		engine:     new(enginemocks.MockClient),
	}

	logger := zap.NewNop()
	docService := service.NewDocumentService(f.docRepo, f.analysis, f.store, f.engine, time.Second, logger)
	replyService := service.NewReplyService(f.docRepo, f.analysis, f.replies, f.engine, logger)
	handler := NewDocumentHandler(docService, replyService, logger)

	app := fiber.New()
	group := app.Group("/api/v1/documents", middleware.AuthMiddleware(f.jwtManager, logger))
	group.Post("/upload", handler.UploadDocument)
	group.Get("", handler.ListDocuments)
	group.Get("/:id", handler.GetDocument)
	group.Get("/:id/analysis", handler.GetAnalysis)
	group.Get("/:id/download", handler.DownloadDocument)
	group.Post("/:id/reply", handler.GenerateReply)
	group.Get("/:id/replies", handler.ListReplies)

	f.app = app
	return f
}

func (f *handlerFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.jwtManager.GenerateToken(userID.String(), "alice", "alice@example.com")
	assert.NoError(t, err)
	return token
}

func multipartFile(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(data)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func TestUploadDocument_RejectsUnsupportedType(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()

	body, contentType := multipartFile(t, "photo.jpg", "image/jpeg", []byte{0xFF, 0xD8})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Rejection happens before any record or archive exists.
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadDocument_Accepted(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()

	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, models.MediaTypeText).Return(nil)
	f.docRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Document")).Return(nil)
	// The background analysis may start before the test finishes; refusing the
	// pending transition stops it after one call.
	f.docRepo.On("UpdateStatus", mock.Anything, mock.Anything, models.StatusPending, models.StatusAnalyzing).Return(false, nil).Maybe()

	body, contentType := multipartFile(t, "contract.txt", "text/plain", []byte("This agreement..."))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotEmpty(t, payload["document_id"])
}

func TestGetDocument_RequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+uuid.NewString(), nil)

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetDocument_OwnershipIsolation(t *testing.T) {
	f := newHandlerFixture(t)
	strangerID := uuid.New()
	docID := uuid.New()

	f.docRepo.On("GetByIDAndUser", mock.Anything, docID, strangerID).Return(nil, repository.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, strangerID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	// Another user's document is indistinguishable from a missing one.
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetDocument_ReturnsStatus(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()
	doc := &models.Document{
		ID:             uuid.New(),
		UserID:         userID,
		Filename:       "contract.txt",
		MediaType:      models.MediaTypeText,
		FileSize:       17,
		AnalysisStatus: models.StatusAnalyzing,
		UploadedAt:     time.Now().UTC(),
	}

	f.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "analyzing", payload["analysis_status"])
	assert.Equal(t, "contract.txt", payload["filename"])
}

func TestDownloadDocument_StreamsArchivedFile(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()
	content := []byte("This agreement is made between the parties...")
	doc := &models.Document{
		ID:             uuid.New(),
		UserID:         userID,
		Filename:       "contract.txt",
		MediaType:      models.MediaTypeText,
		FileSize:       int64(len(content)),
		StorageKey:     "documents/key.txt",
		AnalysisStatus: models.StatusCompleted,
	}

	f.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	f.store.On("Get", mock.Anything, doc.StorageKey).Return(io.NopCloser(bytes.NewReader(content)), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MediaTypeText, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "contract.txt")

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, content, body)
}

func TestDownloadDocument_NotOwned(t *testing.T) {
	f := newHandlerFixture(t)
	strangerID := uuid.New()
	docID := uuid.New()

	f.docRepo.On("GetByIDAndUser", mock.Anything, docID, strangerID).Return(nil, repository.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String()+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, strangerID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestListReplies_ReturnsLetters(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()
	doc := &models.Document{ID: uuid.New(), UserID: userID, AnalysisStatus: models.StatusCompleted}
	letters := []*models.ReplyLetter{
		{
			ID:              uuid.New(),
			DocumentID:      doc.ID,
			UserResponses:   map[string]string{"What is the notice period?": "Thirty days."},
			GeneratedLetter: "Dear Sir or Madam, ...",
			CreatedAt:       time.Now().UTC(),
		},
	}

	f.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	f.replies.On("ListByDocumentID", mock.Anything, doc.ID).Return(letters, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/replies", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload []map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload, 1)
	assert.Equal(t, "Dear Sir or Madam, ...", payload[0]["letter"])
	assert.Equal(t, letters[0].ID.String(), payload[0]["reply_id"])
}

func TestListReplies_NotOwned(t *testing.T) {
	f := newHandlerFixture(t)
	strangerID := uuid.New()
	docID := uuid.New()

	f.docRepo.On("GetByIDAndUser", mock.Anything, docID, strangerID).Return(nil, repository.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID.String()+"/replies", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, strangerID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	f.replies.AssertNotCalled(t, "ListByDocumentID", mock.Anything, mock.Anything)
}

func TestGenerateReply_NoAnalysis(t *testing.T) {
	f := newHandlerFixture(t)
	userID := uuid.New()
	doc := &models.Document{ID: uuid.New(), UserID: userID, AnalysisStatus: models.StatusPending}

	f.docRepo.On("GetByIDAndUser", mock.Anything, doc.ID, userID).Return(doc, nil)
	f.analysis.On("GetByDocumentID", mock.Anything, doc.ID).Return(nil, repository.ErrNotFound)

	body := bytes.NewBufferString(`{"user_responses": {"q": "a"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID.String()+"/reply", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token(t, userID))

	resp, err := f.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	f.engine.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
