package mocks

import (
	"context"

	"legalis/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.AnalysisStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockAnalysisRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Analysis, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

type MockReplyLetterRepository struct {
	mock.Mock
}

func (m *MockReplyLetterRepository) Create(ctx context.Context, letter *models.ReplyLetter) error {
	args := m.Called(ctx, letter)
	return args.Error(0)
}

func (m *MockReplyLetterRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.ReplyLetter, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReplyLetter), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
