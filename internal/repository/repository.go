package repository

import (
	"context"
	"errors"

	"legalis/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist. Implementations
// translate their driver's no-rows error into it so callers never depend on the
// storage backend.
var ErrNotFound = errors.New("record not found")

// DocumentRepository is the persistence contract for documents and their
// analysis lifecycle.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	// GetByIDAndUser returns the document only when it exists and is owned by
	// userID; ownership mismatch and absence are both ErrNotFound.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Document, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error)
	// UpdateStatus flips analysis_status from one state to another. It reports
	// false when the document was not in the expected state, which makes the
	// transition a compare-and-swap.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.AnalysisStatus) (bool, error)
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Analysis, error)
}

type ReplyLetterRepository interface {
	Create(ctx context.Context, letter *models.ReplyLetter) error
	ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.ReplyLetter, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
