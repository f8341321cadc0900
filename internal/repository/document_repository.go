package repository

import (
	"context"
	"errors"

	"legalis/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type documentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "user_id", "filename", "media_type", "file_size", "storage_key", "analysis_status", "uploaded_at").
		Values(doc.ID, doc.UserID, doc.Filename, doc.MediaType, doc.FileSize, doc.StorageKey, doc.AnalysisStatus, doc.UploadedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *documentRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Document, error) {
	query := squirrel.Select("id", "user_id", "filename", "media_type", "file_size", "storage_key", "analysis_status", "uploaded_at").
		From("documents").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.MediaType, &doc.FileSize, &doc.StorageKey, &doc.AnalysisStatus, &doc.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &doc, nil
}

func (r *documentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select("id", "user_id", "filename", "media_type", "file_size", "storage_key", "analysis_status", "uploaded_at").
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("uploaded_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.Filename, &doc.MediaType, &doc.FileSize, &doc.StorageKey, &doc.AnalysisStatus, &doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}

	return documents, rows.Err()
}

// UpdateStatus performs a conditional update so that two concurrent
// submissions for the same document cannot both win the pending -> analyzing
// transition, and a terminal state is never overwritten.
func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.AnalysisStatus) (bool, error) {
	query := squirrel.Update("documents").
		Set("analysis_status", to).
		Where(squirrel.Eq{"id": id, "analysis_status": from}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
