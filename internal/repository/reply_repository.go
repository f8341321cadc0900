package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"legalis/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type replyLetterRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReplyLetterRepository(db *pgxpool.Pool, logger *zap.Logger) ReplyLetterRepository {
	return &replyLetterRepository{
		db:     db,
		logger: logger,
	}
}

func (r *replyLetterRepository) Create(ctx context.Context, letter *models.ReplyLetter) error {
	responses, err := json.Marshal(letter.UserResponses)
	if err != nil {
		return fmt.Errorf("marshal user_responses: %w", err)
	}

	query := squirrel.Insert("reply_letters").
		Columns("id", "document_id", "user_responses", "generated_letter", "created_at").
		Values(letter.ID, letter.DocumentID, responses, letter.GeneratedLetter, letter.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *replyLetterRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.ReplyLetter, error) {
	query := squirrel.Select("id", "document_id", "user_responses", "generated_letter", "created_at").
		From("reply_letters").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at DESC").
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

	var letters []*models.ReplyLetter
	for rows.Next() {
		var (
			letter    models.ReplyLetter
			responses []byte
		)
		if err := rows.Scan(&letter.ID, &letter.DocumentID, &responses, &letter.GeneratedLetter, &letter.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(responses, &letter.UserResponses); err != nil {
			return nil, fmt.Errorf("unmarshal user_responses: %w", err)
		}
		letters = append(letters, &letter)
	}

	return letters, rows.Err()
}
