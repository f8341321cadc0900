package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legalis/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type analysisRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnalysisRepository(db *pgxpool.Pool, logger *zap.Logger) AnalysisRepository {
	return &analysisRepository{
		db:     db,
		logger: logger,
	}
}

// The structured fields are stored as JSONB columns; they are marshalled here
// rather than relying on driver-level codecs so the stored shape stays under
// the repository's control.
func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	keyTerms, err := json.Marshal(analysis.KeyTerms)
	if err != nil {
		return fmt.Errorf("marshal key_terms: %w", err)
	}
	calculations, err := json.Marshal(analysis.Calculations)
	if err != nil {
		return fmt.Errorf("marshal calculations: %w", err)
	}
	riskAssessment, err := json.Marshal(analysis.RiskAssessment)
	if err != nil {
		return fmt.Errorf("marshal risk_assessment: %w", err)
	}
	fraudIndicators, err := json.Marshal(analysis.FraudIndicators)
	if err != nil {
		return fmt.Errorf("marshal fraud_indicators: %w", err)
	}
	unusualClauses, err := json.Marshal(analysis.UnusualClauses)
	if err != nil {
		return fmt.Errorf("marshal unusual_clauses: %w", err)
	}
	suggestedQuestions, err := json.Marshal(analysis.SuggestedQuestions)
	if err != nil {
		return fmt.Errorf("marshal suggested_questions: %w", err)
	}

	query := squirrel.Insert("analyses").
		Columns("id", "document_id", "document_type", "summary", "key_terms", "calculations",
			"risk_assessment", "fraud_indicators", "unusual_clauses", "suggested_questions", "created_at").
		Values(analysis.ID, analysis.DocumentID, analysis.DocumentType, analysis.Summary, keyTerms, calculations,
			riskAssessment, fraudIndicators, unusualClauses, suggestedQuestions, analysis.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *analysisRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Analysis, error) {
	query := squirrel.Select("id", "document_id", "document_type", "summary", "key_terms", "calculations",
		"risk_assessment", "fraud_indicators", "unusual_clauses", "suggested_questions", "created_at").
		From("analyses").
		Where(squirrel.Eq{"document_id": documentID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		analysis           models.Analysis
		keyTerms           []byte
		calculations       []byte
		riskAssessment     []byte
		fraudIndicators    []byte
		unusualClauses     []byte
		suggestedQuestions []byte
	)

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&analysis.ID, &analysis.DocumentID, &analysis.DocumentType, &analysis.Summary,
		&keyTerms, &calculations, &riskAssessment, &fraudIndicators, &unusualClauses, &suggestedQuestions,
		&analysis.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(keyTerms, &analysis.KeyTerms); err != nil {
		return nil, fmt.Errorf("unmarshal key_terms: %w", err)
	}
	if err := json.Unmarshal(calculations, &analysis.Calculations); err != nil {
		return nil, fmt.Errorf("unmarshal calculations: %w", err)
	}
	if err := json.Unmarshal(riskAssessment, &analysis.RiskAssessment); err != nil {
		return nil, fmt.Errorf("unmarshal risk_assessment: %w", err)
	}
	if err := json.Unmarshal(fraudIndicators, &analysis.FraudIndicators); err != nil {
		return nil, fmt.Errorf("unmarshal fraud_indicators: %w", err)
	}
	if err := json.Unmarshal(unusualClauses, &analysis.UnusualClauses); err != nil {
		return nil, fmt.Errorf("unmarshal unusual_clauses: %w", err)
	}
	if err := json.Unmarshal(suggestedQuestions, &analysis.SuggestedQuestions); err != nil {
		return nil, fmt.Errorf("unmarshal suggested_questions: %w", err)
	}

	return &analysis, nil
}
