package dto

import "legalis/internal/models"

type AnalysisResponse struct {
	ID                 string                `json:"id"`
	DocumentID         string                `json:"document_id"`
	DocumentType       string                `json:"document_type"`
	Summary            string                `json:"summary"`
	KeyTerms           []models.KeyTerm      `json:"key_terms"`
	Calculations       models.Calculations   `json:"calculations"`
	RiskAssessment     models.RiskAssessment `json:"risk_assessment"`
	FraudIndicators    []string              `json:"fraud_indicators"`
	UnusualClauses     []string              `json:"unusual_clauses"`
	SuggestedQuestions []string              `json:"suggested_questions"`
	CreatedAt          string                `json:"created_at"`
}

type DocumentAnalysisResponse struct {
	Document DocumentResponse `json:"document"`
	Analysis AnalysisResponse `json:"analysis"`
}
