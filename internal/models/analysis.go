package models

import (
	"time"

	"github.com/google/uuid"
)

// KeyTerm is a legal term paired with its plain-English explanation.
type KeyTerm struct {
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
}

type FinancialDetail struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Explanation string `json:"explanation"`
}

type Calculations struct {
	HasCalculations  bool              `json:"has_calculations"`
	FinancialDetails []FinancialDetail `json:"financial_details"`
}

type RiskAssessment struct {
	OverallRisk     string   `json:"overall_risk"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// Analysis is the structured interpretation of a single document. At most one
// exists per document; it is written once, after the engine call, and never
// mutated.
type Analysis struct {
	ID                 uuid.UUID      `db:"id"`
	DocumentID         uuid.UUID      `db:"document_id"`
	DocumentType       string         `db:"document_type"`
	Summary            string         `db:"summary"`
	KeyTerms           []KeyTerm      `db:"key_terms"`
	Calculations       Calculations   `db:"calculations"`
	RiskAssessment     RiskAssessment `db:"risk_assessment"`
	FraudIndicators    []string       `db:"fraud_indicators"`
	UnusualClauses     []string       `db:"unusual_clauses"`
	SuggestedQuestions []string       `db:"suggested_questions"`
	CreatedAt          time.Time      `db:"created_at"`
}
