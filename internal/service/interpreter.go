package service

import (
	"encoding/json"
	"strings"

	"legalis/internal/models"
)

// Interpretation is the normalized form of an engine analysis response.
// Degraded marks a response that could not be parsed as structured data; the
// raw text is then preserved verbatim in Summary so no information is lost.
type Interpretation struct {
	DocumentType       string
	Summary            string
	KeyTerms           []models.KeyTerm
	Calculations       models.Calculations
	RiskAssessment     models.RiskAssessment
	FraudIndicators    []string
	UnusualClauses     []string
	SuggestedQuestions []string
	Degraded           bool
}

// analysisPayload is the wire shape the engine is instructed to return.
type analysisPayload struct {
	DocumentType       string                 `json:"document_type"`
	Summary            string                 `json:"summary"`
	KeyTerms           []models.KeyTerm       `json:"key_terms"`
	Calculations       *models.Calculations   `json:"calculations"`
	RiskAssessment     *models.RiskAssessment `json:"risk_assessment"`
	FraudIndicators    []string               `json:"fraud_indicators"`
	UnusualClauses     []string               `json:"unusual_clauses"`
	SuggestedQuestions []string               `json:"suggested_questions"`
}

// InterpretAnalysis parses the engine's raw response into an Interpretation.
// It is total: any input yields a usable record. The engine is an untrusted
// generator, so parse failure falls back to a degraded record instead of an
// error, and absent optional fields default to their empty forms.
func InterpretAnalysis(raw string) Interpretation {
	payload, ok := parseAnalysisPayload(raw)
	if !ok {
		return degradedInterpretation(raw)
	}

	interp := Interpretation{
		DocumentType:       payload.DocumentType,
		Summary:            payload.Summary,
		KeyTerms:           payload.KeyTerms,
		RiskAssessment:     models.RiskAssessment{},
		FraudIndicators:    payload.FraudIndicators,
		UnusualClauses:     payload.UnusualClauses,
		SuggestedQuestions: payload.SuggestedQuestions,
	}

	if interp.DocumentType == "" {
		interp.DocumentType = "unknown"
	}
	if payload.Calculations != nil {
		interp.Calculations = *payload.Calculations
	}
	if payload.RiskAssessment != nil {
		interp.RiskAssessment = *payload.RiskAssessment
	}

	normalize(&interp)
	return interp
}

func parseAnalysisPayload(raw string) (*analysisPayload, bool) {
	content := strings.TrimSpace(raw)

	// Only a top-level object counts as structured: encoding/json accepts
	// "null" (and bare scalars under earlier shapes) into a struct without
	// error, which would drop the raw text.
	var payload analysisPayload
	if strings.HasPrefix(content, "{") {
		if err := json.Unmarshal([]byte(content), &payload); err == nil {
			return &payload, true
		}
	}

	// The engine often wraps JSON in markdown fences or surrounds it with
	// commentary; slice to the outermost object and retry.
	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return nil, false
	}

	jsonStr := strings.TrimSpace(content[jsonStart : jsonEnd+1])
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")
	jsonStr = strings.TrimSpace(jsonStr)

	payload = analysisPayload{}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

// degradedInterpretation preserves the whole raw response as the summary so
// the user keeps full information even though structure was lost.
func degradedInterpretation(raw string) Interpretation {
	interp := Interpretation{
		DocumentType: "unknown",
		Summary:      raw,
		RiskAssessment: models.RiskAssessment{
			OverallRisk: "medium",
		},
		Degraded: true,
	}
	normalize(&interp)
	return interp
}

// normalize replaces nil sequences with empty ones so the stored JSON is
// always [] rather than null.
func normalize(interp *Interpretation) {
	if interp.KeyTerms == nil {
		interp.KeyTerms = []models.KeyTerm{}
	}
	if interp.Calculations.FinancialDetails == nil {
		interp.Calculations.FinancialDetails = []models.FinancialDetail{}
	}
	if interp.RiskAssessment.RiskFactors == nil {
		interp.RiskAssessment.RiskFactors = []string{}
	}
	if interp.RiskAssessment.Recommendations == nil {
		interp.RiskAssessment.Recommendations = []string{}
	}
	if interp.FraudIndicators == nil {
		interp.FraudIndicators = []string{}
	}
	if interp.UnusualClauses == nil {
		interp.UnusualClauses = []string{}
	}
	if interp.SuggestedQuestions == nil {
		interp.SuggestedQuestions = []string{}
	}
}
