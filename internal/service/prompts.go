package service

import (
	"encoding/json"
	"fmt"
)

// analysisPrompt is the fixed instruction sent with every document. The
// top-level keys mirror the Analysis record exactly; the interpreter depends
// on this shape.
const analysisPrompt = `Analyze this legal document comprehensively and return a JSON response with the following structure:
{
    "document_type": "string (lease, loan, employment, terms_of_service, contract, etc.)",
    "summary": "string (2-3 paragraph plain English summary)",
    "key_terms": [
        {"term": "legal term", "explanation": "plain English explanation"}
    ],
    "calculations": {
        "has_calculations": boolean,
        "financial_details": [
            {"type": "interest_rate/payment/fee", "amount": "value", "explanation": "description"}
        ]
    },
    "risk_assessment": {
        "overall_risk": "low/medium/high",
        "risk_factors": ["list of risk factors"],
        "recommendations": ["list of recommendations"]
    },
    "fraud_indicators": ["list of potential fraud indicators found"],
    "unusual_clauses": ["list of unusual or concerning clauses"],
    "suggested_questions": ["list of 5-7 questions user might want to ask about this document"]
}

Return ONLY the JSON object, without markdown code fences or commentary.
Focus on making everything accessible to non-lawyers while being thorough and accurate.`

// replyPrompt embeds a completed analysis and the user's answers into the
// letter-generation instruction. The answers mapping is pretty-printed so the
// engine sees question keys next to their answer text.
func replyPrompt(documentType, summary string, userResponses map[string]string) string {
	responses, err := json.MarshalIndent(userResponses, "", "  ")
	if err != nil {
		responses = []byte("{}")
	}

	return fmt.Sprintf(`Based on the document analysis and user responses, generate a professional reply letter.

Document Type: %s
Document Summary: %s

User Responses to Questions:
%s

Generate a professional, concise reply letter that addresses the key points from the user's responses.
Format it as a proper business letter with appropriate tone for the document type.

Return only the letter content, no additional formatting or JSON.`, documentType, summary, responses)
}
