package dto

type ReplyRequest struct {
	UserResponses map[string]string `json:"user_responses" validate:"required"`
}

type ReplyResponse struct {
	ReplyID string `json:"reply_id"`
	Letter  string `json:"letter"`
}

type ReplyLetterResponse struct {
	ReplyID       string            `json:"reply_id"`
	UserResponses map[string]string `json:"user_responses"`
	Letter        string            `json:"letter"`
	CreatedAt     string            `json:"created_at"`
}
