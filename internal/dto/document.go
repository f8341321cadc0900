package dto

type UploadDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}

type DocumentResponse struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	MediaType      string `json:"media_type"`
	FileSize       int64  `json:"file_size"`
	AnalysisStatus string `json:"analysis_status"`
	UploadedAt     string `json:"uploaded_at"`
}
