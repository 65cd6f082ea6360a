package domain

import "time"

// DocumentMetadata is the structured extraction result for a processed document.
type DocumentMetadata struct {
	AgreementType  string     `json:"agreement_type,omitempty"`
	GoverningLaw   string     `json:"governing_law,omitempty"`
	Jurisdiction   string     `json:"jurisdiction,omitempty"`
	Geography      string     `json:"geography,omitempty"`
	Industry       string     `json:"industry,omitempty"`
	Parties        []string   `json:"parties,omitempty"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	ContractValue  float64    `json:"contract_value,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	Confidence     float64    `json:"confidence_score,omitempty"`
}

// Document is a single uploaded legal document. Processed and a non-nil
// ProcessingError are mutually exclusive terminal states; a document in
// neither state is still pending.
type Document struct {
	ID              int64             `json:"id"`
	Filename        string            `json:"filename"`
	FileType        string            `json:"file_type"`
	FilePath        string            `json:"file_path"`
	FileSize        int64             `json:"file_size"`
	UserID          int64             `json:"user_id"`
	UploadDate      time.Time         `json:"upload_date"`
	Processed       bool              `json:"processed"`
	ProcessingError *string           `json:"processing_error"`
	PageCount       int               `json:"page_count,omitempty"`
	Metadata        *DocumentMetadata `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Pending reports whether the document has not reached a terminal state yet.
func (d *Document) Pending() bool {
	return !d.Processed && d.ProcessingError == nil
}

// UploadResult is the per-file outcome of a batch upload.
type UploadResult struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// BatchUpload summarizes a multi-file upload request.
type BatchUpload struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Documents  []UploadResult `json:"documents"`
}
