package domain

// EventTypeDocumentUpdate is the discriminant for document status pushes.
const EventTypeDocumentUpdate = "document_update"

// StatusUpdate is the push-channel event emitted when processing of a
// document finishes. It carries a strict subset of document fields; a
// consumer merges it and must not clear fields absent from the event.
type StatusUpdate struct {
	DocumentID      int64   `json:"document_id"`
	Processed       bool    `json:"processed"`
	ProcessingError *string `json:"processing_error"`
}
