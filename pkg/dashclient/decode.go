package dashclient

import (
	"encoding/json"
	"fmt"
)

// Event is the closed set of messages the push channel can deliver. New
// server-side event types surface as Unrecognized until the client learns
// them; they are never an error.
type Event interface {
	isEvent()
}

// StatusUpdate reports that processing of one document reached a terminal
// state. It carries a strict subset of document fields: consumers merge it
// into what they already hold and must not clear fields it does not mention.
type StatusUpdate struct {
	DocumentID      int64
	Processed       bool
	ProcessingError *string
}

func (StatusUpdate) isEvent() {}

// Unrecognized is a well-formed event whose type this client version does not
// know. Raw retains the full payload for logging or forward-compat handling.
type Unrecognized struct {
	Type string
	Raw  json.RawMessage
}

func (Unrecognized) isEvent() {}

type wireEnvelope struct {
	Type string `json:"type"`
}

type wireDocumentUpdate struct {
	DocumentID *int64 `json:"document_id"`
	Status     *struct {
		Processed       bool    `json:"processed"`
		ProcessingError *string `json:"processing_error"`
	} `json:"status"`
}

// decodeEvent parses one frame. A frame that is not valid JSON, or that lacks
// the fields its type requires, is an error; the connection loop logs and
// drops it without tearing the session down.
func decodeEvent(raw []byte) (Event, error) {
	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("event frame without type")
	}

	switch envelope.Type {
	case "document_update":
		var update wireDocumentUpdate
		if err := json.Unmarshal(raw, &update); err != nil {
			return nil, fmt.Errorf("malformed document_update: %w", err)
		}
		if update.DocumentID == nil || update.Status == nil {
			return nil, fmt.Errorf("document_update missing document_id or status")
		}
		return StatusUpdate{
			DocumentID:      *update.DocumentID,
			Processed:       update.Status.Processed,
			ProcessingError: update.Status.ProcessingError,
		}, nil
	default:
		return Unrecognized{Type: envelope.Type, Raw: json.RawMessage(raw)}, nil
	}
}
