package dashclient

import (
	"testing"
)

func TestDecodeDocumentUpdate(t *testing.T) {
	raw := []byte(`{"type":"document_update","document_id":42,"status":{"processed":true,"processing_error":null}}`)
	event, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	update, ok := event.(StatusUpdate)
	if !ok {
		t.Fatalf("expected StatusUpdate, got %T", event)
	}
	if update.DocumentID != 42 || !update.Processed || update.ProcessingError != nil {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestDecodeDocumentUpdateWithError(t *testing.T) {
	raw := []byte(`{"type":"document_update","document_id":7,"status":{"processed":false,"processing_error":"parse failed"}}`)
	event, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	update := event.(StatusUpdate)
	if update.Processed || update.ProcessingError == nil || *update.ProcessingError != "parse failed" {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestDecodeUnknownTypeIsUnrecognized(t *testing.T) {
	raw := []byte(`{"type":"quota_warning","remaining":3}`)
	event, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("unknown type must not error, got %v", err)
	}
	unrec, ok := event.(Unrecognized)
	if !ok {
		t.Fatalf("expected Unrecognized, got %T", event)
	}
	if unrec.Type != "quota_warning" {
		t.Fatalf("unexpected type %q", unrec.Type)
	}
	if len(unrec.Raw) == 0 {
		t.Fatalf("expected raw payload retained")
	}
}

func TestDecodeMalformedFrames(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `{"type":`,
		"missing type":       `{"document_id":1}`,
		"missing status":     `{"type":"document_update","document_id":1}`,
		"missing document":   `{"type":"document_update","status":{"processed":true,"processing_error":null}}`,
		"non-object payload": `"document_update"`,
	}
	for name, raw := range cases {
		if _, err := decodeEvent([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
