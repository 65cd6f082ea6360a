package dashclient

import "testing"

func strPtr(s string) *string { return &s }

func seedCache() *DocumentCache {
	c := NewDocumentCache()
	c.SetDocuments([]Document{
		{ID: 42, Filename: "msa.pdf"},
		{ID: 43, Filename: "nda.pdf"},
	})
	return c
}

func TestApplyMergesStatusOnly(t *testing.T) {
	c := seedCache()

	if !c.Apply(StatusUpdate{DocumentID: 42, Processed: true}) {
		t.Fatalf("expected apply to hit cached document")
	}
	doc, ok := c.Get(42)
	if !ok {
		t.Fatalf("document 42 missing")
	}
	if !doc.Processed || doc.ProcessingError != nil {
		t.Fatalf("unexpected status %+v", doc)
	}
	if doc.Filename != "msa.pdf" {
		t.Fatalf("merge must not clear unrelated fields, got %+v", doc)
	}
	if !c.StatsStale() {
		t.Fatalf("apply must mark stats stale")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := seedCache()
	update := StatusUpdate{DocumentID: 42, Processed: true}

	c.Apply(update)
	first, _ := c.Get(42)
	c.Apply(update)
	second, _ := c.Get(42)

	if first != second {
		t.Fatalf("replayed update changed the document: %+v vs %+v", first, second)
	}
}

func TestApplyUnknownDocumentIsNoOp(t *testing.T) {
	c := seedCache()

	if c.Apply(StatusUpdate{DocumentID: 999, Processed: true}) {
		t.Fatalf("unknown document must be a no-op")
	}
	if c.Len() != 2 {
		t.Fatalf("no-op must not create entries, len = %d", c.Len())
	}
	if c.StatsStale() {
		t.Fatalf("no-op must not mark stats stale")
	}
}

func TestApplyCrossDocumentOrderTolerance(t *testing.T) {
	a := seedCache()
	b := seedCache()

	u42 := StatusUpdate{DocumentID: 42, Processed: true}
	u43 := StatusUpdate{DocumentID: 43, ProcessingError: strPtr("ocr failed")}

	a.Apply(u42)
	a.Apply(u43)
	b.Apply(u43)
	b.Apply(u42)

	for _, id := range []int64{42, 43} {
		docA, _ := a.Get(id)
		docB, _ := b.Get(id)
		if docA.Processed != docB.Processed {
			t.Fatalf("doc %d diverged: %+v vs %+v", id, docA, docB)
		}
		switch {
		case docA.ProcessingError == nil && docB.ProcessingError != nil,
			docA.ProcessingError != nil && docB.ProcessingError == nil:
			t.Fatalf("doc %d diverged on error: %+v vs %+v", id, docA, docB)
		}
	}
}

func TestApplyLastWriteWinsPerDocument(t *testing.T) {
	c := seedCache()

	c.Apply(StatusUpdate{DocumentID: 42, Processed: true})
	c.Apply(StatusUpdate{DocumentID: 42, Processed: false, ProcessingError: strPtr("reprocessing failed")})

	doc, _ := c.Get(42)
	if doc.Processed || doc.ProcessingError == nil {
		t.Fatalf("latest update must win, got %+v", doc)
	}
}

func TestSetDocumentsClearsStaleFlag(t *testing.T) {
	c := seedCache()
	c.Apply(StatusUpdate{DocumentID: 42, Processed: true})
	if !c.StatsStale() {
		t.Fatalf("expected stale flag")
	}

	c.SetDocuments([]Document{{ID: 42, Filename: "msa.pdf", Processed: true}})
	if c.StatsStale() {
		t.Fatalf("refetch must clear stale flag")
	}
	if c.Len() != 1 {
		t.Fatalf("refetch must replace the set, len = %d", c.Len())
	}
}

func TestCounts(t *testing.T) {
	c := NewDocumentCache()
	c.SetDocuments([]Document{
		{ID: 1, Processed: true},
		{ID: 2},
		{ID: 3, ProcessingError: strPtr("bad pdf")},
		{ID: 4},
	})

	total, processed, pending, failed := c.Counts()
	if total != 4 || processed != 1 || pending != 2 || failed != 1 {
		t.Fatalf("unexpected counts total=%d processed=%d pending=%d failed=%d",
			total, processed, pending, failed)
	}
}
