// File path: internal/search/index_test.go
package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mjharlow/reglens/internal/compliance"
)

func corpus() []IndexedDocument {
	return []IndexedDocument{
		{
			Document: compliance.Document{
				DocumentID:         "doc-gdpr",
				SemanticIdentifier: "GDPR Article 17 right to erasure",
				Blurb:              "Data subjects may request deletion of personal data.",
			},
		},
		{
			Document: compliance.Document{
				DocumentID:         "doc-cfpb",
				SemanticIdentifier: "CFPB 1005.6 consumer liability",
				Blurb:              "Liability of consumer for unauthorized transfers.",
			},
		},
		{
			Document: compliance.Document{
				DocumentID:         "doc-private",
				SemanticIdentifier: "GDPR internal audit findings",
				Blurb:              "Findings from the GDPR readiness audit.",
			},
			Access: []string{"user_email:auditor@example.com"},
		},
	}
}

func TestSearchRanksMatchingDocumentFirst(t *testing.T) {
	idx := NewIndex(corpus())
	hits, err := idx.Search(context.Background(), "GDPR Article 17", AccessFilters{AccessControlList: []string{"PUBLIC"}}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits for matching query")
	}
	if hits[0].DocumentID != "doc-gdpr" {
		t.Fatalf("expected doc-gdpr ranked first, got %q", hits[0].DocumentID)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("expected positive score, got %v", hits[0].Score)
	}
}

func TestSearchFiltersByAccess(t *testing.T) {
	idx := NewIndex(corpus())
	public, err := idx.Search(context.Background(), "GDPR audit findings", AccessFilters{AccessControlList: []string{"PUBLIC"}}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, hit := range public {
		if hit.DocumentID == "doc-private" {
			t.Fatal("restricted document leaked to public caller")
		}
	}
	auditor, err := idx.Search(context.Background(), "GDPR audit findings", AccessFilters{AccessControlList: []string{"PUBLIC", "user_email:auditor@example.com"}}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	found := false
	for _, hit := range auditor {
		if hit.DocumentID == "doc-private" {
			found = true
		}
	}
	if !found {
		t.Fatal("authorized caller did not see restricted document")
	}
}

func TestSearchCapsAtOverfetch(t *testing.T) {
	docs := make([]IndexedDocument, 0, 10)
	for i := 0; i < 10; i++ {
		docs = append(docs, IndexedDocument{
			Document: compliance.Document{
				DocumentID:         "doc-" + string(rune('a'+i)),
				SemanticIdentifier: "GDPR retention policy",
			},
		})
	}
	idx := NewIndex(docs)
	hits, err := idx.Search(context.Background(), "GDPR retention", AccessFilters{}, 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) > OverfetchFactor {
		t.Fatalf("expected at most %d hits for limit 1, got %d", OverfetchFactor, len(hits))
	}
}

func TestSearchNoMatch(t *testing.T) {
	idx := NewIndex(corpus())
	hits, err := idx.Search(context.Background(), "zzzzz qqqqq", AccessFilters{}, 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestSearchCanceledContext(t *testing.T) {
	idx := NewIndex(corpus())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.Search(ctx, "GDPR", AccessFilters{}, 1); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestLoadIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")
	content := `{"document_id": "doc-1", "semantic_identifier": "GDPR Article 17 guide", "blurb": "erasure"}

{"document_id": "doc-2", "semantic_identifier": "CFPB liability guide", "access": ["user_email:a@b.c"]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	idx, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if idx.Size() != 2 {
		t.Fatalf("expected 2 documents, got %d", idx.Size())
	}
}

func TestLoadIndexRejectsBadLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	if _, err := LoadIndex(path); err == nil {
		t.Fatal("expected parse error")
	}
}
