// File path: internal/prompt/prompt_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/mjharlow/reglens/internal/compliance"
)

func TestRegulationsDeterministic(t *testing.T) {
	text := "We guarantee same-day loan approval for all applicants"
	first := Regulations(text)
	second := Regulations(text)
	if first.Shape != ShapeRegulations {
		t.Fatalf("unexpected shape: %q", first.Shape)
	}
	if len(first.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(first.Messages))
	}
	if first.Messages[0].Role != "system" || first.Messages[1].Role != "user" {
		t.Fatalf("unexpected roles: %q, %q", first.Messages[0].Role, first.Messages[1].Role)
	}
	if first.Messages[1].Content != second.Messages[1].Content {
		t.Fatal("same input produced different prompts")
	}
	if !strings.Contains(first.Messages[1].Content, text) {
		t.Fatal("prompt does not contain the analyzed text")
	}
}

func TestArticlesNamesRegulation(t *testing.T) {
	req := Articles("some text", compliance.Regulation{Regulation: "GDPR", Description: "data protection"})
	if req.Shape != ShapeArticles {
		t.Fatalf("unexpected shape: %q", req.Shape)
	}
	if !strings.Contains(req.Messages[1].Content, `"GDPR"`) {
		t.Fatal("prompt does not name the regulation")
	}
}

func TestCitationsWithoutDocument(t *testing.T) {
	article := compliance.Article{Regulation: "CFPB", Article: "1005.6", Description: "consumer liability"}
	req := Citations("some text", article, nil)
	if req.Shape != ShapeCitations {
		t.Fatalf("unexpected shape: %q", req.Shape)
	}
	content := req.Messages[1].Content
	if !strings.Contains(content, "CFPB") || !strings.Contains(content, "1005.6") {
		t.Fatal("prompt does not identify the article")
	}
	if strings.Contains(content, "should be used as a reference") {
		t.Fatal("prompt includes document context without a document")
	}
}

func TestCitationsIncludesDocumentContext(t *testing.T) {
	article := compliance.Article{Regulation: "CFPB", Article: "1005.6"}
	related := &compliance.RelatedDocument{
		Document: compliance.Document{
			DocumentID:         "doc-1",
			SemanticIdentifier: "CFPB 1005.6 Liability Guide",
			Blurb:              "Consumer liability for unauthorized transfers.",
		},
		IsRelevant: true,
	}
	req := Citations("some text", article, related)
	content := req.Messages[1].Content
	if !strings.Contains(content, "CFPB 1005.6 Liability Guide") {
		t.Fatal("prompt does not include the document title")
	}
	if !strings.Contains(content, "Consumer liability for unauthorized transfers.") {
		t.Fatal("prompt does not include the document blurb")
	}
}

func TestCitationsFallsBackToDocumentID(t *testing.T) {
	related := &compliance.RelatedDocument{
		Document: compliance.Document{DocumentID: "doc-9", Blurb: "blurb"},
	}
	req := Citations("text", compliance.Article{Regulation: "GDPR", Article: "17"}, related)
	if !strings.Contains(req.Messages[1].Content, "doc-9") {
		t.Fatal("prompt does not fall back to the document id")
	}
}

func TestSummaryEmbedsFindings(t *testing.T) {
	regulations := []compliance.Regulation{{Regulation: "GDPR", Description: "data"}}
	articles := []compliance.Article{{Regulation: "GDPR", Article: "17", Description: "erasure"}}
	citations := []compliance.Citation{{Regulation: "GDPR", Article: "17", Citation: "the data subject shall have the right"}}
	req := Summary("some text", regulations, articles, citations)
	if req.Shape != ShapeSummary {
		t.Fatalf("unexpected shape: %q", req.Shape)
	}
	content := req.Messages[1].Content
	for _, want := range []string{"some text", `"GDPR"`, `"17"`, "the data subject shall have the right"} {
		if !strings.Contains(content, want) {
			t.Fatalf("summary prompt missing %q", want)
		}
	}
}

func TestSummaryHandlesEmptyFindings(t *testing.T) {
	req := Summary("some text", nil, nil, nil)
	if req.Shape != ShapeSummary {
		t.Fatalf("unexpected shape: %q", req.Shape)
	}
	if !strings.Contains(req.Messages[1].Content, "some text") {
		t.Fatal("summary prompt missing the analyzed text")
	}
}
