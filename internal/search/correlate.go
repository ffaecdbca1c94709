// File path: internal/search/correlate.go
package search

import (
	"fmt"
	"strings"

	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/compliance"
)

// Correlate filters ranked candidates down to at most limit related documents
// for one (regulation, article) pair. Candidates are kept only when their
// title or indexed identifier mentions the regulation or the article, a cheap
// guard against an overbroad search. Rejected candidates are logged, never
// surfaced as errors: absence of related documents is not a pipeline failure.
func Correlate(regulation, article string, candidates []compliance.Document, limit int) []compliance.RelatedDocument {
	if limit <= 0 {
		limit = 1
	}
	logger := common.Logger()
	regLower := strings.ToLower(regulation)
	artLower := strings.ToLower(article)
	seen := make(map[string]struct{}, len(candidates))
	accepted := make([]compliance.RelatedDocument, 0, limit)
	for _, doc := range candidates {
		if _, dup := seen[doc.DocumentID]; dup {
			continue
		}
		identifier := strings.ToLower(doc.SemanticIdentifier)
		title := strings.ToLower(doc.Title)
		relevant := strings.Contains(identifier, regLower) ||
			strings.Contains(title, regLower) ||
			strings.Contains(identifier, artLower) ||
			strings.Contains(title, artLower)
		if !relevant {
			logger.Debug("search: skipping irrelevant document", "document", doc.SemanticIdentifier, "regulation", regulation, "article", article)
			continue
		}
		seen[doc.DocumentID] = struct{}{}
		accepted = append(accepted, annotate(regulation, article, doc))
		if len(accepted) >= limit {
			break
		}
	}
	return accepted
}

func annotate(regulation, article string, doc compliance.Document) compliance.RelatedDocument {
	related := compliance.RelatedDocument{
		Document:             doc,
		RelevanceExplanation: fmt.Sprintf("This document mentions %s %s in its title/identifier", regulation, article),
		IsRelevant:           true,
	}
	if related.Score == 0 {
		related.Score = 1.0
	}
	if len(related.MatchHighlights) == 0 && related.Blurb != "" {
		related.MatchHighlights = []string{related.Blurb}
	}
	return related
}
