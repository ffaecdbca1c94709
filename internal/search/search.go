// File path: internal/search/search.go

// Package search defines the document-search boundary of the analysis
// pipeline and the correlator that filters raw hits into per-article related
// documents.
package search

import (
	"context"

	"github.com/mjharlow/reglens/internal/compliance"
)

// OverfetchFactor controls how many extra candidates a search returns beyond
// the caller's limit. The correlator discards candidates that fail its
// relevance guard, so the index is asked for more than will be kept.
const OverfetchFactor = 3

// AccessFilters carries the opaque access-control constraints applied to
// every search. The pipeline treats the contents as opaque; they are produced
// by an external identity resolver.
type AccessFilters struct {
	AccessControlList []string `json:"access_control_list"`
}

// Client is the document-search collaborator. Implementations return ranked
// candidates, highest relevance first, at most limit*OverfetchFactor entries.
type Client interface {
	Search(ctx context.Context, query string, filters AccessFilters, limit int) ([]compliance.Document, error)
}
