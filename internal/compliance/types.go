// File path: internal/compliance/types.go

// Package compliance defines the entities produced by a regulation analysis
// run and the event envelope streamed back to callers. All values are
// append-only within a run; nothing here carries state across requests.
package compliance

// Regulation identifies one regulation the model considers relevant to the
// analyzed text. The name is unique within a run.
type Regulation struct {
	Regulation  string `json:"regulation"`
	Description string `json:"description"`
}

// Article is a section of a regulation. An article is meaningless without its
// owning regulation, so the regulation name travels with it.
type Article struct {
	Regulation  string `json:"regulation"`
	Article     string `json:"article"`
	Description string `json:"description"`
}

// Citation is a verbatim excerpt supporting one (regulation, article) pair.
type Citation struct {
	Regulation string `json:"regulation"`
	Article    string `json:"article"`
	Citation   string `json:"citation"`
}

// Key is the composite (regulation, article) identity used to correlate
// documents and citations with articles. A struct rather than a joined
// string, so separator characters inside names cannot collide.
type Key struct {
	Regulation string
	Article    string
}

// Key returns the composite identity of the article.
func (a Article) Key() Key {
	return Key{Regulation: a.Regulation, Article: a.Article}
}

// Key returns the composite identity of the citation.
func (c Citation) Key() Key {
	return Key{Regulation: c.Regulation, Article: c.Article}
}

// Severity grades a compliance consideration.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether the severity is one of the recognized grades.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Consideration is one entry of the final synthesized summary.
type Consideration struct {
	TextSegment       string   `json:"text_segment"`
	Regulation        string   `json:"regulation"`
	Article           string   `json:"article"`
	Analysis          string   `json:"analysis"`
	Severity          Severity `json:"severity"`
	RecommendedAction string   `json:"recommended_action"`
}

// Summary is the parsed shape of the final stage output.
type Summary struct {
	Considerations []Consideration `json:"considerations"`
}

// Document is a ranked search hit as returned by the document index.
type Document struct {
	DocumentID         string   `json:"document_id"`
	SemanticIdentifier string   `json:"semantic_identifier"`
	Title              string   `json:"title,omitempty"`
	Blurb              string   `json:"blurb,omitempty"`
	Score              float64  `json:"score"`
	MatchHighlights    []string `json:"match_highlights,omitempty"`
}

// RelatedDocument is a search hit accepted as contextually relevant to a
// specific (regulation, article) pair, annotated for the caller.
type RelatedDocument struct {
	Document
	RelevanceExplanation string `json:"relevance_explanation"`
	IsRelevant           bool   `json:"is_relevant"`
}

// EventType discriminates the entries of the caller-visible stream.
type EventType string

const (
	EventRegulation      EventType = "regulation"
	EventArticle         EventType = "article"
	EventCitation        EventType = "citation"
	EventRelatedDocument EventType = "related_document"
	EventSummary         EventType = "summary"
	EventError           EventType = "error"
)

// Event is one discrete unit of the output stream. Generation-stage events
// carry the raw model text as content; related_document events carry a
// structured RelatedDocumentContent; error events carry a message string.
type Event struct {
	Type    EventType   `json:"type"`
	Content interface{} `json:"content"`
}

// RelatedDocumentContent is the payload of a related_document event.
type RelatedDocumentContent struct {
	Regulation string          `json:"regulation"`
	Article    string          `json:"article"`
	Document   RelatedDocument `json:"document"`
}

// ErrorEvent builds an error event scoped to one failing unit or stage.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Content: message}
}
