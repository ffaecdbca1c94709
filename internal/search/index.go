// File path: internal/search/index.go
package search

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/compliance"
)

// IndexedDocument is one corpus entry: the wire-visible document plus the
// access principals allowed to see it. An empty Access list means public.
type IndexedDocument struct {
	compliance.Document
	Access []string `json:"access,omitempty"`
}

// Index is an in-memory tf-idf document index. It serves as the default
// SearchClient for deployments without an external document index; scoring is
// rebuilt once at load time, so Search is safe for concurrent use.
type Index struct {
	docs    []IndexedDocument
	vectors []map[string]float64
	norms   []float64
	df      map[string]int
	total   int
}

// NewIndex builds an index over the provided corpus.
func NewIndex(docs []IndexedDocument) *Index {
	idx := &Index{
		docs:    append([]IndexedDocument(nil), docs...),
		vectors: make([]map[string]float64, len(docs)),
		norms:   make([]float64, len(docs)),
		df:      make(map[string]int),
		total:   len(docs),
	}
	for i, doc := range idx.docs {
		corpus := doc.SemanticIdentifier + " " + doc.Title + " " + doc.Blurb
		tf := make(map[string]float64)
		for _, term := range tokenize(corpus) {
			tf[term]++
		}
		for term := range tf {
			idx.df[term]++
		}
		idx.vectors[i] = tf
	}
	for i, tf := range idx.vectors {
		var norm float64
		for term, freq := range tf {
			weight := idx.tfidfWeight(term, freq)
			tf[term] = weight
			norm += weight * weight
		}
		idx.norms[i] = math.Sqrt(norm)
	}
	return idx
}

// LoadIndex reads a JSONL corpus, one IndexedDocument per line.
func LoadIndex(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()
	var docs []IndexedDocument
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc IndexedDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("parse corpus line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	common.Logger().Info("search: corpus loaded", "path", path, "documents", len(docs))
	return NewIndex(docs), nil
}

// Size returns the number of indexed documents.
func (idx *Index) Size() int {
	return idx.total
}

// Search scores the corpus against the query, filters by the caller's access
// list, and returns up to limit*OverfetchFactor hits, highest score first.
func (idx *Index) Search(ctx context.Context, query string, filters AccessFilters, limit int) ([]compliance.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}
	qtf := make(map[string]float64)
	for _, term := range terms {
		qtf[term]++
	}
	var qnorm float64
	for term, freq := range qtf {
		weight := idx.tfidfWeight(term, freq)
		qtf[term] = weight
		qnorm += weight * weight
	}
	qnorm = math.Sqrt(qnorm)
	if qnorm == 0 {
		return nil, nil
	}
	type scored struct {
		doc   compliance.Document
		score float64
		pos   int
	}
	hits := make([]scored, 0, len(idx.docs))
	for i, doc := range idx.docs {
		if !accessible(doc.Access, filters.AccessControlList) {
			continue
		}
		dv := idx.vectors[i]
		if len(dv) == 0 {
			continue
		}
		var dot float64
		for term, weight := range qtf {
			dot += weight * dv[term]
		}
		denom := qnorm * idx.norms[i]
		if denom == 0 {
			continue
		}
		score := dot / denom
		if score <= 0 {
			continue
		}
		hit := doc.Document
		hit.Score = score
		hits = append(hits, scored{doc: hit, score: score, pos: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].score > hits[j].score
	})
	max := limit * OverfetchFactor
	if len(hits) > max {
		hits = hits[:max]
	}
	out := make([]compliance.Document, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.doc)
	}
	return out, nil
}

func accessible(access, acl []string) bool {
	if len(access) == 0 {
		return true
	}
	for _, required := range access {
		for _, have := range acl {
			if strings.EqualFold(required, have) {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	replacer := strings.NewReplacer(
		".", " ",
		",", " ",
		"\n", " ",
		"\t", " ",
		":", " ",
		";", " ",
		"-", " ",
		"_", " ",
		"(", " ",
		")", " ",
		"'", " ",
		"\"", " ",
	)
	cleaned := replacer.Replace(text)
	return strings.Fields(cleaned)
}

func (idx *Index) tfidfWeight(term string, freq float64) float64 {
	df := float64(idx.df[term])
	if df == 0 {
		return 0
	}
	idf := math.Log((float64(idx.total)+1)/(df+1)) + 1
	return freq * idf
}
