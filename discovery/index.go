// Package discovery ranks a tool collection by lexical relevance to a
// free-text query, so an agent can find a tool without knowing its exact
// name.
package discovery

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/effective-security/agentools/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/kljensen/snowball"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentools", "discovery")

const (
	// DefaultLimit is the number of hits returned when the query does not
	// set one.
	DefaultLimit = 5
	// DefaultMinScore is the normalized score threshold below which hits
	// are dropped entirely.
	DefaultMinScore = 0.3

	bm25K1 = 1.5
	bm25B  = 0.75
)

// action verbs promoted to tags so "create x" style queries rank
// operation tools.
var actionVerbs = map[string]bool{
	"create": true,
	"update": true,
	"delete": true,
	"get":    true,
	"list":   true,
	"search": true,
}

var wordRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Query is a discovery request.
type Query struct {
	Text string `json:"query" jsonschema:"description=Natural language description of the needed capability."`
	// Limit caps the number of hits; default 5.
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of tools to return."`
	// MinScore drops hits scoring below it on the 0-1 normalized scale;
	// default 0.3.
	MinScore float64 `json:"minScore,omitempty" jsonschema:"description=Minimum relevance score on a 0-1 scale."`
}

// Hit is one ranked result, resolved back to its full tool for direct
// execution.
type Hit struct {
	Tool  *tools.Tool `json:"-"`
	Name  string      `json:"name"`
	Score float64     `json:"score"`
}

type document struct {
	tool     *tools.Tool
	termFreq map[string]int
	length   int
}

// Index is a BM25 relevance index over a tool collection. Build once,
// query many times; it does not observe later collection mutations.
type Index struct {
	docs      []document
	idf       map[string]float64
	avgDocLen float64
}

// New builds the index. Each tool is indexed as a document with its name,
// description, category (first underscore-delimited name segment), and
// tags (all name segments plus any segment in the action-verb
// vocabulary).
func New(col *tools.Collection) *Index {
	idx := &Index{
		idf: map[string]float64{},
	}

	termDocCount := map[string]int{}
	totalLen := 0

	for _, t := range col.ToArray() {
		terms := documentTerms(t)
		doc := document{
			tool:     t,
			termFreq: map[string]int{},
			length:   len(terms),
		}
		totalLen += len(terms)

		seen := map[string]bool{}
		for _, term := range terms {
			doc.termFreq[term]++
			if !seen[term] {
				termDocCount[term]++
				seen[term] = true
			}
		}
		idx.docs = append(idx.docs, doc)
	}

	if len(idx.docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(idx.docs))
	}
	n := float64(len(idx.docs))
	for term, df := range termDocCount {
		idx.idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
	}

	logger.KV(xlog.DEBUG, "indexed", len(idx.docs), "terms", len(idx.idf))
	return idx
}

// Search ranks the indexed tools against the query text. Results below
// MinScore are dropped rather than returned with a low score.
func (idx *Index) Search(q Query) []Hit {
	limit := values.NumbersCoalesce(q.Limit, DefaultLimit)
	minScore := q.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	}

	queryTerms := tokenize(q.Text)
	if len(queryTerms) == 0 {
		return nil
	}

	raw := map[int]float64{}
	for i, doc := range idx.docs {
		score := 0.0
		docLen := float64(doc.length)
		for _, term := range queryTerms {
			tf, ok := doc.termFreq[term]
			if !ok {
				continue
			}
			numerator := float64(tf) * (bm25K1 + 1.0)
			denominator := float64(tf) + bm25K1*(1.0-bm25B+bm25B*(docLen/idx.avgDocLen))
			score += idx.idf[term] * (numerator / denominator)
		}
		if score > 0 {
			raw[i] = score
		}
	}
	if len(raw) == 0 {
		return nil
	}

	normalized := normalizeScores(raw)

	hits := make([]Hit, 0, len(normalized))
	for i, score := range normalized {
		hits = append(hits, Hit{
			Tool:  idx.docs[i].tool,
			Name:  idx.docs[i].tool.Name(),
			Score: score,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= minScore {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}

// normalizeScores min-max normalizes raw BM25 scores to the 0-1 scale.
// A single surviving document scores 1.0.
func normalizeScores(raw map[int]float64) map[int]float64 {
	minScore := math.MaxFloat64
	maxScore := -math.MaxFloat64
	for _, score := range raw {
		minScore = math.Min(minScore, score)
		maxScore = math.Max(maxScore, score)
	}

	normalized := make(map[int]float64, len(raw))
	scoreRange := maxScore - minScore
	if scoreRange == 0 {
		for i := range raw {
			normalized[i] = 1.0
		}
		return normalized
	}
	for i, score := range raw {
		normalized[i] = (score - minScore) / scoreRange
	}
	return normalized
}

func documentTerms(t *tools.Tool) []string {
	segments := strings.Split(strings.ToLower(t.Name()), "_")

	var fields []string
	fields = append(fields, t.Name(), t.Description())
	if len(segments) > 0 {
		// category: provider or vertical prefix of the name
		fields = append(fields, segments[0])
	}
	for _, seg := range segments {
		fields = append(fields, seg)
		if actionVerbs[seg] {
			fields = append(fields, seg)
		}
	}
	return tokenize(strings.Join(fields, " "))
}

// tokenize lowercases, splits on non-alphanumerics, and stems, so that
// inflectional variation still matches.
func tokenize(text string) []string {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		stemmed, err := snowball.Stem(word, "english", true)
		if err != nil || stemmed == "" {
			stemmed = word
		}
		terms = append(terms, stemmed)
	}
	return terms
}
