package services

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/textnorm"
)

// Keyword tier weights. Tiers are summed, so a chunk matching the raw
// query also collects the case- and accent-folded tiers. Only the order of
// the weights matters to callers.
const (
	scoreRawPhrase     = 1000
	scoreLowerPhrase   = 500
	scoreFoldedPhrase  = 250
	scoreKeywordExact  = 40
	scoreKeywordFolded = 30
	scoreTextContains  = 20
	scoreTextFolded    = 10

	// fallbackWindow is the rolling substring length of the fallback pass.
	fallbackWindow = 4

	// minLooseKeywordLength applies when every query word is a stopword or short.
	minLooseKeywordLength = 3
)

// ScoredEntry is a snapshot entry with its ranking data.
type ScoredEntry struct {
	Entry domain.SnapshotEntry

	// Score is the keyword score or the fused hybrid score.
	Score float64

	// Similarity is the cosine similarity for semantic hits.
	Similarity float64

	// Partial marks hits found only by the fallback pass.
	Partial bool

	// Method is the retrieval method that produced the entry.
	Method string
}

// KeywordScorer ranks chunks by tiered lexical matching. The lowered and
// folded forms of each chunk are computed once per snapshot by Prepare.
type KeywordScorer struct {
	mu    sync.Mutex
	index atomic.Pointer[keywordIndex]
}

// keywordIndex holds the precomputed chunk forms of one snapshot.
type keywordIndex struct {
	snapshotID string
	chunks     map[string]*keywordChunk
}

// NewKeywordScorer creates a keyword scorer.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// keywordQuery holds the query forms compared against each chunk.
type keywordQuery struct {
	raw      string
	lower    string
	folded   string
	keywords []string // lower-cased
	folds    []string // keywords, accent-folded
}

func newKeywordQuery(query string) keywordQuery {
	raw := strings.TrimSpace(query)
	q := keywordQuery{
		raw:    raw,
		lower:  textnorm.Lower(raw),
		folded: textnorm.Fold(raw),
	}

	q.keywords = textnorm.Keywords(raw)
	if len(q.keywords) == 0 {
		seen := make(map[string]bool)
		for _, tok := range textnorm.Tokens(raw) {
			if utf8.RuneCountInString(tok) >= minLooseKeywordLength && !seen[tok] {
				seen[tok] = true
				q.keywords = append(q.keywords, tok)
			}
		}
	}

	q.folds = make([]string, len(q.keywords))
	for i, kw := range q.keywords {
		q.folds[i] = textnorm.StripAccents(kw)
	}
	return q
}

// keywordChunk holds the chunk forms compared against the query.
type keywordChunk struct {
	text        string
	lower       string
	folded      string
	keywords    map[string]bool
	foldedWords map[string]bool
}

func newKeywordChunk(c domain.Chunk) *keywordChunk {
	kc := &keywordChunk{
		text:        c.Text,
		lower:       textnorm.Lower(c.Text),
		keywords:    make(map[string]bool, len(c.Keywords)),
		foldedWords: make(map[string]bool, len(c.Keywords)),
	}
	kc.folded = textnorm.StripAccents(kc.lower)
	for _, kw := range c.Keywords {
		lower := textnorm.Lower(kw)
		kc.keywords[lower] = true
		kc.foldedWords[textnorm.StripAccents(lower)] = true
	}
	return kc
}

// Prepare precomputes the chunk forms of snap. It is a no-op when snap is
// already indexed.
func (s *KeywordScorer) Prepare(snap *domain.Snapshot) {
	if snap == nil || s.indexed(snap.ID) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed(snap.ID) {
		return
	}

	idx := &keywordIndex{
		snapshotID: snap.ID,
		chunks:     make(map[string]*keywordChunk, snap.Len()),
	}
	for i := range snap.Entries {
		c := snap.Entries[i].Chunk
		idx.chunks[c.ID] = newKeywordChunk(c)
	}
	s.index.Store(idx)
}

func (s *KeywordScorer) indexed(snapshotID string) bool {
	idx := s.index.Load()
	return idx != nil && idx.snapshotID == snapshotID
}

// forms returns the precomputed forms of c, computing them when c is not
// part of the prepared snapshot.
func (s *KeywordScorer) forms(c domain.Chunk) *keywordChunk {
	if idx := s.index.Load(); idx != nil {
		if kc, ok := idx.chunks[c.ID]; ok && kc.text == c.Text {
			return kc
		}
	}
	return newKeywordChunk(c)
}

// Score returns the tiered keyword score of a chunk for query.
// Zero means no match in the full pass.
func (s *KeywordScorer) Score(chunk domain.Chunk, query string) int {
	q := newKeywordQuery(query)
	if q.raw == "" {
		return 0
	}
	return scoreChunk(newKeywordChunk(chunk), q)
}

func scoreChunk(c *keywordChunk, q keywordQuery) int {
	score := 0

	if strings.Contains(c.text, q.raw) {
		score += scoreRawPhrase
	}
	if strings.Contains(c.lower, q.lower) {
		score += scoreLowerPhrase
	}
	if strings.Contains(c.folded, q.folded) {
		score += scoreFoldedPhrase
	}

	for i, kw := range q.keywords {
		folded := q.folds[i]
		if c.keywords[kw] {
			score += scoreKeywordExact
		}
		if c.foldedWords[folded] {
			score += scoreKeywordFolded
		}
		if strings.Contains(c.lower, kw) {
			score += scoreTextContains
		}
		if strings.Contains(c.folded, folded) {
			score += scoreTextFolded
		}
	}

	return score
}

// fallbackScore counts the query keywords of at least four characters
// that share any four-character window with the folded chunk text.
func fallbackScore(c *keywordChunk, q keywordQuery) int {
	hits := 0
	for _, kw := range q.folds {
		runes := []rune(kw)
		if len(runes) < fallbackWindow {
			continue
		}
		for i := 0; i+fallbackWindow <= len(runes); i++ {
			if strings.Contains(c.folded, string(runes[i:i+fallbackWindow])) {
				hits++
				break
			}
		}
	}
	return hits
}

// Rank scores every entry against query and returns the best matches,
// highest score first. Ties keep corpus order. When the full pass matches
// nothing anywhere, the fallback pass runs and its hits are marked Partial.
// limit <= 0 uses domain.DefaultSearchLimit.
func (s *KeywordScorer) Rank(entries []domain.SnapshotEntry, query string, limit int) []ScoredEntry {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	q := newKeywordQuery(query)
	if q.raw == "" || len(entries) == 0 {
		return nil
	}

	chunks := make([]*keywordChunk, len(entries))
	for i := range entries {
		chunks[i] = s.forms(entries[i].Chunk)
	}

	var results []ScoredEntry
	for i := range entries {
		if score := scoreChunk(chunks[i], q); score > 0 {
			results = append(results, ScoredEntry{
				Entry:  entries[i],
				Score:  float64(score),
				Method: domain.MethodKeyword,
			})
		}
	}

	if len(results) == 0 {
		for i := range entries {
			if hits := fallbackScore(chunks[i], q); hits > 0 {
				results = append(results, ScoredEntry{
					Entry:   entries[i],
					Score:   float64(hits),
					Partial: true,
					Method:  domain.MethodKeyword,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
