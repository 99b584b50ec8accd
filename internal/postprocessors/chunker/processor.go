// Package chunker splits cleaned document text into keyword-tagged chunks.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/textnorm"
)

// Ensure Processor implements the interface.
var _ driven.ChunkExtractor = (*Processor)(nil)

// DefaultMinParagraphLength is the shortest paragraph kept, in characters.
const DefaultMinParagraphLength = 50

// DefaultMaxChunkLength is the longest chunk produced, in characters.
// Longer paragraphs are split at sentence boundaries.
const DefaultMaxChunkLength = 1500

// minQALength is the shortest question/answer pair kept, in characters.
const minQALength = 20

// Question/answer cue markers. Single-letter cues only count at line start.
var (
	questionCue = regexp.MustCompile(`(?im)(?:\b(?:pregunta|question)[ \t]*\d*[ \t]*[:.\-]|^[ \t]*¿?[pq][ \t]*[:\-])`)
	answerCue   = regexp.MustCompile(`(?im)(?:\b(?:respuesta|answer)[ \t]*\d*[ \t]*[:.\-]|^[ \t]*[ra][ \t]*[:\-])`)
)

// Processor extracts chunks from document text.
type Processor struct {
	minParagraph int
	maxChunk     int
	stopwords    map[string]struct{}
	newID        func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMinParagraphLength sets the shortest paragraph kept.
func WithMinParagraphLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minParagraph = n
		}
	}
}

// WithMaxChunkLength sets the longest chunk produced.
func WithMaxChunkLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChunk = n
		}
	}
}

// WithStopwords adds words dropped from chunk keywords on top of the
// built-in Spanish list. Matching ignores case and accents.
func WithStopwords(words ...string) Option {
	return func(p *Processor) {
		for _, w := range words {
			if p.stopwords == nil {
				p.stopwords = make(map[string]struct{}, len(words))
			}
			p.stopwords[textnorm.Fold(w)] = struct{}{}
		}
	}
}

// WithIDGenerator replaces the chunk ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minParagraph: DefaultMinParagraphLength,
		maxChunk:     DefaultMaxChunkLength,
		newID:        func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	// A chunk limit below the paragraph minimum would drop every split piece.
	if p.maxChunk < p.minParagraph*2 {
		p.maxChunk = p.minParagraph * 2
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// piece is a chunk text before IDs and keywords are assigned.
type piece struct {
	text string
	qa   bool
}

// Extract cleans text and splits it into chunks for fileID.
// Paragraphs shorter than the minimum are dropped; question/answer pairs
// found by the cue scan are added (or flagged, when a paragraph already
// holds the same text). It performs no I/O.
func (p *Processor) Extract(fileID, text string) []domain.Chunk {
	cleaned := textnorm.Clean(text)
	if cleaned == "" {
		return nil
	}

	var pieces []piece
	seen := make(map[string]int)

	add := func(text string, qa bool) {
		key := dedupeKey(text)
		if idx, ok := seen[key]; ok {
			if qa {
				pieces[idx].qa = true
			}
			return
		}
		seen[key] = len(pieces)
		pieces = append(pieces, piece{text: text, qa: qa})
	}

	for _, para := range splitParagraphs(cleaned) {
		if utf8.RuneCountInString(para) < p.minParagraph {
			continue
		}
		for _, part := range p.splitLong(para) {
			add(part, false)
		}
	}

	for _, pair := range ScanQuestionAnswers(cleaned) {
		if utf8.RuneCountInString(pair) < minQALength {
			continue
		}
		add(pair, true)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, pc := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:               p.newID(),
			FileID:           fileID,
			Position:         i,
			Text:             pc.text,
			Keywords:         p.keywords(pc.text),
			IsQuestionAnswer: pc.qa,
		})
	}
	return chunks
}

// keywords extracts the keyword set of text, honouring extra stopwords.
func (p *Processor) keywords(text string) []string {
	kws := textnorm.Keywords(text)
	if len(p.stopwords) == 0 {
		return kws
	}
	out := kws[:0]
	for _, kw := range kws {
		if _, stop := p.stopwords[textnorm.Fold(kw)]; !stop {
			out = append(out, kw)
		}
	}
	return out
}

// splitParagraphs splits cleaned text on blank lines.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paras := make([]string, 0, len(raw))
	for _, para := range raw {
		if para = strings.TrimSpace(para); para != "" {
			paras = append(paras, para)
		}
	}
	return paras
}

// splitLong breaks a paragraph longer than maxChunk at sentence boundaries.
// A trailing piece shorter than the paragraph minimum is merged backwards.
func (p *Processor) splitLong(para string) []string {
	if utf8.RuneCountInString(para) <= p.maxChunk {
		return []string{para}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range splitSentences(para) {
		for _, unit := range hardWrap(sentence, p.maxChunk) {
			n := utf8.RuneCountInString(unit)
			if currentLen > 0 && currentLen+1+n > p.maxChunk {
				flush()
			}
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(unit)
			currentLen += n
		}
	}
	flush()

	if len(parts) > 1 && utf8.RuneCountInString(parts[len(parts)-1]) < p.minParagraph {
		last := parts[len(parts)-1]
		parts = parts[:len(parts)-1]
		parts[len(parts)-1] += " " + last
	}
	return parts
}

// splitSentences cuts text after terminal punctuation followed by space.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if !strings.ContainsRune(".!?…", r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardWrap splits a single over-long sentence on word boundaries.
func hardWrap(sentence string, limit int) []string {
	if utf8.RuneCountInString(sentence) <= limit {
		return []string{sentence}
	}
	var out []string
	var line strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(sentence) {
		n := utf8.RuneCountInString(word)
		if lineLen > 0 && lineLen+1+n > limit {
			out = append(out, line.String())
			line.Reset()
			lineLen = 0
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(word)
		lineLen += n
	}
	if lineLen > 0 {
		out = append(out, line.String())
	}
	return out
}

// ScanQuestionAnswers finds question/answer pairs marked by cue words
// ("Pregunta:"/"Respuesta:", "Question:"/"Answer:", or "P:"/"R:" at line
// start). Each pair runs from its question cue to the end of the answer's
// paragraph or the next question cue, whichever comes first.
func ScanQuestionAnswers(text string) []string {
	qLocs := questionCue.FindAllStringIndex(text, -1)
	pairs := make([]string, 0, len(qLocs))

	for i, q := range qLocs {
		end := len(text)
		if i+1 < len(qLocs) {
			end = qLocs[i+1][0]
		}

		rest := text[q[1]:end]
		a := answerCue.FindStringIndex(rest)
		if a == nil {
			continue
		}

		question := strings.TrimSpace(rest[:a[0]])
		answer := rest[a[1]:]
		if cut := strings.Index(answer, "\n\n"); cut >= 0 {
			answer = answer[:cut]
		}
		if question == "" || strings.TrimSpace(answer) == "" {
			continue
		}

		pairEnd := q[1] + a[1] + len(answer)
		pairs = append(pairs, strings.TrimSpace(text[q[0]:pairEnd]))
	}
	return pairs
}

// dedupeKey normalises text for duplicate detection.
func dedupeKey(text string) string {
	return strings.Join(strings.Fields(textnorm.Lower(text)), " ")
}
