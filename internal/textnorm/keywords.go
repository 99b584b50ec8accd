package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinKeywordLength is the shortest keyword kept, in runes.
const MinKeywordLength = 4

// spanishStopwords lists function words dropped from keyword sets.
// Entries are stored folded, so accented and plain spellings both match.
var spanishStopwords = buildStopwords([]string{
	"a", "al", "algo", "algunas", "algunos", "ante", "antes", "aquel", "aquella",
	"aquellas", "aquellos", "aqui", "así", "aun", "aunque", "bajo", "bien", "cada",
	"casi", "como", "con", "contra", "cual", "cuales", "cualquier", "cuando",
	"cuanto", "de", "del", "desde", "donde", "dos", "durante", "e", "el", "ella",
	"ellas", "ello", "ellos", "en", "entre", "era", "erais", "eran", "eras",
	"eres", "es", "esa", "esas", "ese", "eso", "esos", "esta", "estaba",
	"estaban", "estado", "estamos", "estan", "estar", "estas", "este", "esto",
	"estos", "estoy", "fue", "fueron", "fui", "ha", "habia", "habian", "haber",
	"hace", "hacen", "hacer", "hacia", "han", "hasta", "hay", "la", "las", "le",
	"les", "lo", "los", "mas", "me", "mi", "mis", "mismo", "mucho", "muy", "nada",
	"ni", "no", "nos", "nosotros", "nuestra", "nuestro", "o", "otra", "otras",
	"otro", "otros", "para", "pero", "poco", "por", "porque", "puede", "pueden",
	"que", "quien", "quienes", "se", "sea", "sean", "segun", "ser", "si", "sido",
	"siempre", "sin", "sino", "sobre", "solo", "son", "su", "sus", "tal",
	"tambien", "tanto", "te", "tiene", "tienen", "todo", "todos", "tras", "tu",
	"tus", "un", "una", "unas", "uno", "unos", "usted", "ustedes", "va", "vamos",
	"van", "y", "ya", "yo",
	// Question/answer cue words carry no topical meaning.
	"pregunta", "respuesta",
})

func buildStopwords(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[Fold(w)] = struct{}{}
	}
	return set
}

// IsStopword reports whether word is a Spanish stopword, ignoring case and accents.
func IsStopword(word string) bool {
	_, ok := spanishStopwords[Fold(word)]
	return ok
}

// Tokens lower-cases text, replaces punctuation with spaces and splits it
// into words. Order and duplicates are preserved.
func Tokens(text string) []string {
	lowered := Lower(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// Keywords extracts the keyword set of text: lower-cased tokens without
// punctuation or stopwords, at least MinKeywordLength runes long,
// deduplicated in first-occurrence order.
func Keywords(text string) []string {
	tokens := Tokens(text)
	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < MinKeywordLength || IsStopword(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}
