// Package textnorm cleans and folds document text.
//
// It holds the mis-encoded character table applied to uploads, the
// accent/case folding used for matching, and keyword extraction with the
// Spanish stopword list. Everything here is pure and safe for concurrent use.
package textnorm

import "strings"

// mojibake maps UTF-8 sequences that were decoded as Windows-1252 back to
// the intended characters. Longer sequences come first: strings.Replacer
// tries patterns in argument order at each position.
var mojibake = []string{
	// Punctuation encoded as three bytes.
	"â€œ", "“",
	"â€\u009d", "”",
	"â€˜", "‘",
	"â€™", "’",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"â€¢", "•",
	"â€", "”",

	// Lower-case accented letters.
	"Ã¡", "á",
	"Ã©", "é",
	"Ã\u00ad", "í",
	"Ã³", "ó",
	"Ãº", "ú",
	"Ã±", "ñ",
	"Ã¼", "ü",
	"Ã§", "ç",
	"Ã¨", "è",
	"Ã\u00a0", "à",

	// Upper-case accented letters.
	"Ã\u0081", "Á",
	"Ã‰", "É",
	"Ã\u008d", "Í",
	"Ã“", "Ó",
	"Ãš", "Ú",
	"Ã‘", "Ñ",
	"Ãœ", "Ü",

	// Latin-1 punctuation.
	"Â¿", "¿",
	"Â¡", "¡",
	"Â°", "°",
	"Âº", "º",
	"Âª", "ª",
	"Â«", "«",
	"Â»", "»",
	"Â\u00a0", " ",
}

var mojibakeReplacer = strings.NewReplacer(mojibake...)

// FixEncoding repairs known mis-encoded accented characters.
func FixEncoding(s string) string {
	if !strings.ContainsAny(s, "ÃâÂ") {
		return s
	}
	return mojibakeReplacer.Replace(s)
}

// EncodingTable returns a copy of the repair table as broken/fixed pairs.
func EncodingTable() [][2]string {
	pairs := make([][2]string, 0, len(mojibake)/2)
	for i := 0; i+1 < len(mojibake); i += 2 {
		pairs = append(pairs, [2]string{mojibake[i], mojibake[i+1]})
	}
	return pairs
}
