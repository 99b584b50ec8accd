package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	literalEscapes = strings.NewReplacer(
		`\r\n`, "\n",
		`\n`, "\n",
		`\r`, "\n",
		`\t`, " ",
	)
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Clean prepares raw document text for chunking. In order it:
// turns literal escape sequences ("\n", "\t") into whitespace, repairs
// mis-encoded characters, drops control characters, collapses repeated
// spaces, and joins lines that were broken in the middle of a sentence.
// Blank lines are kept as paragraph boundaries.
func Clean(text string) string {
	text = literalEscapes.Replace(text)
	text = FixEncoding(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripControl(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}

	text = strings.Join(joinBrokenLines(lines), "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripControl removes control characters other than newlines and tabs.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == utf8.RuneError:
			return -1
		case unicode.IsControl(r):
			return -1
		case r == '\u200b' || r == '\ufeff':
			return -1
		}
		return r
	}, s)
}

// joinBrokenLines merges a line into the previous one when the previous
// line does not end a sentence and the line starts in lower case.
func joinBrokenLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		n := len(out)
		if n > 0 && line != "" && out[n-1] != "" && continuesSentence(out[n-1], line) {
			out[n-1] += " " + line
			continue
		}
		out = append(out, line)
	}
	return out
}

func continuesSentence(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	if strings.ContainsRune(".!?:;…", last) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(next)
	return unicode.IsLower(first)
}
