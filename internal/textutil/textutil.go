// Package textutil provides the text-processing primitives behind keyword
// search: keyword extraction, snippet highlighting and chunking for batch
// embedding.
package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords are excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "said": {}, "each": {}, "which": {},
	"their": {}, "time": {}, "if": {}, "up": {}, "out": {}, "many": {},
	"then": {}, "them": {}, "these": {}, "so": {}, "some": {}, "her": {},
	"would": {}, "make": {}, "like": {}, "into": {}, "him": {}, "two": {},
	"more": {}, "very": {}, "after": {}, "words": {}, "long": {}, "than": {},
	"first": {}, "been": {}, "call": {}, "who": {}, "oil": {}, "sit": {},
	"now": {}, "find": {}, "down": {}, "day": {}, "did": {}, "get": {},
	"come": {}, "made": {}, "may": {}, "part": {},
}

var (
	wordRx       = regexp.MustCompile(`[a-z]+`)
	whitespaceRx = regexp.MustCompile(`\s+`)
	controlRx    = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	unicodeRepl  = strings.NewReplacer(
		"’", "'", "‘", "'",
		"“", `"`, "”", `"`,
		"–", "-", "—", "-",
		" ", " ",
	)
)

// Clean collapses whitespace, strips control characters and normalizes common
// typographic unicode punctuation to ASCII.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRx.ReplaceAllString(text, " ")
	text = controlRx.ReplaceAllString(text, "")
	text = unicodeRepl.Replace(text)
	return strings.TrimSpace(text)
}

// ExtractKeywords returns up to maxKeywords tokens ranked by frequency.
// Tokens are lowercase alphabetic runs, with stop words and tokens shorter
// than minLength removed. The order of equally frequent tokens is
// unspecified. Empty text returns nil.
func ExtractKeywords(text string, maxKeywords, minLength int) []string {
	if text == "" || maxKeywords <= 0 {
		return nil
	}
	words := wordRx.FindAllString(strings.ToLower(Clean(text)), -1)

	counts := make(map[string]int)
	for _, w := range words {
		if len(w) < minLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		counts[w]++
	}
	if len(counts) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// Highlight builds a snippet of text around the earliest occurrence of any
// keyword, bounded by maxLength and snapped to nearby word boundaries.
// Ellipsis markers are added on truncated sides. When no keyword matches,
// a prefix of the text is returned. The keyword at the smallest offset wins;
// offset ties resolve in keyword list order.
func Highlight(text string, keywords []string, maxLength int) string {
	if text == "" || maxLength <= 0 {
		return ""
	}

	textLower := strings.ToLower(text)
	first := len(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if pos := strings.Index(textLower, strings.ToLower(kw)); pos != -1 && pos < first {
			first = pos
		}
	}
	if first == len(text) {
		return Truncate(text, maxLength)
	}

	start := first - maxLength/4
	if start < 0 {
		start = 0
	}
	end := start + maxLength
	if end > len(text) {
		end = len(text)
	}

	// Snap to word boundaries when one is close enough.
	if start > 0 {
		if sp := strings.IndexByte(text[start:end], ' '); sp != -1 && sp < 20 {
			start += sp + 1
		}
	}
	if end < len(text) {
		if sp := strings.LastIndexByte(text[start:end], ' '); sp != -1 && (end-start)-sp < 20 {
			end = start + sp
		}
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

// Chunk splits text into overlapping windows of at most chunkSize bytes,
// preferring to break at whitespace near the boundary and advancing by
// chunkSize-overlap each step. An overlap >= chunkSize is a configuration
// error and yields the whole text as a single chunk.
func Chunk(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 || overlap >= chunkSize || overlap < 0 {
		return []string{text}
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			// Prefer a whitespace break within the last 50 bytes.
			from := end - 50
			if from < start {
				from = start
			}
			if sp := strings.LastIndexByte(text[from:end], ' '); sp != -1 && from+sp > start {
				end = from + sp
			}
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}
		if end >= len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			// Guarantee forward progress when no whitespace was found.
			next = end
		}
		start = next
	}
	return chunks
}

// Truncate shortens text to at most maxLength bytes plus an ellipsis marker,
// breaking at a word boundary when one is reasonably close.
func Truncate(text string, maxLength int) string {
	if text == "" || len(text) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return "..."
	}
	cut := maxLength
	if sp := strings.LastIndexByte(text[:cut], ' '); sp > (cut*4)/5 {
		cut = sp
	}
	return text[:cut] + "..."
}
