// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// # Title-Derived Keywords

// stopWords is the fixed English stop-word list applied when deriving
// keyword facets from record titles. Providers that return their own
// keyword facets bypass this path entirely.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "not": {}, "their": {}, "which": {}, "these": {}, "those": {},
}

// titleNormalizer strips combining marks after NFD decomposition so that
// accented and unaccented spellings count as the same keyword.
var titleNormalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// TitleKeywords derives a keyword facet from record titles.
//
// Titles are lowercased, diacritics folded, non-alphanumeric runes replaced
// by spaces, tokens split on whitespace and counted after dropping stop
// words. Used for providers that return no keyword facet of their own.
func TitleKeywords(records []*Record) []KeywordCount {
	counter := map[string]int{}

	for _, record := range records {
		if record == nil || record.Title == "" {
			continue
		}

		for _, token := range Tokenize(record.Title) {
			if _, stop := stopWords[token]; stop {
				continue
			}
			counter[token]++
		}
	}

	return sortedKeywords(counter)
}

// Tokenize lowercases and folds a title into plain alphanumeric tokens.
func Tokenize(title string) []string {
	folded, _, err := transform.String(titleNormalizer, title)
	if err != nil {
		// Fall back to the raw title; worst case a few accented tokens
		// count separately.
		folded = title
	}

	folded = strings.ToLower(folded)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	return strings.Fields(cleaned)
}
