// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package search

import (
	"sort"

	"github.com/samber/lo"
)

// # Facets

// KeywordCount is a single keyword facet entry.
type KeywordCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Facets aggregates counters over the records of one or more envelopes.
//
// Countries are keyed by ISO-3166-1 alpha-2 code. Keyword counts are keyed
// on their text when merging.
type Facets struct {
	Countries map[string]int `json:"countries,omitempty"`
	Keywords  []KeywordCount `json:"keywords,omitempty"`
}

// Empty returns a zeroed facet block.
//
// The orchestrator attaches it to every envelope except the first so that
// clients merging envelope facets never double-count.
func Empty() *Facets {
	return &Facets{}
}

// # Merging

// MergeFacets combines any number of facet blocks by key-wise addition.
//
// The operation is associative and commutative: countries add per ISO code,
// keywords add per text. Nil inputs are skipped. The result's keyword list
// is ordered by descending count, ties broken by text, so merged output is
// deterministic.
func MergeFacets(blocks ...*Facets) *Facets {
	countries := map[string]int{}
	keywords := map[string]int{}

	for _, block := range blocks {
		if block == nil {
			continue
		}
		for code, count := range block.Countries {
			countries[code] += count
		}
		for _, keyword := range block.Keywords {
			keywords[keyword.Text] += keyword.Value
		}
	}

	merged := &Facets{Keywords: sortedKeywords(keywords)}
	if len(countries) > 0 {
		merged.Countries = countries
	}
	return merged
}

// sortedKeywords re-emits a keyword counter map as an ordered facet list.
func sortedKeywords(counter map[string]int) []KeywordCount {
	entries := lo.MapToSlice(counter, func(text string, value int) KeywordCount {
		return KeywordCount{Text: text, Value: value}
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Text < entries[j].Text
	})

	if len(entries) == 0 {
		return nil
	}
	return entries
}
