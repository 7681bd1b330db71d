// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slrhub/slrhub/internal/search"
)

/*
TestMergeFacets_Addition checks key-wise addition of country and keyword
counters.
*/
func TestMergeFacets_Addition(t *testing.T) {
	left := &search.Facets{
		Countries: map[string]int{"DE": 2, "US": 1},
		Keywords:  []search.KeywordCount{{Text: "bitcoin", Value: 3}},
	}
	right := &search.Facets{
		Countries: map[string]int{"DE": 1, "JP": 4},
		Keywords: []search.KeywordCount{
			{Text: "bitcoin", Value: 1},
			{Text: "ledger", Value: 2},
		},
	}

	merged := search.MergeFacets(left, right)

	assert.Equal(t, map[string]int{"DE": 3, "US": 1, "JP": 4}, merged.Countries)
	assert.Equal(t, []search.KeywordCount{
		{Text: "bitcoin", Value: 4},
		{Text: "ledger", Value: 2},
	}, merged.Keywords)
}

/*
TestMergeFacets_AssociativeCommutative verifies the algebraic properties
the orchestrator relies on when combining per-provider blocks.
*/
func TestMergeFacets_AssociativeCommutative(t *testing.T) {
	a := &search.Facets{Countries: map[string]int{"DE": 1}, Keywords: []search.KeywordCount{{Text: "x", Value: 1}}}
	b := &search.Facets{Countries: map[string]int{"DE": 2, "FR": 1}, Keywords: []search.KeywordCount{{Text: "y", Value: 5}}}
	c := &search.Facets{Countries: map[string]int{"FR": 3}, Keywords: []search.KeywordCount{{Text: "x", Value: 2}}}

	leftFirst := search.MergeFacets(search.MergeFacets(a, b), c)
	rightFirst := search.MergeFacets(a, search.MergeFacets(b, c))
	reordered := search.MergeFacets(c, a, b)

	assert.Equal(t, leftFirst, rightFirst)
	assert.Equal(t, leftFirst, reordered)
}

/*
TestMergeFacets_NilBlocks ensures nil inputs are skipped rather than
panicking; a failed wrapper contributes no facets.
*/
func TestMergeFacets_NilBlocks(t *testing.T) {
	merged := search.MergeFacets(nil, &search.Facets{Countries: map[string]int{"US": 1}}, nil)

	assert.Equal(t, map[string]int{"US": 1}, merged.Countries)
	assert.Empty(t, merged.Keywords)
}

/*
TestMergeFacets_DeterministicOrder checks that keyword output is ordered by
descending count with text as the tie-breaker.
*/
func TestMergeFacets_DeterministicOrder(t *testing.T) {
	merged := search.MergeFacets(&search.Facets{
		Keywords: []search.KeywordCount{
			{Text: "beta", Value: 2},
			{Text: "alpha", Value: 2},
			{Text: "gamma", Value: 7},
		},
	})

	assert.Equal(t, []search.KeywordCount{
		{Text: "gamma", Value: 7},
		{Text: "alpha", Value: 2},
		{Text: "beta", Value: 2},
	}, merged.Keywords)
}
