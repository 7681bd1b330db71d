// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slrhub/slrhub/internal/search"
)

/*
TestQuery_Validate covers the structural invariants of the canonical form.
*/
func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   search.Query
		isValid bool
	}{
		{
			name: "single_and_group",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldAll},
			},
			isValid: true,
		},
		{
			name: "and_not_combination",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"energy"}, Match: search.MatchOR},
					{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
				},
				Match: search.MatchAND,
			},
			isValid: true,
		},
		{
			name: "or_not_is_rejected",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"energy"}, Match: search.MatchOR},
					{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
				},
				Match: search.MatchOR,
			},
			isValid: false,
		},
		{
			name:    "no_groups",
			query:   search.Query{Match: search.MatchAND},
			isValid: false,
		},
		{
			name: "empty_group",
			query: search.Query{
				SearchGroups: []search.Group{{Match: search.MatchAND}},
				Match:        search.MatchAND,
			},
			isValid: false,
		},
		{
			name: "blank_term",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"   "}, Match: search.MatchAND},
				},
				Match: search.MatchAND,
			},
			isValid: false,
		},
		{
			name: "not_on_top_level",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"a"}, Match: search.MatchAND},
				},
				Match: search.MatchNOT,
			},
			isValid: false,
		},
		{
			name: "all_is_exclusive",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"a"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldAll, search.FieldTitle},
			},
			isValid: false,
		},
		{
			name: "unknown_field",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"a"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{"fulltext"},
			},
			isValid: false,
		},
		{
			name: "empty_fields_are_fine",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"a"}, Match: search.MatchOR},
				},
				Match: search.MatchOR,
			},
			isValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.isValid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

/*
TestInvalid verifies the shape contract of the invalid envelope: identical
top-level structure, total -1, no records.
*/
func TestInvalid(t *testing.T) {
	query := &search.Query{Match: search.MatchAND}
	envelope := search.Invalid(query, "q=broken", "key-123", "HTTP error: 500 Internal Server Error", 21, 20)

	assert.True(t, envelope.IsInvalid())
	assert.Equal(t, -1, envelope.Result.Total)
	assert.Equal(t, 0, envelope.Result.RecordsDisplayed)
	assert.Equal(t, 21, envelope.Result.Start)
	assert.Equal(t, 20, envelope.Result.PageLength)
	assert.NotNil(t, envelope.Records)
	assert.Empty(t, envelope.Records)
	assert.Equal(t, query, envelope.Query)
	assert.Equal(t, "q=broken", envelope.DBQuery)
	assert.Equal(t, "key-123", envelope.APIKey)
}
