// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slrhub/slrhub/internal/search"
)

func springerForTest() *Springer {
	return NewSpringer("test-key", NewExecutor(0, nil))
}

/*
TestSpringer_TranslateQuery covers the GET expression rendering, including
the literal URL shape clients depend on.
*/
func TestSpringer_TranslateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   search.Query
		urlTail string
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
			urlTail: "&q=(bitcoin+AND+blockchain)",
		},
		{
			name: "not_group_negated_with_dash",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"energy"}, Match: search.MatchOR},
					{SearchTerms: []string{"nuclear", "coal"}, Match: search.MatchNOT},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldAll},
			},
			urlTail: "&q=(energy)+AND+-(nuclear+OR+coal)",
		},
		{
			name: "title_field_prefixes_terms",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"bitcoin", "ethereum"}, Match: search.MatchOR},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldTitle},
			},
			urlTail: "&q=(title:bitcoin+OR+title:ethereum)",
		},
		{
			name: "phrase_is_quoted_and_encoded",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"machine learning"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldAll},
			},
			urlTail: "&q=(%22machine+learning%22)",
		},
		{
			name: "multiple_fields_join_with_or",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"graphene"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldTitle, search.FieldKeywords},
			},
			urlTail: "&q=(title:graphene)+OR+(keyword:graphene)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			springer := springerForTest()

			request, err := springer.TranslateQuery(&tt.query)
			require.NoError(t, err)

			assert.Equal(t, "GET", request.Method)
			assert.True(t, strings.HasSuffix(request.URL, tt.urlTail),
				"URL %q should end with %q", request.URL, tt.urlTail)
			assert.Contains(t, request.URL, "http://api.springernature.com/metadata/json?api_key=test-key&s=1&p=50")
		})
	}
}

/*
TestSpringer_TranslateQuery_Errors covers BadQuery classifications.
*/
func TestSpringer_TranslateQuery_Errors(t *testing.T) {
	springer := springerForTest()

	// OR-NOT is inexpressible.
	_, err := springer.TranslateQuery(&search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"energy"}, Match: search.MatchOR},
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
		},
		Match: search.MatchOR,
	})
	require.Error(t, err)
	assert.Equal(t, KindBadQuery, err.(*Error).Kind)

	// The abstract field has no Springer token.
	_, err = springer.TranslateQuery(&search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"energy"}, Match: search.MatchOR},
		},
		Match:  search.MatchAND,
		Fields: []search.Field{search.FieldAbstract},
	})
	require.Error(t, err)
	assert.Equal(t, KindBadQuery, err.(*Error).Kind)
}

/*
TestSpringer_Configuration exercises the collection/format coupling and the
pagination clamps.
*/
func TestSpringer_Configuration(t *testing.T) {
	springer := springerForTest()

	// Illegal format for the current collection fails.
	err := springer.SetResultFormat("xml")
	require.Error(t, err)
	assert.Equal(t, KindBadConfig, err.(*Error).Kind)
	assert.Equal(t, "json", springer.ResultFormat())

	// Unknown collections are rejected.
	require.Error(t, springer.SetCollection("books"))

	// Switching to a collection that doesn't support the current format
	// coerces to the collection's first allowed format.
	require.NoError(t, springer.SetCollection("integro"))
	assert.Equal(t, "xml", springer.ResultFormat())

	// The openaccess collection caps at 20 records and clamps show_num;
	// xml is illegal there, so the format coerces to jats.
	require.NoError(t, springer.SetCollection("openaccess"))
	assert.Equal(t, "jats", springer.ResultFormat())
	assert.Equal(t, 20, springer.MaxRecords())
	assert.Equal(t, 20, springer.ShowNum())

	springer.SetShowNum(50)
	assert.Equal(t, 20, springer.ShowNum())
}

/*
TestSpringer_SearchField covers manual search validation.
*/
func TestSpringer_SearchField(t *testing.T) {
	springer := springerForTest()

	require.NoError(t, springer.SearchField("doi", "10.1000/xyz"))
	require.NoError(t, springer.SearchField("type", "Journal"))

	assert.Error(t, springer.SearchField("type", "Magazine"))
	assert.Error(t, springer.SearchField("nonsense", "value"))
	assert.Error(t, springer.SearchField("doi", "   "))

	require.NoError(t, springer.ResetField("doi"))
	assert.Error(t, springer.ResetField("doi"))

	request, err := springer.BuildQuery()
	require.NoError(t, err)
	assert.Contains(t, request.URL, "&q=type:Journal")

	springer.ResetAllFields()
	_, err = springer.BuildQuery()
	assert.Error(t, err)
}

/*
TestSpringer_Normalize maps a representative provider payload onto the
canonical envelope.
*/
func TestSpringer_Normalize(t *testing.T) {
	payload := []byte(`{
		"query": "(bitcoin)",
		"result": [{"total": "42", "start": "1", "pageLength": "10", "recordsDisplayed": "2"}],
		"records": [
			{
				"contentType": "Article",
				"title": "Bitcoin Economics",
				"creators": [{"creator": "Doe, Jane"}, {"creator": "Roe, Richard"}],
				"publicationName": "Journal of Money",
				"doi": "10.1000/a",
				"publisher": "Springer",
				"publicationDate": "2019-04-01",
				"issn": "1234-5678",
				"volume": "7",
				"number": "2",
				"genre": ["OriginalPaper"],
				"startingPage": "11",
				"endingPage": "29",
				"journalId": "604",
				"abstract": "On the economics of bitcoin.",
				"url": [{"format": "html", "platform": "web", "value": "https://link.springer.com/a"}],
				"openaccess": "true"
			},
			{
				"title": "Untitled Note",
				"genre": "BriefCommunication",
				"openaccess": "false"
			}
		],
		"facets": [
			{"name": "country", "values": [{"value": "Germany", "count": "3"}, {"value": "Japan", "count": "1"}]},
			{"name": "keyword", "values": [{"value": "Blockchain", "count": "5"}]}
		]
	}`)

	springer := springerForTest()
	envelope, err := springer.normalize(payload, &search.Query{Match: search.MatchAND}, "(bitcoin)")
	require.NoError(t, err)

	assert.Equal(t, 42, envelope.Result.Total)
	assert.Equal(t, 2, envelope.Result.RecordsDisplayed)
	require.Len(t, envelope.Records, 2)

	first := envelope.Records[0]
	assert.Equal(t, []string{"Doe, Jane", "Roe, Richard"}, first.Authors)
	assert.Equal(t, "https://link.springer.com/a", first.URI)
	assert.Equal(t, &search.Pages{First: "11", Last: "29"}, first.Pages)
	assert.True(t, first.OpenAccess)
	assert.Equal(t, []string{"OriginalPaper"}, []string(first.Genre))

	second := envelope.Records[1]
	assert.False(t, second.OpenAccess)
	assert.Equal(t, []string{"BriefCommunication"}, []string(second.Genre))

	require.NotNil(t, envelope.Facets)
	assert.Equal(t, map[string]int{"DE": 3, "JP": 1}, envelope.Facets.Countries)
	assert.Equal(t, []search.KeywordCount{{Text: "Blockchain", Value: 5}}, envelope.Facets.Keywords)
}

/*
TestSpringer_Normalize_OpenAccessCollection forces the flag inside the
openaccess collection regardless of the record payload.
*/
func TestSpringer_Normalize_OpenAccessCollection(t *testing.T) {
	springer := springerForTest()
	require.NoError(t, springer.SetResultFormat("json"))
	require.NoError(t, springer.SetCollection("openaccess"))

	payload := []byte(`{"result": [{"total": "1", "start": "1", "pageLength": "20", "recordsDisplayed": "1"}],
		"records": [{"title": "Open Paper"}]}`)

	envelope, err := springer.normalize(payload, nil, "")
	require.NoError(t, err)
	require.Len(t, envelope.Records, 1)
	assert.True(t, envelope.Records[0].OpenAccess)

	// No provider keyword facet: derive keywords from titles.
	require.NotNil(t, envelope.Facets)
	assert.Equal(t, []search.KeywordCount{
		{Text: "open", Value: 1},
		{Text: "paper", Value: 1},
	}, envelope.Facets.Keywords)
}
