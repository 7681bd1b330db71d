// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"context"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slrhub/slrhub/internal/search"
)

func elsevierForTest() *Elsevier {
	return NewElsevier("test-key", NewExecutor(0, nil))
}

/*
TestElsevier_TranslateQuery_Scopus covers the GET expression rendering for
the Scopus collection, including the literal AND-NOT shape.
*/
func TestElsevier_TranslateQuery_Scopus(t *testing.T) {
	tests := []struct {
		name     string
		query    search.Query
		expected string
	}{
		{
			name: "and_not",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"energy"}, Match: search.MatchOR},
					{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldAll},
			},
			expected: "&query=ALL((energy))+AND+NOT+ALL((nuclear))",
		},
		{
			name: "title_and_abstract_fields",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"graphene"}, Match: search.MatchAND},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldTitle, search.FieldAbstract},
			},
			expected: "&query=TITLE((graphene))+OR+ABS((graphene))",
		},
		{
			name: "phrase_quoted",
			query: search.Query{
				SearchGroups: []search.Group{
					{SearchTerms: []string{"machine learning", "robotics"}, Match: search.MatchOR},
				},
				Match:  search.MatchAND,
				Fields: []search.Field{search.FieldKeywords},
			},
			expected: "&query=KEY((%22machine+learning%22+OR+robotics))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elsevier := elsevierForTest()

			request, err := elsevier.TranslateQuery(&tt.query)
			require.NoError(t, err)

			assert.Equal(t, "GET", request.Method)
			assert.True(t, strings.HasSuffix(request.URL, tt.expected),
				"URL %q should end with %q", request.URL, tt.expected)
			assert.Contains(t, request.URL, "https://api.elsevier.com/content/search/scopus?start=0&count=25")
			assert.Equal(t, []string{"test-key"}, request.Headers["X-ELS-APIKey"])
			assert.Equal(t, []string{"application/json"}, request.Headers["Accept"])
		})
	}
}

/*
TestElsevier_TranslateQuery_ScienceDirect covers the PUT body rendering:
nested parenthesized groups plus the display window.
*/
func TestElsevier_TranslateQuery_ScienceDirect(t *testing.T) {
	elsevier := elsevierForTest()
	require.NoError(t, elsevier.SetCollection("search/sciencedirect"))

	// Page 2 with 25 records per page: 1-based index 26, 0-based offset 25.
	elsevier.StartAt(26)
	elsevier.SetShowNum(25)

	request, err := elsevier.TranslateQuery(&search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAND},
			{SearchTerms: []string{"ethereum"}, Match: search.MatchNOT},
		},
		Match:  search.MatchAND,
		Fields: []search.Field{search.FieldAll},
	})
	require.NoError(t, err)

	assert.Equal(t, "PUT", request.Method)
	assert.Equal(t, "https://api.elsevier.com/content/search/sciencedirect", request.URL)

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(request.Body, &body))

	expression := "((bitcoin AND blockchain) AND NOT (ethereum))"
	assert.Equal(t, expression, body["qs"])
	assert.NotContains(t, body, "title")

	display, ok := body["display"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 25, display["offset"])
	assert.EqualValues(t, 25, display["show"])
}

/*
TestElsevier_CallAPI_Failures covers the failure paths that must surface as
invalid envelopes instead of errors.
*/
func TestElsevier_CallAPI_Failures(t *testing.T) {
	// OR-NOT is rejected at translation time and surfaces as a request error.
	elsevier := elsevierForTest()
	envelope := elsevier.CallAPI(context.Background(), &search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"energy"}, Match: search.MatchOR},
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
		},
		Match: search.MatchOR,
	})
	assert.True(t, envelope.IsInvalid())
	assert.True(t, strings.HasPrefix(envelope.Error, "Request error:"), envelope.Error)

	// The metadata collection is recognized but unimplemented.
	elsevier = elsevierForTest()
	require.NoError(t, elsevier.SetCollection("metadata/article"))
	envelope = elsevier.CallAPI(context.Background(), nil)
	assert.True(t, envelope.IsInvalid())
	assert.Equal(t, "Unimplemented collection metadata/article", envelope.Error)
	assert.Equal(t, 0, envelope.Result.RecordsDisplayed)
	assert.Empty(t, envelope.Records)
}

/*
TestElsevier_Configuration exercises format coercion and pagination clamps.
*/
func TestElsevier_Configuration(t *testing.T) {
	elsevier := elsevierForTest()

	// Bare subtypes are coerced to their MIME form.
	require.NoError(t, elsevier.SetResultFormat("json"))
	assert.Equal(t, "application/json", elsevier.ResultFormat())

	require.NoError(t, elsevier.SetResultFormat("xml"))
	assert.Equal(t, "application/xml", elsevier.ResultFormat())

	// ScienceDirect only accepts JSON, so switching coerces back.
	require.NoError(t, elsevier.SetCollection("search/sciencedirect"))
	assert.Equal(t, "application/json", elsevier.ResultFormat())
	assert.Equal(t, 100, elsevier.MaxRecords())

	// Scopus caps at 25 and clamps the page size down.
	elsevier.SetShowNum(80)
	require.NoError(t, elsevier.SetCollection("search/scopus"))
	assert.Equal(t, 25, elsevier.MaxRecords())
	assert.Equal(t, 25, elsevier.ShowNum())

	require.Error(t, elsevier.SetCollection("search/unknown"))
}

/*
TestElsevier_NormalizeScopus maps a representative Scopus payload onto the
canonical envelope, including the country facet.
*/
func TestElsevier_NormalizeScopus(t *testing.T) {
	payload := []byte(`{
		"search-results": {
			"opensearch:totalResults": "1874",
			"opensearch:Query": {"@searchTerms": "ALL((energy))"},
			"entry": [
				{
					"dc:title": "Nuclear Energy Policy",
					"dc:creator": "Doe J.",
					"prism:publicationName": "Energy Policy",
					"prism:issn": "0301-4215",
					"prism:volume": "134",
					"prism:pageRange": "117-128",
					"prism:coverDate": "2019-11-01",
					"prism:doi": "10.1016/j.enpol.2019.110981",
					"prism:aggregationType": "Journal",
					"subtypeDescription": "Article",
					"openaccess": "1",
					"link": [
						{"@ref": "self", "@href": "https://api.elsevier.com/x"},
						{"@ref": "scopus", "@href": "https://www.scopus.com/record/1"}
					],
					"affiliation": [{"affiliation-country": "Germany"}]
				},
				{
					"dc:title": "Wind Power Economics",
					"prism:pageRange": "201",
					"openaccess": "0",
					"affiliation": [{"affiliation-country": "France"}]
				}
			]
		}
	}`)

	elsevier := elsevierForTest()
	envelope, err := elsevier.normalizeScopus(payload, &search.Query{Match: search.MatchAND}, "sent-query")
	require.NoError(t, err)

	assert.Equal(t, 1874, envelope.Result.Total)
	assert.Equal(t, 2, envelope.Result.RecordsDisplayed)
	assert.Equal(t, "ALL((energy))", envelope.DBQuery)

	require.Len(t, envelope.Records, 2)
	first := envelope.Records[0]
	assert.Equal(t, "Article", first.ContentType)
	assert.Equal(t, []string{"Doe J."}, first.Authors)
	assert.Equal(t, "Elsevier", first.Publisher)
	assert.Equal(t, "Journal", first.PublicationType)
	assert.Equal(t, &search.Pages{First: "117", Last: "128"}, first.Pages)
	assert.Equal(t, "https://www.scopus.com/record/1", first.URI)
	assert.True(t, first.OpenAccess)

	second := envelope.Records[1]
	assert.Equal(t, &search.Pages{First: "201"}, second.Pages)
	assert.False(t, second.OpenAccess)

	require.NotNil(t, envelope.Facets)
	assert.Equal(t, map[string]int{"DE": 1, "FR": 1}, envelope.Facets.Countries)
	assert.NotEmpty(t, envelope.Facets.Keywords)
}

/*
TestElsevier_NormalizeScopus_EmptyResult handles Elsevier's convention of
reporting an empty result set as a single error entry.
*/
func TestElsevier_NormalizeScopus_EmptyResult(t *testing.T) {
	payload := []byte(`{
		"search-results": {
			"opensearch:totalResults": "0",
			"entry": [{"error": "Result set was empty"}]
		}
	}`)

	elsevier := elsevierForTest()
	envelope, err := elsevier.normalizeScopus(payload, nil, "sent-query")
	require.NoError(t, err)

	assert.Equal(t, 0, envelope.Result.Total)
	assert.Equal(t, 0, envelope.Result.RecordsDisplayed)
	assert.Empty(t, envelope.Records)
}

/*
TestElsevier_NormalizeScienceDirect maps the PUT search response.
*/
func TestElsevier_NormalizeScienceDirect(t *testing.T) {
	payload := []byte(`{
		"resultsFound": 320,
		"results": [
			{
				"authors": [{"name": "Jane Doe"}, {"name": "Richard Roe"}],
				"doi": "10.1016/b",
				"openAccess": false,
				"publicationDate": "2020-02-01",
				"sourceTitle": "Journal of Banking",
				"title": "Bitcoin Settlement",
				"uri": "https://www.sciencedirect.com/b",
				"pages": {"first": "55", "last": "71"}
			}
		]
	}`)

	elsevier := elsevierForTest()
	require.NoError(t, elsevier.SetCollection("search/sciencedirect"))
	elsevier.StartAt(1)
	elsevier.SetShowNum(100)

	envelope, err := elsevier.normalizeScienceDirect(payload, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 320, envelope.Result.Total)
	assert.Equal(t, 1, envelope.Result.Start)
	assert.Equal(t, 1, envelope.Result.RecordsDisplayed)

	require.Len(t, envelope.Records, 1)
	record := envelope.Records[0]
	assert.Equal(t, []string{"Jane Doe", "Richard Roe"}, record.Authors)
	assert.Equal(t, "Journal of Banking", record.PublicationName)
	assert.Equal(t, "ScienceDirect", record.Publisher)
	assert.Equal(t, &search.Pages{First: "55", Last: "71"}, record.Pages)
}

/*
TestSplitPageRange covers the page range halves contract.
*/
func TestSplitPageRange(t *testing.T) {
	assert.Equal(t, &search.Pages{First: "117", Last: "128"}, splitPageRange("117-128"))
	assert.Equal(t, &search.Pages{First: "201"}, splitPageRange("201"))
}
