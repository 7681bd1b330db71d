// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"net/url"
	"strings"

	"github.com/slrhub/slrhub/internal/search"
)

// # Query Rendering
//
// Two rendering styles exist across the providers:
//
//   - GET expressions: terms are percent-encoded, phrases double-quoted
//     once, connectors padded with "+" (Springer, Scopus).
//   - Body expressions: terms stay verbatim, connectors padded with spaces
//     (ScienceDirect "qs" strings).

// encodeTerm percent-encodes a term for a GET expression, quoting phrases
// (terms containing whitespace) once before encoding.
func encodeTerm(term string) string {
	if strings.ContainsAny(term, " \t") {
		term = `"` + term + `"`
	}
	return url.QueryEscape(term)
}

// renderGroupGET renders one search group for a GET expression.
//
// Terms are joined by the group connector padded with "+". A NOT group is
// rendered with OR between its terms and handed to the caller for
// negation, since the negation token differs per provider.
func renderGroupGET(group search.Group, termPrefix string) string {
	match := group.Match
	if match == search.MatchNOT {
		match = search.MatchOR
	}

	terms := make([]string, 0, len(group.SearchTerms))
	for _, term := range group.SearchTerms {
		terms = append(terms, termPrefix+encodeTerm(term))
	}

	return "(" + strings.Join(terms, "+"+string(match)+"+") + ")"
}

// renderGroupBody renders one search group for a PUT body expression,
// using space-padded connectors and no encoding. NOT groups render as
// `NOT (a OR b)`.
func renderGroupBody(group search.Group) string {
	match := group.Match
	negated := false
	if match == search.MatchNOT {
		match = search.MatchOR
		negated = true
	}

	rendered := "(" + strings.Join(group.SearchTerms, " "+string(match)+" ") + ")"
	if negated {
		rendered = "NOT " + rendered
	}
	return rendered
}

// renderBodyExpression renders the full canonical query as a nested
// parenthesized expression for PUT-style providers:
//
//	((bitcoin AND blockchain) AND NOT (ethereum))
func renderBodyExpression(query *search.Query) string {
	groups := make([]string, 0, len(query.SearchGroups))
	for _, group := range query.SearchGroups {
		groups = append(groups, renderGroupBody(group))
	}
	return "(" + strings.Join(groups, " "+string(query.Match)+" ") + ")"
}

// # Field Resolution

// translateFields resolves the canonical fields of a query against a
// wrapper's translate map. An empty field list falls back to the given
// default canonical field (typically "all").
func translateFields(query *search.Query, translate map[search.Field]string, fallback search.Field) ([]string, error) {
	fields := query.Fields
	if len(fields) == 0 {
		fields = []search.Field{fallback}
	}

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token, ok := translate[field]
		if !ok {
			return nil, BadQuery("Searching against field %s is not supported.", field)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// validateTranslatable runs the canonical validation and converts
// violations into the BadQuery taxonomy.
func validateTranslatable(query *search.Query) error {
	if query == nil {
		return BadQuery("no query given")
	}
	if err := query.Validate(); err != nil {
		return BadQuery("%v", err)
	}
	return nil
}
