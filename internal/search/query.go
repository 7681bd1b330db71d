// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package search defines the canonical query and result model shared by every
literature provider wrapper.

The front-end speaks exactly one query language: an ordered list of boolean
search groups combined by a top-level connector. Each wrapper translates this
canonical form into its provider's native syntax, and translates the
provider's response back into the canonical [Envelope].

Architecture:

  - Query: structured boolean input (groups, match, fields).
  - Record / Envelope: normalized output shape, identical across providers.
  - Facets: aggregated counters (countries, keywords) that merge across providers.

Nothing in this package performs I/O; it is a pure data model.
*/
package search

import (
	"fmt"
	"strings"
)

// # Connectors

// Match is a boolean connector between search terms or search groups.
type Match string

const (
	MatchAND Match = "AND"
	MatchOR  Match = "OR"

	// MatchNOT is only legal on a group, and only when the top-level
	// connector is AND (AND-NOT is the single expressible negation).
	MatchNOT Match = "NOT"
)

// # Search Fields

// Field names a canonical search field. Wrappers translate these into
// provider-specific field tokens.
type Field string

const (
	FieldAll      Field = "all"
	FieldTitle    Field = "title"
	FieldAbstract Field = "abstract"
	FieldKeywords Field = "keywords"
)

// # Canonical Query

// Group is an ordered list of search terms combined by a single connector.
//
// Terms that contain whitespace are treated as phrases and quoted once by
// the GET-style translators.
type Group struct {
	SearchTerms []string `json:"search_terms"`
	Match       Match    `json:"match"`
}

// Query is the canonical structured boolean query accepted by every wrapper.
type Query struct {
	SearchGroups []Group `json:"search_groups"`
	Match        Match   `json:"match"`
	Fields       []Field `json:"fields,omitempty"`
}

// # Validation

// Validate checks the structural invariants of the canonical query form.
//
// Invariants enforced:
//   - at least one search group, each with at least one non-empty term
//   - group connectors are AND, OR or NOT; the top-level connector is AND or OR
//   - a NOT group requires the top-level connector to be AND
//   - "all" cannot be combined with other fields
func (q *Query) Validate() error {
	if q == nil {
		return fmt.Errorf("query is nil")
	}

	if len(q.SearchGroups) == 0 {
		return fmt.Errorf("no search groups specified")
	}

	if q.Match != MatchAND && q.Match != MatchOR {
		return fmt.Errorf("illegal top-level match %q", q.Match)
	}

	for i, group := range q.SearchGroups {
		if len(group.SearchTerms) == 0 {
			return fmt.Errorf("search group %d has no search terms", i)
		}

		for _, term := range group.SearchTerms {
			if strings.TrimSpace(term) == "" {
				return fmt.Errorf("search group %d contains an empty term", i)
			}
		}

		switch group.Match {
		case MatchAND, MatchOR:
		case MatchNOT:
			// Only AND-NOT is expressible.
			if q.Match != MatchAND {
				return fmt.Errorf("NOT groups require the top-level match to be AND")
			}
		default:
			return fmt.Errorf("illegal group match %q", group.Match)
		}
	}

	return q.validateFields()
}

func (q *Query) validateFields() error {
	for _, field := range q.Fields {
		switch field {
		case FieldAll, FieldTitle, FieldAbstract, FieldKeywords:
		default:
			return fmt.Errorf("unknown search field %q", field)
		}

		if field == FieldAll && len(q.Fields) > 1 {
			return fmt.Errorf(`field "all" cannot be combined with other fields`)
		}
	}
	return nil
}

// HasNotGroup reports whether any search group is negated.
func (q *Query) HasNotGroup() bool {
	for _, group := range q.SearchGroups {
		if group.Match == MatchNOT {
			return true
		}
	}
	return false
}
