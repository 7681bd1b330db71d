// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package review implements the systematic-review domain: the Review
container, its query sessions, and the result store that persists
normalized literature records keyed by DOI.

Architecture:

  - Review: user-owned container for queries and their persisted results.
  - QuerySession: one timestamped orchestrator invocation against a Review,
    owning the list of DOIs it produced.
  - Result store: (review, doi)-keyed upserts, pagination, per-user scoring,
    and DOI bulk deletes.

A Review's DOI set is the union over the DOI lists of its query sessions;
the result rows mirror that set.
*/
package review

import (
	"time"

	"github.com/slrhub/slrhub/internal/search"
)

// # Domain Model

// Review is a user-owned container for literature queries and the results
// persisted from them.
type Review struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Owner         string   `json:"owner"`
	Collaborators []string `json:"collaborators,omitempty"`

	// ResultCollectionName is derived deterministically from the review
	// ID (see [CollectionName]) and unique across reviews.
	ResultCollectionName string `json:"result_collection_name"`

	CreatedAt time.Time `json:"created_at"`

	// Queries holds the review's query sessions when loaded.
	Queries []QuerySession `json:"queries,omitempty"`
}

// CollectionName derives the isolated result collection name of a review.
func CollectionName(reviewID string) string {
	return "results-" + reviewID
}

// QuerySession is one persisted orchestrator invocation against a review.
type QuerySession struct {
	ID        string        `json:"id"`
	ReviewID  string        `json:"review_id"`
	CreatedAt time.Time     `json:"time"`
	Search    *search.Query `json:"search,omitempty"`

	// Results lists the DOIs this session persisted, in save order.
	Results []string `json:"results,omitempty"`
}

// Evaluation is a single reviewer's verdict on a result. The store keeps
// exactly one evaluation per (result, user).
type Evaluation struct {
	User    string `json:"user"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// # Store Results

// ResultPage is a paginated slice of a review's persisted records.
type ResultPage struct {
	Results      []*search.Record `json:"results"`
	TotalResults int              `json:"total_results"`
}

// SaveReport summarizes one save operation. Records without a DOI cannot
// be keyed and are skipped, not failed.
type SaveReport struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}
