// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review

import (
	"context"

	"github.com/slrhub/slrhub/internal/search"
)

// Repository is the persistence contract of the review domain.
//
// All result operations are scoped to one review's collection; a DOI is
// unique within that scope and acts as the record's primary key.
type Repository interface {
	// # Review lifecycle

	CreateReview(ctx context.Context, rev *Review) error
	GetReviewByID(ctx context.Context, reviewID string) (*Review, error)
	ListReviews(ctx context.Context, owner string) ([]*Review, error)
	// DeleteReview removes the review, its sessions and its results.
	DeleteReview(ctx context.Context, reviewID string) error

	// # Query sessions

	CreateQuerySession(ctx context.Context, session *QuerySession) error
	GetQuerySession(ctx context.Context, sessionID string) (*QuerySession, error)

	// # Result store

	// SaveResults upserts records by DOI into the review's collection,
	// marks them persisted and appends their DOIs to the session.
	// Records without a DOI are counted as skipped.
	SaveResults(ctx context.Context, records []*search.Record, reviewID, sessionID string) (SaveReport, error)

	// PersistedDOIs returns the union of DOIs over the review's sessions.
	PersistedDOIs(ctx context.Context, reviewID string) (map[string]struct{}, error)

	// GetPersistedResults pages through a review's records; a non-empty
	// sessionID narrows the scope to that session's DOIs. page < 1
	// returns everything.
	GetPersistedResults(ctx context.Context, reviewID, sessionID string, page, pageLength int) (*ResultPage, error)

	GetResultByDOI(ctx context.Context, reviewID, doi string) (*search.Record, error)
	GetResultsByDOIs(ctx context.Context, reviewID string, dois []string) ([]*search.Record, error)
	DeleteResultsByDOIs(ctx context.Context, reviewID string, dois []string) (int, error)
	DeleteResultsForReview(ctx context.Context, reviewID string) error

	// UpdateScore upserts the evaluator's score on a result: an existing
	// entry for the same user is removed and the new evaluation is
	// appended at the end, so a re-scored entry does not keep its former
	// position in the list. At most one score per (result, user).
	UpdateScore(ctx context.Context, reviewID, doi string, evaluation Evaluation) (*search.Record, error)
}
