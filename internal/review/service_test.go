// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slrhub/slrhub/internal/review"
	"github.com/slrhub/slrhub/internal/search"
)

// fakeRepo is an in-memory Repository for service-level tests.
type fakeRepo struct {
	review.Repository

	reviews  map[string]*review.Review
	sessions map[string]*review.QuerySession
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reviews:  map[string]*review.Review{},
		sessions: map[string]*review.QuerySession{},
	}
}

func (r *fakeRepo) CreateReview(_ context.Context, rev *review.Review) error {
	r.reviews[rev.ID] = rev
	return nil
}

func (r *fakeRepo) GetReviewByID(_ context.Context, reviewID string) (*review.Review, error) {
	return r.reviews[reviewID], nil
}

func (r *fakeRepo) CreateQuerySession(_ context.Context, session *review.QuerySession) error {
	r.sessions[session.ID] = session
	return nil
}

/*
TestService_CreateReview derives the collection name deterministically from
the generated review ID.
*/
func TestService_CreateReview(t *testing.T) {
	repo := newFakeRepo()
	service := review.NewService(repo, nil)

	rev, err := service.CreateReview(context.Background(), "user-1", "Blockchain SLR", "scoping study")
	require.NoError(t, err)

	assert.NotEmpty(t, rev.ID)
	assert.Equal(t, "results-"+rev.ID, rev.ResultCollectionName)
	assert.Equal(t, "user-1", rev.Owner)
	assert.Contains(t, repo.reviews, rev.ID)

	// Name is mandatory.
	_, err = service.CreateReview(context.Background(), "user-1", "   ", "")
	assert.Error(t, err)
}

/*
TestService_CanAccess grants access to owners and collaborators only.
*/
func TestService_CanAccess(t *testing.T) {
	repo := newFakeRepo()
	repo.reviews["r1"] = &review.Review{
		ID:            "r1",
		Owner:         "owner-1",
		Collaborators: []string{"collab-1"},
	}
	service := review.NewService(repo, nil)

	tests := []struct {
		name    string
		userID  string
		allowed bool
	}{
		{"owner", "owner-1", true},
		{"collaborator", "collab-1", true},
		{"stranger", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := service.CanAccess(context.Background(), "r1", tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

/*
TestService_CreateQuerySession validates the canonical query before
persisting the session.
*/
func TestService_CreateQuerySession(t *testing.T) {
	repo := newFakeRepo()
	service := review.NewService(repo, nil)

	valid := &search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin"}, Match: search.MatchOR},
		},
		Match: search.MatchAND,
	}

	session, err := service.CreateQuerySession(context.Background(), "r1", valid)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "r1", session.ReviewID)
	assert.Contains(t, repo.sessions, session.ID)

	// OR-NOT is structurally invalid and rejected before any storage.
	invalid := &search.Query{
		SearchGroups: []search.Group{
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNOT},
		},
		Match: search.MatchOR,
	}
	_, err = service.CreateQuerySession(context.Background(), "r1", invalid)
	assert.Error(t, err)
	assert.Len(t, repo.sessions, 1, "invalid sessions must not be stored")
}

/*
TestService_UpdateScore_Validation rejects incomplete evaluations.
*/
func TestService_UpdateScore_Validation(t *testing.T) {
	service := review.NewService(newFakeRepo(), nil)

	_, err := service.UpdateScore(context.Background(), "r1", "", review.Evaluation{User: "u1", Score: 3})
	assert.Error(t, err)

	_, err = service.UpdateScore(context.Background(), "r1", "10.1000/x", review.Evaluation{Score: 3})
	assert.Error(t, err)
}

/*
TestCollectionName pins the deterministic naming scheme.
*/
func TestCollectionName(t *testing.T) {
	assert.Equal(t, "results-abc", review.CollectionName("abc"))
	assert.True(t, strings.HasPrefix(review.CollectionName("id"), "results-"))
}
