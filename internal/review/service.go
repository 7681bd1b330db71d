// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review

import (
	"context"
	"log/slog"

	"github.com/slrhub/slrhub/internal/platform/apperr"
	"github.com/slrhub/slrhub/internal/platform/validate"
	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// # Review Lifecycle

// CreateReview creates a review owned by the given user. The result
// collection name is derived from the generated ID.
func (service *Service) CreateReview(context context.Context, owner, name, description string) (*Review, error) {
	validator := &validate.Validator{}
	validator.Required("name", name)
	validator.MaxLen("name", name, 200)
	validator.MaxLen("description", description, 2000)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	rev := &Review{
		ID:          uuidv7.New(),
		Name:        name,
		Description: description,
		Owner:       owner,
	}
	rev.ResultCollectionName = CollectionName(rev.ID)

	if err := service.repo.CreateReview(context, rev); err != nil {
		return nil, err
	}

	service.logger.Info("review_created",
		slog.String("review_id", rev.ID),
		slog.String("owner", owner),
	)
	return rev, nil
}

func (service *Service) GetReview(context context.Context, reviewID string) (*Review, error) {
	return service.repo.GetReviewByID(context, reviewID)
}

func (service *Service) ListReviews(context context.Context, owner string) ([]*Review, error) {
	return service.repo.ListReviews(context, owner)
}

func (service *Service) DeleteReview(context context.Context, reviewID string) error {
	if err := service.repo.DeleteReview(context, reviewID); err != nil {
		return err
	}

	service.logger.Info("review_deleted", slog.String("review_id", reviewID))
	return nil
}

// # Access Control

// CanAccess reports whether the user owns or collaborates on the review.
func (service *Service) CanAccess(context context.Context, reviewID, userID string) (bool, error) {
	rev, err := service.repo.GetReviewByID(context, reviewID)
	if err != nil {
		return false, err
	}

	if rev.Owner == userID {
		return true, nil
	}
	for _, collaborator := range rev.Collaborators {
		if collaborator == userID {
			return true, nil
		}
	}
	return false, nil
}

// # Query Sessions

// CreateQuerySession records a new orchestrator invocation for a review.
func (service *Service) CreateQuerySession(context context.Context, reviewID string, query *search.Query) (*QuerySession, error) {
	if query != nil {
		if err := query.Validate(); err != nil {
			return nil, apperr.ValidationError(err.Error())
		}
	}

	session := &QuerySession{
		ID:       uuidv7.New(),
		ReviewID: reviewID,
		Search:   query,
	}
	if err := service.repo.CreateQuerySession(context, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (service *Service) GetQuerySession(context context.Context, sessionID string) (*QuerySession, error) {
	return service.repo.GetQuerySession(context, sessionID)
}

// # Result Store Facade

func (service *Service) GetPersistedResults(context context.Context, reviewID, sessionID string, page, pageLength int) (*ResultPage, error) {
	return service.repo.GetPersistedResults(context, reviewID, sessionID, page, pageLength)
}

func (service *Service) GetResultsByDOIs(context context.Context, reviewID string, dois []string) ([]*search.Record, error) {
	return service.repo.GetResultsByDOIs(context, reviewID, dois)
}

func (service *Service) DeleteResultsByDOIs(context context.Context, reviewID string, dois []string) (int, error) {
	if len(dois) == 0 {
		return 0, apperr.ValidationError("No DOIs given",
			apperr.FieldError{Field: "dois", Message: "must not be empty"})
	}
	return service.repo.DeleteResultsByDOIs(context, reviewID, dois)
}

// UpdateScore upserts the evaluator's verdict on one result.
func (service *Service) UpdateScore(context context.Context, reviewID, doi string, evaluation Evaluation) (*search.Record, error) {
	if doi == "" {
		return nil, apperr.ValidationError("DOI is required",
			apperr.FieldError{Field: "doi", Message: "must not be empty"})
	}
	if evaluation.User == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return service.repo.UpdateScore(context, reviewID, doi, evaluation)
}
