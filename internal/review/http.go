// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slrhub/slrhub/internal/platform/apperr"
	requestutil "github.com/slrhub/slrhub/internal/platform/request"
	"github.com/slrhub/slrhub/internal/platform/respond"
	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/convert"
	"github.com/slrhub/slrhub/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the review routes. Persistence routes live in
// the federation handler and are registered on the same router by the
// composition root, which mounts the dry-query route outside it;
// everything here reads or mutates a single review's data.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/", handler.createReview)
	router.Get("/", handler.listReviews)
	router.Get("/{id}", handler.getReview)
	router.Delete("/{id}", handler.deleteReview)

	router.Post("/{id}/query", handler.createQuerySession)

	router.Get("/{id}/results", handler.getResults)
	router.Delete("/{id}/results", handler.deleteResults)
	router.Post("/{id}/results/score", handler.updateScore)
}

// # Review CRUD

type createReviewRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (handler *Handler) createReview(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body createReviewRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rev, err := handler.service.CreateReview(request.Context(), userID, body.Name, body.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, rev)
}

func (handler *Handler) listReviews(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reviews, err := handler.service.ListReviews(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Reviews per user stay small; paginate the loaded slice directly.
	params := pagination.FromRequest(request)
	meta := pagination.NewMeta(params.Page, params.Limit, len(reviews))

	low := params.Offset()
	if low > len(reviews) {
		low = len(reviews)
	}
	high := low + params.Limit
	if high > len(reviews) {
		high = len(reviews)
	}

	respond.Paginated(writer, reviews[low:high], meta)
}

func (handler *Handler) getReview(writer http.ResponseWriter, request *http.Request) {
	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rev)
}

func (handler *Handler) deleteReview(writer http.ResponseWriter, request *http.Request) {
	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteReview(request.Context(), rev.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Query Sessions

func (handler *Handler) createQuerySession(writer http.ResponseWriter, request *http.Request) {
	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var query search.Query
	if err := requestutil.DecodeJSON(request, &query); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.CreateQuerySession(request.Context(), rev.ID, &query)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, session)
}

// # Results

func (handler *Handler) getResults(writer http.ResponseWriter, request *http.Request) {
	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := convert.ToInt(request.URL.Query().Get("page"))
	pageLength := convert.ToInt(request.URL.Query().Get("page_length"))
	sessionID := request.URL.Query().Get("query_id")

	results, err := handler.service.GetPersistedResults(request.Context(), rev.ID, sessionID, page, pageLength)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, results)
}

type deleteResultsRequest struct {
	DOIs []string `json:"dois"`
}

func (handler *Handler) deleteResults(writer http.ResponseWriter, request *http.Request) {
	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body deleteResultsRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	deleted, err := handler.service.DeleteResultsByDOIs(request.Context(), rev.ID, body.DOIs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int{"deleted": deleted})
}

type updateScoreRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// updateScore handles POST /{id}/results/score?doi=... — the evaluator
// identity comes from the verified token, never from the payload.
func (handler *Handler) updateScore(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rev, err := handler.requireAccess(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body updateScoreRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	doi := request.URL.Query().Get("doi")
	record, err := handler.service.UpdateScore(request.Context(), rev.ID, doi, Evaluation{
		User:    userID,
		Score:   body.Score,
		Comment: body.Comment,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, record)
}

// # Helpers

// requireAccess loads the review from the URL and checks that the caller
// owns or collaborates on it.
func (handler *Handler) requireAccess(request *http.Request) (*Review, error) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return nil, err
	}

	reviewID := requestutil.ID(request, "id")
	rev, err := handler.service.GetReview(request.Context(), reviewID)
	if err != nil {
		return nil, err
	}

	if rev.Owner != userID {
		allowed := false
		for _, collaborator := range rev.Collaborators {
			if collaborator == userID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, apperr.Forbidden("You do not have access to this review")
		}
	}

	return rev, nil
}
