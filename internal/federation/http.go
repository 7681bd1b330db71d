// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package federation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slrhub/slrhub/internal/platform/apperr"
	requestutil "github.com/slrhub/slrhub/internal/platform/request"
	"github.com/slrhub/slrhub/internal/platform/respond"
	"github.com/slrhub/slrhub/internal/review"
	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/convert"
)

type Handler struct {
	orchestrator *Orchestrator
	reviews      *review.Service
}

func NewHandler(orchestrator *Orchestrator, reviews *review.Service) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		reviews:      reviews,
	}
}

// RegisterReviewRoutes registers the persistence routes on the shared
// /reviews router.
func (handler *Handler) RegisterReviewRoutes(router chi.Router) {
	router.Post("/{id}/persist", handler.persistPages)
	router.Post("/{id}/persist/list", handler.persistList)
}

// parsePageLength reads the page_length query parameter; "max" (or an
// absent value) requests each wrapper's own ceiling.
func parsePageLength(request *http.Request) int {
	raw := request.URL.Query().Get("page_length")
	if raw == "" || raw == "max" {
		return PageLengthMax
	}
	return convert.ToInt(raw)
}

// # Dry Query

// DryQuery handles POST /dry_query?page&page_length&review_id.
//
// The body is the canonical query; the response is the ordered envelope
// list, with persisted markers when a review is named.
func (handler *Handler) DryQuery(writer http.ResponseWriter, request *http.Request) {
	var query search.Query
	if err := requestutil.DecodeJSON(request, &query); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := convert.ToIntD(request.URL.Query().Get("page"), 1)
	pageLength := parsePageLength(request)

	reviewID := request.URL.Query().Get("review_id")
	if reviewID != "" {
		if err := handler.requireReviewAccess(request, reviewID); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	envelopes, err := handler.orchestrator.DryQuery(request.Context(), &query, page, pageLength, reviewID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, envelopes)
}

// # Persistence

type persistPagesRequest struct {
	Pages      []int         `json:"pages"`
	PageLength int           `json:"page_length"`
	Search     *search.Query `json:"search"`
}

// persistPages handles POST /reviews/{id}/persist.
func (handler *Handler) persistPages(writer http.ResponseWriter, request *http.Request) {
	reviewID := requestutil.ID(request, "id")
	if err := handler.requireReviewAccess(request, reviewID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body persistPagesRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(body.Pages) == 0 || body.Search == nil {
		respond.Error(writer, request, apperr.ValidationError("pages and search are required"))
		return
	}

	report, err := handler.orchestrator.PersistPages(request.Context(), reviewID, body.Pages, body.PageLength, body.Search)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}

type persistListRequest struct {
	Results []*search.Record `json:"results"`
	Search  *search.Query    `json:"search"`
}

// persistList handles POST /reviews/{id}/persist/list.
func (handler *Handler) persistList(writer http.ResponseWriter, request *http.Request) {
	reviewID := requestutil.ID(request, "id")
	if err := handler.requireReviewAccess(request, reviewID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body persistListRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(body.Results) == 0 {
		respond.Error(writer, request, apperr.ValidationError("results are required"))
		return
	}

	report, err := handler.orchestrator.PersistList(request.Context(), reviewID, body.Results, body.Search)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}

// # Helpers

func (handler *Handler) requireReviewAccess(request *http.Request, reviewID string) error {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return err
	}

	allowed, err := handler.reviews.CanAccess(request.Context(), reviewID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.Forbidden("You do not have access to this review")
	}
	return nil
}
