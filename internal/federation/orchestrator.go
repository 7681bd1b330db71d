// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package federation implements the federated query orchestrator: it splits a
page budget across the active provider wrappers, fans the canonical query
out in parallel, merges cross-provider facets, tags already-persisted
records and drives page-by-page ingestion into a review's result store.

Architecture:

  - ConductQuery: one federated page, ordered by registry order.
  - MarkPersisted: annotates records against a review's DOI set.
  - PersistentQuery: pages until a target record count is reached.
  - PersistPages: persists an explicit page range under a new session.

Partial success is the norm: a failing provider contributes an invalid
envelope in its slot while the others proceed. Only cancellation aborts
the whole federated call.
*/
package federation

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/slrhub/slrhub/internal/review"
	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/internal/wrapper"
	"github.com/slrhub/slrhub/pkg/pointer"
	"github.com/slrhub/slrhub/pkg/slice"
	"github.com/slrhub/slrhub/pkg/uuidv7"
)

// PageLengthMax requests each wrapper's own maximum page size instead of a
// shared budget.
const PageLengthMax = 0

// WrapperSource yields fresh wrapper instances for one federated call.
// The registry implements it; tests substitute fakes.
type WrapperSource interface {
	Active() []wrapper.Wrapper
}

// Orchestrator coordinates federated queries across the wrapper registry
// and the review result store.
type Orchestrator struct {
	registry WrapperSource
	store    review.Repository
	cache    *Cache
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator. The cache is optional.
func NewOrchestrator(registry WrapperSource, store review.Repository, cache *Cache, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		store:    store,
		cache:    cache,
		logger:   logger,
	}
}

// # Federated Querying

// ConductQuery runs one federated page across all active wrappers.
//
// pageLength is the combined budget for the page: every wrapper receives
// floor(pageLength / N) records. The truncation remainder is deliberately
// not redistributed. [PageLengthMax] gives each wrapper its own ceiling
// instead. The returned list preserves registry order regardless of
// response arrival, with the combined facets attached to the first
// envelope and zeroed facet blocks on the rest so clients never
// double-count.
//
// Cancelling the context aborts every in-flight provider call; in that
// case no partial results are returned.
func (o *Orchestrator) ConductQuery(ctx context.Context, query *search.Query, page, pageLength int) ([]*search.Envelope, error) {
	wrappers := o.registry.Active()
	if len(wrappers) == 0 {
		o.logger.Warn("federated_query_no_active_wrappers")
		return []*search.Envelope{}, nil
	}

	envelopes := make([]*search.Envelope, len(wrappers))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, w := range wrappers {
		group.Go(func() error {
			perLength := pageLength / len(wrappers)
			if pageLength <= PageLengthMax {
				perLength = w.MaxRecords()
			}

			// Each wrapper instance is fresh from the registry, so the
			// pagination mutation below is confined to this call.
			w.StartAt(wrapper.CalcStartAt(page, perLength))
			w.SetShowNum(perLength)

			envelopes[i] = w.CallAPI(groupCtx, query)
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		// Cancellation discards partial results.
		return nil, err
	}

	combineFacets(envelopes)
	return envelopes, nil
}

// combineFacets merges all envelope facets onto the first envelope and
// zeroes the remaining blocks.
func combineFacets(envelopes []*search.Envelope) {
	if len(envelopes) == 0 {
		return
	}

	blocks := slice.Map(envelopes, func(envelope *search.Envelope) *search.Facets {
		return envelope.Facets
	})

	envelopes[0].Facets = search.MergeFacets(blocks...)
	for _, envelope := range envelopes[1:] {
		envelope.Facets = search.Empty()
	}
}

// # Persisted Marking

// MarkPersisted annotates every record of every envelope with whether its
// DOI is already part of the review's persisted set. The set is read once;
// records without a DOI are marked false.
func (o *Orchestrator) MarkPersisted(ctx context.Context, envelopes []*search.Envelope, reviewID string) error {
	persisted, err := o.store.PersistedDOIs(ctx, reviewID)
	if err != nil {
		return err
	}

	for _, envelope := range envelopes {
		for _, record := range envelope.Records {
			_, found := persisted[record.DOI]
			record.Persisted = pointer.To(record.DOI != "" && found)
		}
	}
	return nil
}

// # Dry Queries

// DryQuery runs a federated page without persisting anything.
//
// Responses are served from the envelope cache when available. A non-empty
// reviewID additionally tags each record's persisted flag against that
// review.
func (o *Orchestrator) DryQuery(ctx context.Context, query *search.Query, page, pageLength int, reviewID string) ([]*search.Envelope, error) {
	envelopes, cached := o.cachedEnvelopes(ctx, query, page, pageLength)
	if !cached {
		var err error
		envelopes, err = o.ConductQuery(ctx, query, page, pageLength)
		if err != nil {
			return nil, err
		}
		o.storeEnvelopes(ctx, query, page, pageLength, envelopes)
	}

	if reviewID != "" {
		if err := o.MarkPersisted(ctx, envelopes, reviewID); err != nil {
			return nil, err
		}
	}
	return envelopes, nil
}

func (o *Orchestrator) cachedEnvelopes(ctx context.Context, query *search.Query, page, pageLength int) ([]*search.Envelope, bool) {
	if o.cache == nil {
		return nil, false
	}

	envelopes, found, err := o.cache.Get(ctx, query, page, pageLength)
	if err != nil {
		o.logger.Warn("envelope_cache_read_failed", slog.Any("error", err))
		return nil, false
	}
	return envelopes, found
}

func (o *Orchestrator) storeEnvelopes(ctx context.Context, query *search.Query, page, pageLength int, envelopes []*search.Envelope) {
	if o.cache == nil || len(envelopes) == 0 {
		return
	}

	if err := o.cache.Set(ctx, query, page, pageLength, envelopes); err != nil {
		o.logger.Warn("envelope_cache_write_failed", slog.Any("error", err))
	}
}

// # Persistent Ingestion

// PersistReport summarizes a persistence run.
type PersistReport struct {
	Success      bool   `json:"success"`
	NumPersisted int    `json:"num_persisted"`
	NumSkipped   int    `json:"num_skipped"`
	QueryID      string `json:"query_id"`
}

// PersistentQuery pages through the federated providers until at least
// maxRecords records have been ingested into the review under the given
// session. A whole final page may overshoot the target.
//
// The run aborts when no wrapper is active or a full pass displays zero
// records, so an exhausted result set cannot loop forever.
func (o *Orchestrator) PersistentQuery(ctx context.Context, session *review.QuerySession, reviewID string, maxRecords int) (PersistReport, error) {
	report := PersistReport{QueryID: session.ID}

	page := 1
	count := 0
	for count < maxRecords {
		envelopes, err := o.ConductQuery(ctx, session.Search, page, PageLengthMax)
		if err != nil {
			return report, err
		}
		if len(envelopes) == 0 {
			break
		}

		displayed := 0
		for _, envelope := range envelopes {
			saved, err := o.store.SaveResults(ctx, envelope.Records, reviewID, session.ID)
			if err != nil {
				return report, err
			}
			report.NumPersisted += saved.Saved
			report.NumSkipped += saved.Skipped
			displayed += envelope.Result.RecordsDisplayed
		}
		if displayed == 0 {
			break
		}

		count += displayed
		page++
	}

	report.Success = true
	return report, nil
}

// PersistPages persists an explicit page range of a federated query under
// a freshly created query session.
func (o *Orchestrator) PersistPages(ctx context.Context, reviewID string, pages []int, pageLength int, query *search.Query) (PersistReport, error) {
	session := &review.QuerySession{
		ID:       uuidv7.New(),
		ReviewID: reviewID,
		Search:   query,
	}
	if err := o.store.CreateQuerySession(ctx, session); err != nil {
		return PersistReport{}, err
	}

	report := PersistReport{QueryID: session.ID}

	for _, page := range pages {
		envelopes, err := o.ConductQuery(ctx, query, page, pageLength)
		if err != nil {
			return report, err
		}

		for _, envelope := range envelopes {
			saved, err := o.store.SaveResults(ctx, envelope.Records, reviewID, session.ID)
			if err != nil {
				return report, err
			}
			report.NumPersisted += saved.Saved
			report.NumSkipped += saved.Skipped
		}
	}

	report.Success = true
	return report, nil
}

// PersistList persists an explicit record list under a new query session,
// bypassing the providers entirely.
func (o *Orchestrator) PersistList(ctx context.Context, reviewID string, records []*search.Record, query *search.Query) (PersistReport, error) {
	session := &review.QuerySession{
		ID:       uuidv7.New(),
		ReviewID: reviewID,
		Search:   query,
	}
	if err := o.store.CreateQuerySession(ctx, session); err != nil {
		return PersistReport{}, err
	}

	saved, err := o.store.SaveResults(ctx, records, reviewID, session.ID)
	if err != nil {
		return PersistReport{QueryID: session.ID}, err
	}

	return PersistReport{
		Success:      true,
		NumPersisted: saved.Saved,
		NumSkipped:   saved.Skipped,
		QueryID:      session.ID,
	}, nil
}
