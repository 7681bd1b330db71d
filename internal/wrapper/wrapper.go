// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package wrapper implements the provider wrapper framework: the capability
interface every bibliographic database adapter satisfies, the shared HTTP
executor with its retry policy, and the registry that binds wrappers to API
credentials.

Architecture:

  - Wrapper: capability contract (configuration, pagination, translation, execution).
  - Request: immutable request spec built per call by the translators.
  - Executor: uniform HTTP execution with the retry/error taxonomy.
  - Registry: instantiates exactly the wrappers whose API key is available.

Wrapper instances are NOT goroutine-safe: StartAt and SetShowNum mutate
per-call state. The registry therefore hands out fresh instances for every
federated call instead of sharing a cached set.
*/
package wrapper

import (
	"context"
	"net/http"

	"github.com/slrhub/slrhub/internal/search"
)

// # Request Spec

// Request is the immutable description of one provider API call, produced
// by a translator and consumed by the executor.
type Request struct {
	Method  string
	URL     string
	Headers http.Header

	// Body is the JSON-encoded request body, nil for GET-style providers.
	Body []byte

	// DBQuery is the provider-native query echoed into the envelope: the
	// encoded expression for GET providers, the decoded body for PUT.
	DBQuery any
}

// # Capability Contract

// Wrapper is the interface every provider adapter implements.
//
// Configuration setters validate eagerly: SetResultFormat fails when the
// format is illegal for the current collection, while SetCollection coerces
// the result format to the collection's first allowed value and clamps the
// page size to the collection's ceiling.
type Wrapper interface {
	// Name identifies the wrapper in the registry ("Springer", "Elsevier").
	Name() string

	// Endpoint returns the base URL of the provider API.
	Endpoint() string

	Collection() string
	SetCollection(value string) error

	ResultFormat() string
	SetResultFormat(value string) error

	// AllowedResultFormats enumerates the permitted (collection, format)
	// combinations.
	AllowedResultFormats() map[string][]string

	// MaxRecords returns the provider-defined page ceiling. It depends on
	// the selected collection.
	MaxRecords() int

	ShowNum() int
	// SetShowNum clamps the page size to MaxRecords.
	SetShowNum(value int)

	// StartAt sets the 1-based index of the first returned record.
	// Providers with 0-based pagination translate internally.
	StartAt(value int)

	MaxRetries() int
	SetMaxRetries(value int)

	// AllowedSearchFields maps manual search keys to their permitted
	// values. An empty value list means any value is accepted.
	AllowedSearchFields() map[string][]string

	// FieldsTranslateMap maps canonical search fields to provider tokens.
	FieldsTranslateMap() map[search.Field]string

	// SearchField accumulates a manual search parameter after validation.
	SearchField(key, value string) error

	// ResetField removes a previously set manual search parameter.
	ResetField(key string) error

	// ResetAllFields clears the accumulated manual search.
	ResetAllFields()

	// BuildQuery builds a request from the accumulated manual search fields.
	BuildQuery() (*Request, error)

	// TranslateQuery translates the canonical query into a provider request.
	TranslateQuery(query *search.Query) (*Request, error)

	// CallAPI executes the query and returns the canonical envelope. It
	// never returns a Go error: every failure yields an invalid envelope
	// carrying the taxonomy message.
	CallAPI(ctx context.Context, query *search.Query) *search.Envelope

	// CallRaw executes the query and returns the raw HTTP response body.
	CallRaw(ctx context.Context, query *search.Query) ([]byte, error)

	// CallDry returns the request that CallAPI would execute, without
	// performing any I/O.
	CallDry(query *search.Query) (*Request, error)
}

// # Shared Defaults

const (
	// defaultMaxRetries bounds timeout retries for every wrapper.
	defaultMaxRetries = 3
)

// CalcStartAt converts a (page, pageLength) pair into the 1-based provider
// start index: page 1 starts at record 1, page 2 at pageLength+1.
func CalcStartAt(page, pageLength int) int {
	return (page-1)*pageLength + 1
}
