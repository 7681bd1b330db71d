// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/convert"
)

// ElsevierName is the registry name of the Elsevier wrapper. Its
// credential is looked up under ELSEVIER_API_KEY.
const ElsevierName = "Elsevier"

const elsevierEndpoint = "https://api.elsevier.com/content"

// Elsevier collections.
const (
	collectionScienceDirect   = "search/sciencedirect"
	collectionScopus          = "search/scopus"
	collectionArticleMetadata = "metadata/article"
)

// # Elsevier Wrapper

// Elsevier adapts the Elsevier APIs: Scopus search (GET), ScienceDirect
// search (PUT) and the article metadata collection, which is recognized
// but not implemented.
//
// Both Elsevier search APIs paginate 0-based; [Elsevier.StartAt] keeps the
// 1-based interface contract and translates internally. Not goroutine-safe;
// use one instance per call.
type Elsevier struct {
	apiKey   string
	executor *Executor

	resultFormat string
	collection   string

	// startRecord is held 0-based, matching the provider's offset.
	startRecord int
	numRecords  int
	maxRetries  int
	parameters  map[string]string
}

// NewElsevier returns an Elsevier wrapper bound to an API key, targeting
// the Scopus collection by default.
func NewElsevier(apiKey string, executor *Executor) *Elsevier {
	return &Elsevier{
		apiKey:       apiKey,
		executor:     executor,
		resultFormat: "application/json",
		collection:   collectionScopus,
		startRecord:  0,
		numRecords:   25,
		maxRetries:   defaultMaxRetries,
		parameters:   map[string]string{},
	}
}

// # Configuration

func (e *Elsevier) Name() string     { return ElsevierName }
func (e *Elsevier) Endpoint() string { return elsevierEndpoint }

func (e *Elsevier) AllowedResultFormats() map[string][]string {
	return map[string][]string{
		collectionScienceDirect:   {"application/json"},
		collectionArticleMetadata: {"application/json", "application/atom+xml", "application/xml"},
		collectionScopus:          {"application/json", "application/atom+xml", "application/xml"},
	}
}

func (e *Elsevier) ResultFormat() string { return e.resultFormat }

// SetResultFormat validates the MIME format against the collection. A bare
// subtype like "json" is coerced to "application/json".
func (e *Elsevier) SetResultFormat(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	allowed := e.AllowedResultFormats()[e.collection]

	for _, candidate := range allowed {
		if value == candidate {
			e.resultFormat = value
			return nil
		}
	}
	for _, candidate := range allowed {
		if "application/"+value == candidate {
			e.resultFormat = candidate
			return nil
		}
	}
	return BadConfig("Illegal format %s for collection %s", value, e.collection)
}

func (e *Elsevier) Collection() string { return e.collection }

// SetCollection switches the target collection, coercing the result format
// and clamping the page size to the new ceiling.
func (e *Elsevier) SetCollection(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))

	formats, known := e.AllowedResultFormats()[value]
	if !known {
		return UnknownCollection(value)
	}

	legal := false
	for _, format := range formats {
		if e.resultFormat == format {
			legal = true
			break
		}
	}
	if !legal {
		e.resultFormat = formats[0]
	}

	e.collection = value

	if e.numRecords > e.MaxRecords() {
		e.numRecords = e.MaxRecords()
	}
	return nil
}

// MaxRecords returns the page ceiling: Scopus caps at 25 per request, the
// other collections at 100.
func (e *Elsevier) MaxRecords() int {
	if e.collection == collectionScopus {
		return 25
	}
	return 100
}

func (e *Elsevier) ShowNum() int { return e.numRecords }

func (e *Elsevier) SetShowNum(value int) {
	if value > e.MaxRecords() {
		value = e.MaxRecords()
	}
	e.numRecords = value
}

// StartAt sets the 1-based start index. Elsevier offsets are 0-based, so
// the index is shifted down internally.
func (e *Elsevier) StartAt(value int) { e.startRecord = value - 1 }

func (e *Elsevier) MaxRetries() int         { return e.maxRetries }
func (e *Elsevier) SetMaxRetries(value int) { e.maxRetries = value }

// AllowedSearchFields lists the manual search keys per collection.
func (e *Elsevier) AllowedSearchFields() map[string][]string {
	switch e.collection {
	case collectionScienceDirect:
		return map[string][]string{
			"author": {}, "date": {}, "highlights": {"true", "false"},
			"openAccess": {"true", "false"}, "issue": {}, "loadedAfter": {},
			"page": {}, "pub": {}, "qs": {}, "title": {}, "volume": {},
		}
	case collectionArticleMetadata:
		return map[string][]string{
			"keywords": {}, "content-type": {"JL", "BS", "HB", "BK", "RW"},
			"authors": {}, "affiliation": {}, "pub-date": {}, "title": {},
			"srctitle": {}, "doi": {}, "eid": {}, "issn": {}, "isbn": {},
			"vol-issue": {}, "available-online-date": {},
			"vor-available-online-date": {}, "openaccess": {"0", "1"},
		}
	case collectionScopus:
		return map[string][]string{
			"ALL": {}, "ABS": {}, "AF-ID": {}, "AFFIL": {}, "AFFILCITY": {},
			"AFFILCOUNTRY": {}, "AFFILORG": {}, "ARTNUM": {}, "AU-ID": {},
			"AUTHOR-NAME": {}, "AUTH": {}, "AUTHFIRST": {},
			"AUTHLASTNAME": {}, "AUTHCOLLAB": {}, "AUTHKEY": {},
			"DOCTYPE": {"ar", "ab", "bk", "bz", "ch", "cp", "cr", "ed",
				"er", "le", "no", "pr", "re", "sh"},
			"PUBSTAGE": {"aip", "final"}, "DOI": {}, "EISSN": {},
			"EXACTSRCTITLE": {}, "FIRSTAUTH": {}, "INDEXTERMS": {},
			"ISBN": {}, "ISSN": {}, "ISSUE": {}, "KEY": {}, "LANGUAGE": {},
			"OPENACCESS": {"0", "1"}, "PAGEFIRST": {}, "PAGELAST": {},
			"PAGES": {}, "PMID": {}, "PUBLISHER": {}, "PUBYEAR": {},
			"REF": {}, "SRCTITLE": {},
			"SRCTYPE": {"j", "b", "k", "p", "r", "d"},
			"TITLE":   {}, "TITLE-ABS-KEY": {}, "TITLE-ABS-KEY-AUTH": {},
			"VOLUME": {},
		}
	default:
		return map[string][]string{}
	}
}

// FieldsTranslateMap maps canonical fields to the collection's tokens.
func (e *Elsevier) FieldsTranslateMap() map[search.Field]string {
	switch e.collection {
	case collectionScienceDirect:
		return map[search.Field]string{
			search.FieldAll:   "qs",
			search.FieldTitle: "title",
		}
	case collectionArticleMetadata:
		return map[search.Field]string{
			search.FieldKeywords: "keywords",
			search.FieldTitle:    "title",
		}
	case collectionScopus:
		return map[search.Field]string{
			search.FieldAll:      "ALL",
			search.FieldAbstract: "ABS",
			search.FieldKeywords: "KEY",
			search.FieldTitle:    "TITLE",
		}
	default:
		return map[search.Field]string{}
	}
}

// defaultField is the canonical field used when the query names none.
func (e *Elsevier) defaultField() search.Field {
	if e.collection == collectionArticleMetadata {
		return search.FieldKeywords
	}
	return search.FieldAll
}

// # Manual Search

// SearchField records a manual search parameter after validating the
// key/value combination. Scopus keys are case-sensitive.
func (e *Elsevier) SearchField(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if value == "" {
		return BadQuery("Value is empty")
	}

	allowed, supported := e.AllowedSearchFields()[key]
	if !supported {
		return BadQuery("Searches against %s are not supported", key)
	}
	if len(allowed) > 0 {
		for _, candidate := range allowed {
			if value == candidate {
				e.parameters[key] = value
				return nil
			}
		}
		return BadQuery("Illegal value %s for search-field %s", value, key)
	}

	e.parameters[key] = value
	return nil
}

func (e *Elsevier) ResetField(key string) error {
	if _, ok := e.parameters[key]; !ok {
		return BadQuery("Field %s is not set.", key)
	}
	delete(e.parameters, key)
	return nil
}

func (e *Elsevier) ResetAllFields() { e.parameters = map[string]string{} }

// BuildQuery assembles a request from the accumulated manual parameters:
// the ScienceDirect collection ships them as the PUT body, the GET
// collections render `KEY(value)` pairs joined by `+AND+`.
func (e *Elsevier) BuildQuery() (*Request, error) {
	if len(e.parameters) == 0 {
		return nil, BadQuery("No search parameters set.")
	}

	switch e.collection {
	case collectionScienceDirect:
		body := map[string]any{}
		for key, value := range e.parameters {
			body[key] = value
		}
		return e.putRequest(body)
	case collectionScopus, collectionArticleMetadata:
		pairs := make([]string, 0, len(e.parameters))
		for key, value := range e.parameters {
			pairs = append(pairs, key+"("+encodeTerm(value)+")")
		}
		return e.getRequest(strings.Join(pairs, "+AND+")), nil
	default:
		return nil, UnknownCollection(e.collection)
	}
}

// # Translation

// TranslateQuery renders the canonical query for the active collection.
//
// ScienceDirect builds a PUT body: every selected field carries the full
// nested boolean expression, and the body's display block sets the paging
// window. The GET collections wrap the rendered groups per field token
// (`ALL((energy))`), negate with a `NOT+` prefix, join groups with the
// padded top-level connector, and join field expressions with `+OR+`.
func (e *Elsevier) TranslateQuery(query *search.Query) (*Request, error) {
	if err := validateTranslatable(query); err != nil {
		return nil, err
	}

	tokens, err := translateFields(query, e.FieldsTranslateMap(), e.defaultField())
	if err != nil {
		return nil, err
	}

	switch e.collection {
	case collectionScienceDirect:
		expression := renderBodyExpression(query)
		body := map[string]any{}
		for _, token := range tokens {
			body[token] = expression
		}
		return e.putRequest(body)

	case collectionScopus, collectionArticleMetadata:
		fieldExpressions := make([]string, 0, len(tokens))
		for _, token := range tokens {
			groups := make([]string, 0, len(query.SearchGroups))
			for _, group := range query.SearchGroups {
				wrapped := token + "(" + renderGroupGET(group, "") + ")"
				if group.Match == search.MatchNOT {
					wrapped = "NOT+" + wrapped
				}
				groups = append(groups, wrapped)
			}
			fieldExpressions = append(fieldExpressions, strings.Join(groups, "+"+string(query.Match)+"+"))
		}
		return e.getRequest(strings.Join(fieldExpressions, "+OR+")), nil

	default:
		return nil, UnknownCollection(e.collection)
	}
}

func (e *Elsevier) headers() map[string][]string {
	return map[string][]string{
		"X-ELS-APIKey": {e.apiKey},
		"Accept":       {e.resultFormat},
	}
}

// putRequest marshals a ScienceDirect body, attaching the display window.
func (e *Elsevier) putRequest(body map[string]any) (*Request, error) {
	body["display"] = map[string]int{
		"offset": e.startRecord,
		"show":   e.numRecords,
	}

	encoded, err := sonic.Marshal(body)
	if err != nil {
		return nil, RequestError(err)
	}

	return &Request{
		Method:  "PUT",
		URL:     elsevierEndpoint + "/" + e.collection,
		Headers: e.headers(),
		Body:    encoded,
		DBQuery: body,
	}, nil
}

// getRequest builds a GET request around a rendered expression.
func (e *Elsevier) getRequest(expression string) *Request {
	url := fmt.Sprintf("%s/%s?start=%d&count=%d&query=%s",
		elsevierEndpoint, e.collection, e.startRecord, e.numRecords, expression)

	return &Request{
		Method:  "GET",
		URL:     url,
		Headers: e.headers(),
		DBQuery: expression,
	}
}

// # Execution

// CallDry returns the request without executing it.
func (e *Elsevier) CallDry(query *search.Query) (*Request, error) {
	if query == nil {
		return e.BuildQuery()
	}
	return e.TranslateQuery(query)
}

// CallRaw executes the query and returns the raw provider payload.
func (e *Elsevier) CallRaw(ctx context.Context, query *search.Query) ([]byte, error) {
	request, err := e.CallDry(query)
	if err != nil {
		return nil, err
	}

	payload, execErr := e.executor.Do(ctx, request, e.maxRetries)
	if execErr != nil {
		return nil, execErr
	}
	return payload, nil
}

// CallAPI executes the query and normalizes the response. Failures of any
// kind produce an invalid envelope; no error escapes.
func (e *Elsevier) CallAPI(ctx context.Context, query *search.Query) *search.Envelope {
	start := e.startRecord + 1

	// The metadata collection has no normalization path, so it is never called.
	if e.collection == collectionArticleMetadata {
		return search.Invalid(query, "", e.apiKey,
			UnimplementedCollection(e.collection).Message, start, e.numRecords)
	}
	if _, known := e.AllowedResultFormats()[e.collection]; !known {
		return search.Invalid(query, "", e.apiKey,
			UnknownCollection(e.collection).Message, start, e.numRecords)
	}

	request, err := e.CallDry(query)
	if err != nil {
		return search.Invalid(query, "", e.apiKey, RequestError(err).Message, start, e.numRecords)
	}

	payload, execErr := e.executor.Do(ctx, request, e.maxRetries)
	if execErr != nil {
		slog.Default().Warn("elsevier_request_failed",
			slog.String("collection", e.collection),
			slog.String("error", execErr.Message),
		)
		return search.Invalid(query, request.DBQuery, e.apiKey, execErr.Message, start, e.numRecords)
	}

	if e.resultFormat != "application/json" {
		message := RequestError(fmt.Errorf("no formatter defined for %s", e.resultFormat)).Message
		return search.Invalid(query, request.DBQuery, e.apiKey, message, start, e.numRecords)
	}

	var envelope *search.Envelope
	switch e.collection {
	case collectionScienceDirect:
		envelope, err = e.normalizeScienceDirect(payload, query, request.DBQuery)
	case collectionScopus:
		envelope, err = e.normalizeScopus(payload, query, request.DBQuery)
	}
	if err != nil {
		return search.Invalid(query, request.DBQuery, e.apiKey, RequestError(err).Message, start, e.numRecords)
	}
	return envelope
}

// # ScienceDirect Normalization

type sciencedirectResponse struct {
	ResultsFound int                  `json:"resultsFound"`
	Results      []sciencedirectEntry `json:"results"`
}

type sciencedirectEntry struct {
	Authors         []sciencedirectAuthor `json:"authors"`
	DOI             string                `json:"doi"`
	OpenAccess      bool                  `json:"openAccess"`
	Pages           *search.Pages         `json:"pages"`
	PublicationDate string                `json:"publicationDate"`
	SourceTitle     string                `json:"sourceTitle"`
	Title           string                `json:"title"`
	URI             string                `json:"uri"`
	Volume          flexString            `json:"volumeIssue"`
}

type sciencedirectAuthor struct {
	Name string `json:"name"`
}

// flexString tolerates numeric and string encodings of the same field.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var value string
	if err := sonic.Unmarshal(data, &value); err == nil {
		*f = flexString(value)
		return nil
	}

	var number int
	if err := sonic.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = flexString(fmt.Sprintf("%d", number))
	return nil
}

func (e *Elsevier) normalizeScienceDirect(payload []byte, query *search.Query, dbQuery any) (*search.Envelope, error) {
	var response sciencedirectResponse
	if err := sonic.Unmarshal(payload, &response); err != nil {
		return nil, err
	}

	envelope := &search.Envelope{
		Query:   query,
		DBQuery: dbQuery,
		APIKey:  e.apiKey,
		Result: search.ResultInfo{
			Total:            response.ResultsFound,
			Start:            e.startRecord + 1,
			PageLength:       e.numRecords,
			RecordsDisplayed: len(response.Results),
		},
		Records: make([]*search.Record, 0, len(response.Results)),
	}

	for _, vendor := range response.Results {
		record := &search.Record{
			Title:           vendor.Title,
			DOI:             vendor.DOI,
			OpenAccess:      vendor.OpenAccess,
			Pages:           vendor.Pages,
			PublicationDate: vendor.PublicationDate,
			PublicationName: vendor.SourceTitle,
			Publisher:       "ScienceDirect",
			URI:             vendor.URI,
			Volume:          string(vendor.Volume),
		}

		for _, author := range vendor.Authors {
			record.Authors = append(record.Authors, author.Name)
		}

		envelope.Records = append(envelope.Records, record)
	}

	envelope.Facets = &search.Facets{Keywords: search.TitleKeywords(envelope.Records)}

	return envelope, nil
}

// # Scopus Normalization

type scopusResponse struct {
	SearchResults *scopusSearchResults `json:"search-results"`
}

type scopusSearchResults struct {
	TotalResults string        `json:"opensearch:totalResults"`
	Query        *scopusQuery  `json:"opensearch:Query"`
	Entries      []scopusEntry `json:"entry"`
}

type scopusQuery struct {
	SearchTerms string `json:"@searchTerms"`
}

type scopusEntry struct {
	Error              string              `json:"error"`
	Title              string              `json:"dc:title"`
	Creator            string              `json:"dc:creator"`
	PublicationName    string              `json:"prism:publicationName"`
	ISSN               string              `json:"prism:issn"`
	Volume             flexString          `json:"prism:volume"`
	PageRange          string              `json:"prism:pageRange"`
	CoverDate          string              `json:"prism:coverDate"`
	DOI                string              `json:"prism:doi"`
	AggregationType    string              `json:"prism:aggregationType"`
	SubtypeDescription string              `json:"subtypeDescription"`
	OpenAccess         flexString          `json:"openaccess"`
	Links              []scopusLink        `json:"link"`
	Affiliations       []scopusAffiliation `json:"affiliation"`
}

type scopusLink struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

type scopusAffiliation struct {
	Country string `json:"affiliation-country"`
}

func (e *Elsevier) normalizeScopus(payload []byte, query *search.Query, dbQuery any) (*search.Envelope, error) {
	var response scopusResponse
	if err := sonic.Unmarshal(payload, &response); err != nil {
		return nil, err
	}

	if response.SearchResults == nil {
		return nil, fmt.Errorf("Scopus returned unknown format")
	}
	results := response.SearchResults

	// Prefer the provider's echo of the search terms as the native query.
	if results.Query != nil && results.Query.SearchTerms != "" {
		dbQuery = results.Query.SearchTerms
	}

	entries := results.Entries
	// An empty result set arrives as a single entry carrying an error field.
	if len(entries) == 1 && entries[0].Error != "" {
		entries = nil
	}

	envelope := &search.Envelope{
		Query:   query,
		DBQuery: dbQuery,
		APIKey:  e.apiKey,
		Result: search.ResultInfo{
			Total:            convert.ToIntD(results.TotalResults, -1),
			Start:            e.startRecord + 1,
			PageLength:       e.numRecords,
			RecordsDisplayed: len(entries),
		},
		Records: make([]*search.Record, 0, len(entries)),
	}

	countries := map[string]int{}

	for _, vendor := range entries {
		record := &search.Record{
			ContentType:     vendor.SubtypeDescription,
			Title:           vendor.Title,
			PublicationName: vendor.PublicationName,
			DOI:             vendor.DOI,
			Publisher:       "Elsevier",
			PublicationDate: vendor.CoverDate,
			PublicationType: vendor.AggregationType,
			ISSN:            vendor.ISSN,
			Volume:          string(vendor.Volume),
			OpenAccess:      vendor.OpenAccess == "1" || vendor.OpenAccess == "true",
		}

		if vendor.Creator != "" {
			record.Authors = []string{vendor.Creator}
		}

		if vendor.PageRange != "" {
			record.Pages = splitPageRange(vendor.PageRange)
		}

		for _, link := range vendor.Links {
			if link.Ref == "scopus" {
				record.URI = link.Href
				break
			}
		}

		if len(vendor.Affiliations) > 0 {
			if code := CountryAlpha2(vendor.Affiliations[0].Country); code != "" {
				countries[code]++
			}
		}

		envelope.Records = append(envelope.Records, record)
	}

	envelope.Facets = &search.Facets{Keywords: search.TitleKeywords(envelope.Records)}
	if len(countries) > 0 {
		envelope.Facets.Countries = countries
	}

	return envelope, nil
}

// splitPageRange splits "117-128" into its halves; a missing half stays empty.
func splitPageRange(pageRange string) *search.Pages {
	parts := strings.SplitN(pageRange, "-", 2)
	pages := &search.Pages{First: parts[0]}
	if len(parts) > 1 {
		pages.Last = parts[1]
	}
	return pages
}
