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

// SpringerName is the registry name of the Springer Nature wrapper. Its
// credential is looked up under SPRINGER_API_KEY.
const SpringerName = "Springer"

const springerEndpoint = "http://api.springernature.com"

// # Springer Wrapper

// Springer adapts the Springer Nature API.
//
// Pagination is natively 1-based (`s=` parameter), so [Springer.StartAt]
// passes the index through unchanged. Not goroutine-safe; use one instance
// per call.
type Springer struct {
	apiKey   string
	executor *Executor

	resultFormat string
	collection   string
	startRecord  int
	numRecords   int
	maxRetries   int
	parameters   map[string]string
}

// NewSpringer returns a Springer wrapper bound to an API key.
func NewSpringer(apiKey string, executor *Executor) *Springer {
	return &Springer{
		apiKey:       apiKey,
		executor:     executor,
		resultFormat: "json",
		collection:   "metadata",
		startRecord:  1,
		numRecords:   50,
		maxRetries:   defaultMaxRetries,
		parameters:   map[string]string{},
	}
}

// # Configuration

func (s *Springer) Name() string     { return SpringerName }
func (s *Springer) Endpoint() string { return springerEndpoint }

// AllowedResultFormats enumerates the provider's collection/format matrix.
func (s *Springer) AllowedResultFormats() map[string][]string {
	return map[string][]string{
		"meta/v2":    {"pam", "jats", "json", "jsonp", "jsonld"},
		"metadata":   {"pam", "json", "jsonp"},
		"openaccess": {"jats", "json", "jsonp"},
		"integro":    {"xml"},
	}
}

func (s *Springer) ResultFormat() string { return s.resultFormat }

// SetResultFormat validates the format against the current collection.
func (s *Springer) SetResultFormat(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))

	for _, allowed := range s.AllowedResultFormats()[s.collection] {
		if value == allowed {
			s.resultFormat = value
			return nil
		}
	}
	return BadConfig("Illegal format %s for collection %s", value, s.collection)
}

func (s *Springer) Collection() string { return s.collection }

// SetCollection switches the target collection, coercing the result format
// to the collection's first allowed value when the current one is illegal.
func (s *Springer) SetCollection(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))

	formats, known := s.AllowedResultFormats()[value]
	if !known {
		return UnknownCollection(value)
	}

	legal := false
	for _, format := range formats {
		if s.resultFormat == format {
			legal = true
			break
		}
	}
	if !legal {
		s.resultFormat = formats[0]
	}

	s.collection = value

	if s.numRecords > s.MaxRecords() {
		s.numRecords = s.MaxRecords()
	}
	return nil
}

// MaxRecords returns the page ceiling: the openaccess collection caps at
// 20 results per request, every other collection at 50.
func (s *Springer) MaxRecords() int {
	if s.collection == "openaccess" {
		return 20
	}
	return 50
}

func (s *Springer) ShowNum() int { return s.numRecords }

func (s *Springer) SetShowNum(value int) {
	if value > s.MaxRecords() {
		value = s.MaxRecords()
	}
	s.numRecords = value
}

// StartAt sets the 1-based start index (Springer's `s=` parameter).
func (s *Springer) StartAt(value int) { s.startRecord = value }

func (s *Springer) MaxRetries() int         { return s.maxRetries }
func (s *Springer) SetMaxRetries(value int) { s.maxRetries = value }

// AllowedSearchFields lists the manual search keys Springer accepts. An
// empty value list accepts any value.
func (s *Springer) AllowedSearchFields() map[string][]string {
	return map[string][]string{
		"doi": {}, "subject": {}, "keyword": {}, "pub": {}, "year": {},
		"onlinedate": {}, "onlinedatefrom": {}, "onlinedateto": {},
		"country": {}, "isbn": {}, "issn": {}, "journalid": {},
		"topicalcollection": {}, "journalonlinefirst": {"true"},
		"date": {}, "issuetype": {}, "issue": {}, "volume": {},
		"type": {"Journal", "Book"}, "openaccess": {"true"}, "title": {},
		"orgname": {}, "journal": {}, "book": {}, "name": {},
	}
}

// FieldsTranslateMap maps canonical fields to Springer query prefixes.
// "all" maps to the empty prefix: unscoped terms search everything.
func (s *Springer) FieldsTranslateMap() map[search.Field]string {
	return map[search.Field]string{
		search.FieldAll:      "",
		search.FieldKeywords: "keyword",
		search.FieldTitle:    "title",
	}
}

// # Manual Search

// SearchField records a manual search parameter after validating the
// key/value combination.
func (s *Springer) SearchField(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if value == "" {
		return BadQuery("Value is empty")
	}

	allowed, supported := s.AllowedSearchFields()[key]
	if !supported {
		return BadQuery("Searches against %s are not supported", key)
	}
	if len(allowed) > 0 {
		for _, candidate := range allowed {
			if value == candidate {
				s.parameters[key] = value
				return nil
			}
		}
		return BadQuery("Illegal value %s for search-field %s", value, key)
	}

	s.parameters[key] = value
	return nil
}

func (s *Springer) ResetField(key string) error {
	if _, ok := s.parameters[key]; !ok {
		return BadQuery("Field %s is not set.", key)
	}
	delete(s.parameters, key)
	return nil
}

func (s *Springer) ResetAllFields() { s.parameters = map[string]string{} }

// BuildQuery assembles a request from the accumulated manual parameters,
// joining key:value pairs with "+".
func (s *Springer) BuildQuery() (*Request, error) {
	if len(s.parameters) == 0 {
		return nil, BadQuery("No search-parameters set.")
	}

	pairs := make([]string, 0, len(s.parameters))
	for key, value := range s.parameters {
		pairs = append(pairs, key+":"+encodeTerm(value))
	}
	expression := strings.Join(pairs, "+")

	return s.request(expression), nil
}

// # Translation

// TranslateQuery renders the canonical query as a Springer GET expression.
//
// Each selected field prefixes every term (`title:term`); "all" uses no
// prefix. Groups join with the padded top-level connector; NOT groups are
// negated with "-" and OR-joined internally; field expressions join with
// "+OR+".
func (s *Springer) TranslateQuery(query *search.Query) (*Request, error) {
	if err := validateTranslatable(query); err != nil {
		return nil, err
	}

	tokens, err := translateFields(query, s.FieldsTranslateMap(), search.FieldAll)
	if err != nil {
		return nil, err
	}

	fieldExpressions := make([]string, 0, len(tokens))
	for _, token := range tokens {
		prefix := ""
		if token != "" {
			prefix = token + ":"
		}

		groups := make([]string, 0, len(query.SearchGroups))
		for _, group := range query.SearchGroups {
			rendered := renderGroupGET(group, prefix)
			if group.Match == search.MatchNOT {
				rendered = "-" + rendered
			}
			groups = append(groups, rendered)
		}
		fieldExpressions = append(fieldExpressions, strings.Join(groups, "+"+string(query.Match)+"+"))
	}

	return s.request(strings.Join(fieldExpressions, "+OR+")), nil
}

// request builds the immutable request spec around a rendered expression.
func (s *Springer) request(expression string) *Request {
	url := fmt.Sprintf("%s/%s/%s?api_key=%s&s=%d&p=%d&q=%s",
		springerEndpoint, s.collection, s.resultFormat, s.apiKey,
		s.startRecord, s.numRecords, expression)

	return &Request{
		Method:  "GET",
		URL:     url,
		DBQuery: expression,
	}
}

// # Execution

// CallDry returns the request without executing it.
func (s *Springer) CallDry(query *search.Query) (*Request, error) {
	if query == nil {
		return s.BuildQuery()
	}
	return s.TranslateQuery(query)
}

// CallRaw executes the query and returns the raw provider payload.
func (s *Springer) CallRaw(ctx context.Context, query *search.Query) ([]byte, error) {
	request, err := s.CallDry(query)
	if err != nil {
		return nil, err
	}

	payload, execErr := s.executor.Do(ctx, request, s.maxRetries)
	if execErr != nil {
		return nil, execErr
	}
	return payload, nil
}

// CallAPI executes the query and normalizes the response. Failures of any
// kind produce an invalid envelope; no error escapes.
func (s *Springer) CallAPI(ctx context.Context, query *search.Query) *search.Envelope {
	request, err := s.CallDry(query)
	if err != nil {
		return search.Invalid(query, "", s.apiKey, RequestError(err).Message, s.startRecord, s.numRecords)
	}

	payload, execErr := s.executor.Do(ctx, request, s.maxRetries)
	if execErr != nil {
		slog.Default().Warn("springer_request_failed", slog.String("error", execErr.Message))
		return search.Invalid(query, request.DBQuery, s.apiKey, execErr.Message, s.startRecord, s.numRecords)
	}

	if s.resultFormat != "json" && s.resultFormat != "jsonld" {
		message := RequestError(fmt.Errorf("no formatter defined for %s", s.resultFormat)).Message
		return search.Invalid(query, request.DBQuery, s.apiKey, message, s.startRecord, s.numRecords)
	}

	envelope, err := s.normalize(payload, query, request.DBQuery)
	if err != nil {
		return search.Invalid(query, request.DBQuery, s.apiKey, RequestError(err).Message, s.startRecord, s.numRecords)
	}
	return envelope
}

// # Normalization

type springerResponse struct {
	Result  []springerWindow `json:"result"`
	Records []springerRecord `json:"records"`
	Facets  []springerFacet  `json:"facets"`
}

type springerWindow struct {
	Total            string `json:"total"`
	Start            string `json:"start"`
	PageLength       string `json:"pageLength"`
	RecordsDisplayed string `json:"recordsDisplayed"`
}

type springerRecord struct {
	ContentType     string           `json:"contentType"`
	Title           string           `json:"title"`
	Creators        []springerAuthor `json:"creators"`
	PublicationName string           `json:"publicationName"`
	DOI             string           `json:"doi"`
	Publisher       string           `json:"publisher"`
	PublicationDate string           `json:"publicationDate"`
	PublicationType string           `json:"publicationType"`
	ISSN            string           `json:"issn"`
	Volume          string           `json:"volume"`
	Number          string           `json:"number"`
	Genre           flexStrings      `json:"genre"`
	StartingPage    string           `json:"startingPage"`
	EndingPage      string           `json:"endingPage"`
	JournalID       string           `json:"journalId"`
	Copyright       string           `json:"copyright"`
	Abstract        string           `json:"abstract"`
	URL             []springerURL    `json:"url"`
	OpenAccess      string           `json:"openaccess"`
}

type springerAuthor struct {
	Creator string `json:"creator"`
}

type springerURL struct {
	Format   string `json:"format"`
	Platform string `json:"platform"`
	Value    string `json:"value"`
}

type springerFacet struct {
	Name   string `json:"name"`
	Values []struct {
		Value string `json:"value"`
		Count string `json:"count"`
	} `json:"values"`
}

// flexStrings tolerates providers encoding a field as either a single
// string or an array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var many []string
	if err := sonic.Unmarshal(data, &many); err == nil {
		*f = many
		return nil
	}

	var one string
	if err := sonic.Unmarshal(data, &one); err != nil {
		return err
	}
	*f = []string{one}
	return nil
}

// normalize maps the vendor payload onto the canonical envelope.
func (s *Springer) normalize(payload []byte, query *search.Query, dbQuery any) (*search.Envelope, error) {
	var response springerResponse
	if err := sonic.Unmarshal(payload, &response); err != nil {
		return nil, err
	}

	envelope := &search.Envelope{
		Query:   query,
		DBQuery: dbQuery,
		APIKey:  s.apiKey,
		Records: make([]*search.Record, 0, len(response.Records)),
	}

	if len(response.Result) > 0 {
		window := response.Result[0]
		envelope.Result = search.ResultInfo{
			Total:            convert.ToInt(window.Total),
			Start:            convert.ToInt(window.Start),
			PageLength:       convert.ToInt(window.PageLength),
			RecordsDisplayed: convert.ToInt(window.RecordsDisplayed),
		}
	} else {
		envelope.Result = search.ResultInfo{
			Total:            -1,
			Start:            -1,
			PageLength:       -1,
			RecordsDisplayed: len(response.Records),
		}
	}

	for _, vendor := range response.Records {
		record := &search.Record{
			ContentType:     vendor.ContentType,
			Title:           vendor.Title,
			PublicationName: vendor.PublicationName,
			DOI:             vendor.DOI,
			Publisher:       vendor.Publisher,
			PublicationDate: vendor.PublicationDate,
			PublicationType: vendor.PublicationType,
			ISSN:            vendor.ISSN,
			Volume:          vendor.Volume,
			Number:          vendor.Number,
			Genre:           vendor.Genre,
			JournalID:       vendor.JournalID,
			Copyright:       vendor.Copyright,
			Abstract:        vendor.Abstract,
		}

		for _, author := range vendor.Creators {
			record.Authors = append(record.Authors, author.Creator)
		}

		if len(vendor.URL) > 0 {
			record.URI = vendor.URL[0].Value
		}

		if vendor.StartingPage != "" || vendor.EndingPage != "" {
			record.Pages = &search.Pages{First: vendor.StartingPage, Last: vendor.EndingPage}
		}

		// Everything inside the openaccess collection is open access by
		// definition; other collections carry a string flag.
		if s.collection == "openaccess" {
			record.OpenAccess = true
		} else if vendor.OpenAccess != "" {
			record.OpenAccess = vendor.OpenAccess == "true"
		}

		envelope.Records = append(envelope.Records, record)
	}

	envelope.Facets = s.normalizeFacets(response.Facets, envelope.Records)

	return envelope, nil
}

// normalizeFacets converts Springer facet arrays into the canonical facet
// block, deriving keywords from titles when the provider returns none.
func (s *Springer) normalizeFacets(vendor []springerFacet, records []*search.Record) *search.Facets {
	facets := &search.Facets{}

	for _, facet := range vendor {
		switch facet.Name {
		case "country":
			for _, entry := range facet.Values {
				code := CountryAlpha2(entry.Value)
				if code == "" {
					continue
				}
				if facets.Countries == nil {
					facets.Countries = map[string]int{}
				}
				facets.Countries[code] += convert.ToInt(entry.Count)
			}
		case "keyword":
			for _, entry := range facet.Values {
				facets.Keywords = append(facets.Keywords, search.KeywordCount{
					Text:  entry.Value,
					Value: convert.ToInt(entry.Count),
				})
			}
		}
	}

	if len(facets.Keywords) == 0 {
		facets.Keywords = search.TitleKeywords(records)
	}

	return facets
}
