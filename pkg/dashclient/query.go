package dashclient

import (
	"context"
	"errors"
	"sync"
)

const historyCap = 10

// ErrSuperseded reports that a newer mutation was issued before this
// request's response arrived; the response was discarded.
var ErrSuperseded = errors.New("dashclient: query superseded by a newer request")

// QueryFilters narrows results by extracted metadata values.
type QueryFilters struct {
	AgreementTypes []string `json:"agreement_types,omitempty"`
	Jurisdictions  []string `json:"jurisdictions,omitempty"`
	Industries     []string `json:"industries,omitempty"`
	Geographies    []string `json:"geographies,omitempty"`
}

// QueryParams is one immutable request. Every mutation on a QuerySession
// builds a fresh value; existing copies never change underneath a caller.
type QueryParams struct {
	Question   string       `json:"question"`
	MaxResults int          `json:"max_results,omitempty"`
	Page       int          `json:"page"`
	Filters    QueryFilters `json:"filters"`
	SortBy     string       `json:"sort_by,omitempty"`
	SortOrder  string       `json:"sort_order,omitempty"`
}

// QueryResult is one matching document row.
type QueryResult struct {
	Document   string            `json:"document"`
	DocumentID int64             `json:"document_id"`
	Metadata   map[string]string `json:"metadata"`
}

// QueryResponse is the full interrogation response including pagination.
type QueryResponse struct {
	Question        string        `json:"question"`
	Results         []QueryResult `json:"results"`
	TotalResults    int           `json:"total_results"`
	Page            int           `json:"page"`
	PerPage         int           `json:"per_page"`
	TotalPages      int           `json:"total_pages"`
	ExecutionTimeMS int64         `json:"execution_time_ms"`
	FiltersApplied  QueryFilters  `json:"filters_applied"`
}

// QuerySession drives the query panel: it owns the current parameters, runs
// exactly one request per mutation and keeps only the latest response. When
// requests overlap, the most recently issued mutation wins and responses to
// older ones are discarded.
type QuerySession struct {
	exec func(ctx context.Context, params QueryParams) (*QueryResponse, error)

	mu       sync.Mutex
	params   QueryParams
	version  uint64
	current  *QueryResponse
	history  []*QueryResponse
}

// NewQuerySession builds a session that executes requests through exec,
// normally Client.Query.
func NewQuerySession(exec func(ctx context.Context, params QueryParams) (*QueryResponse, error)) *QuerySession {
	return &QuerySession{
		exec:   exec,
		params: QueryParams{Page: 1},
	}
}

// SetQuestion replaces the question, resets pagination to the first page and
// issues one request.
func (s *QuerySession) SetQuestion(ctx context.Context, question string) error {
	s.mu.Lock()
	next := s.params
	next.Question = question
	next.Page = 1
	version := s.beginRequest(next)
	s.mu.Unlock()

	return s.run(ctx, next, version)
}

// SetPage moves to another page of the current question without touching any
// other parameter.
func (s *QuerySession) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	next := s.params
	next.Page = page
	version := s.beginRequest(next)
	s.mu.Unlock()

	return s.run(ctx, next, version)
}

// SetFilters replaces the filter set and resets pagination to the first page.
func (s *QuerySession) SetFilters(ctx context.Context, filters QueryFilters) error {
	s.mu.Lock()
	next := s.params
	next.Filters = filters
	next.Page = 1
	version := s.beginRequest(next)
	s.mu.Unlock()

	return s.run(ctx, next, version)
}

// SetSort replaces the sort order and resets pagination to the first page.
func (s *QuerySession) SetSort(ctx context.Context, sortBy, sortOrder string) error {
	s.mu.Lock()
	next := s.params
	next.SortBy = sortBy
	next.SortOrder = sortOrder
	next.Page = 1
	version := s.beginRequest(next)
	s.mu.Unlock()

	return s.run(ctx, next, version)
}

// beginRequest installs the next immutable parameter set and returns the
// request version that must still be current for its response to apply.
// Callers hold the lock.
func (s *QuerySession) beginRequest(next QueryParams) uint64 {
	s.params = next
	s.version++
	return s.version
}

func (s *QuerySession) run(ctx context.Context, params QueryParams, version uint64) error {
	resp, err := s.exec(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	s.current = resp
	s.recordHistory(resp)
	return nil
}

// recordHistory prepends a successful response, keeping at most the ten most
// recent entries; the cap evicts the oldest, never the newest. Failed and
// superseded requests never reach here. Callers hold the lock.
func (s *QuerySession) recordHistory(resp *QueryResponse) {
	kept := make([]*QueryResponse, 0, historyCap)
	kept = append(kept, resp)
	for _, past := range s.history {
		kept = append(kept, past)
		if len(kept) == historyCap {
			break
		}
	}
	s.history = kept
}

// Params returns the current immutable parameter set.
func (s *QuerySession) Params() QueryParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Current returns the latest applied response, or nil before the first one.
func (s *QuerySession) Current() *QueryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns past successful responses, most recent first.
func (s *QuerySession) History() []*QueryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*QueryResponse, len(s.history))
	copy(out, s.history)
	return out
}
