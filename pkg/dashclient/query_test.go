package dashclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type execRecorder struct {
	mu    sync.Mutex
	calls []QueryParams
	resp  func(QueryParams) *QueryResponse
	err   error
}

func newExecRecorder() *execRecorder {
	return &execRecorder{
		resp: func(p QueryParams) *QueryResponse {
			return &QueryResponse{Question: p.Question, Page: p.Page}
		},
	}
}

func (r *execRecorder) exec(_ context.Context, params QueryParams) (*QueryResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, params)
	if r.err != nil {
		return nil, r.err
	}
	return r.resp(params), nil
}

func (r *execRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *execRecorder) lastCall() QueryParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func TestSetQuestionIssuesExactlyOneRequest(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	if err := s.SetQuestion(context.Background(), "show me all ndas"); err != nil {
		t.Fatalf("SetQuestion() error = %v", err)
	}
	if rec.callCount() != 1 {
		t.Fatalf("expected exactly one request, got %d", rec.callCount())
	}
	if got := rec.lastCall(); got.Question != "show me all ndas" || got.Page != 1 {
		t.Fatalf("unexpected request params %+v", got)
	}
	if s.Current() == nil || s.Current().Question != "show me all ndas" {
		t.Fatalf("unexpected current response %+v", s.Current())
	}
}

func TestSetPageKeepsQuestionAndFilters(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	_ = s.SetQuestion(context.Background(), "uae agreements")
	_ = s.SetFilters(context.Background(), QueryFilters{Jurisdictions: []string{"UAE"}})
	if err := s.SetPage(context.Background(), 3); err != nil {
		t.Fatalf("SetPage() error = %v", err)
	}

	got := rec.lastCall()
	if got.Question != "uae agreements" || got.Page != 3 {
		t.Fatalf("page change must keep question, got %+v", got)
	}
	if len(got.Filters.Jurisdictions) != 1 {
		t.Fatalf("page change must keep filters, got %+v", got.Filters)
	}
}

func TestMutationsResetPage(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	_ = s.SetQuestion(context.Background(), "contracts")
	_ = s.SetPage(context.Background(), 5)

	_ = s.SetFilters(context.Background(), QueryFilters{Industries: []string{"Technology"}})
	if got := rec.lastCall(); got.Page != 1 {
		t.Fatalf("filter change must reset page, got %d", got.Page)
	}

	_ = s.SetPage(context.Background(), 4)
	_ = s.SetSort(context.Background(), "date", "asc")
	if got := rec.lastCall(); got.Page != 1 {
		t.Fatalf("sort change must reset page, got %d", got.Page)
	}

	_ = s.SetPage(context.Background(), 2)
	_ = s.SetQuestion(context.Background(), "other contracts")
	if got := rec.lastCall(); got.Page != 1 {
		t.Fatalf("question change must reset page, got %d", got.Page)
	}
}

func TestParamsAreImmutablePerRequest(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	_ = s.SetQuestion(context.Background(), "first")
	before := s.Params()
	_ = s.SetQuestion(context.Background(), "second")

	if before.Question != "first" {
		t.Fatalf("earlier snapshot mutated: %+v", before)
	}
	if s.Params().Question != "second" {
		t.Fatalf("unexpected current params %+v", s.Params())
	}
}

func TestLastRequestWinsOnOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	var calls int

	exec := func(_ context.Context, params QueryParams) (*QueryResponse, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return &QueryResponse{Question: params.Question}, nil
	}
	s := NewQuerySession(exec)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.SetQuestion(context.Background(), "slow question")
	}()
	<-started

	if err := s.SetQuestion(context.Background(), "fast question"); err != nil {
		t.Fatalf("second SetQuestion() error = %v", err)
	}
	close(release)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("stale request must report supersession, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("first request never finished")
	}

	if got := s.Current(); got == nil || got.Question != "fast question" {
		t.Fatalf("stale response must not overwrite newer one, got %+v", got)
	}
}

func TestFailedRequestKeepsPreviousResponse(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)
	_ = s.SetQuestion(context.Background(), "good question")

	rec.err = errors.New("server exploded")
	if err := s.SetQuestion(context.Background(), "bad question"); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Current(); got == nil || got.Question != "good question" {
		t.Fatalf("failed request must keep previous response, got %+v", got)
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	for i := 1; i <= 11; i++ {
		_ = s.SetQuestion(context.Background(), fmt.Sprintf("question %d", i))
	}

	history := s.History()
	if len(history) != 10 {
		t.Fatalf("history len = %d, want 10", len(history))
	}
	if history[0].Question != "question 11" {
		t.Fatalf("most recent result must come first, got %q", history[0].Question)
	}
	if history[9].Question != "question 2" {
		t.Fatalf("oldest retained entry must be question 2, got %q", history[9].Question)
	}
}

func TestHistoryKeepsRepeatedQuestions(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	_ = s.SetQuestion(context.Background(), "alpha")
	_ = s.SetQuestion(context.Background(), "beta")
	_ = s.SetQuestion(context.Background(), "alpha")

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("history len = %d, want 3", len(history))
	}
	if history[0].Question != "alpha" || history[1].Question != "beta" || history[2].Question != "alpha" {
		t.Fatalf("unexpected history order: %q %q %q",
			history[0].Question, history[1].Question, history[2].Question)
	}
}

func TestHistoryRecordsOnlySuccessfulQueries(t *testing.T) {
	rec := newExecRecorder()
	s := NewQuerySession(rec.exec)

	rec.err = errors.New("server exploded")
	if err := s.SetQuestion(context.Background(), "failed question"); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.History(); len(got) != 0 {
		t.Fatalf("failed request must not enter history, got %d entries", len(got))
	}

	rec.err = nil
	_ = s.SetQuestion(context.Background(), "good question")
	history := s.History()
	if len(history) != 1 || history[0].Question != "good question" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestHistorySkipsSupersededResponses(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	var calls int

	exec := func(_ context.Context, params QueryParams) (*QueryResponse, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return &QueryResponse{Question: params.Question}, nil
	}
	s := NewQuerySession(exec)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.SetQuestion(context.Background(), "slow question")
	}()
	<-started

	if err := s.SetQuestion(context.Background(), "fast question"); err != nil {
		t.Fatalf("second SetQuestion() error = %v", err)
	}
	close(release)
	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected supersession, got %v", err)
	}

	history := s.History()
	if len(history) != 1 || history[0].Question != "fast question" {
		t.Fatalf("discarded response must not enter history, got %+v", history)
	}
}
