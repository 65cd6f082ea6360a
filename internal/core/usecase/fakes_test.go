package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

type repoFake struct {
	docs map[int64]*domain.Document

	created     []*domain.Document
	createErr   error
	statusCalls []statusCall
	statusErr   error
	savedMeta   map[int64]domain.DocumentMetadata
	metaErr     error

	searchDocs  []domain.Document
	searchTotal int
	searchErr   error
	gotAnalysis domain.QueryAnalysis
	gotParams   domain.QueryParams

	stats    *domain.DashboardStats
	statsErr error
}

type statusCall struct {
	id        int64
	processed bool
	errMsg    *string
}

func newRepoFake() *repoFake {
	return &repoFake{
		docs:      map[int64]*domain.Document{},
		savedMeta: map[int64]domain.DocumentMetadata{},
	}
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	doc.ID = int64(len(f.created) + 1)
	copyDoc := *doc
	f.created = append(f.created, &copyDoc)
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("missing"))
	}
	return doc, nil
}

func (f *repoFake) List(_ context.Context, userID int64, _, _ int) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, id int64, processed bool, processingError *string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, statusCall{id: id, processed: processed, errMsg: processingError})
	if doc, ok := f.docs[id]; ok {
		doc.Processed = processed
		doc.ProcessingError = processingError
	}
	return nil
}

func (f *repoFake) SaveMetadata(_ context.Context, id int64, pageCount int, meta domain.DocumentMetadata) error {
	if f.metaErr != nil {
		return f.metaErr
	}
	f.savedMeta[id] = meta
	if doc, ok := f.docs[id]; ok {
		doc.PageCount = pageCount
	}
	return nil
}

func (f *repoFake) Search(
	_ context.Context,
	_ int64,
	analysis domain.QueryAnalysis,
	params domain.QueryParams,
) ([]domain.Document, int, error) {
	f.gotAnalysis = analysis
	f.gotParams = params
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.searchDocs, f.searchTotal, nil
}

func (f *repoFake) AggregateStats(context.Context, int64) (*domain.DashboardStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return int64(len(raw)), nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	published []int64
	err       error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, int64) error) error {
	return errors.New("not implemented")
}

type publisherFake struct {
	updates []domain.StatusUpdate
	users   []int64
	err     error
}

func (f *publisherFake) PublishStatusUpdate(_ context.Context, userID int64, update domain.StatusUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.users = append(f.users, userID)
	f.updates = append(f.updates, update)
	return nil
}

type cacheFake struct {
	stats       *domain.DashboardStats
	getErr      error
	setErr      error
	sets        []int64
	invalidated []int64
}

func (f *cacheFake) Get(_ context.Context, _ int64) (*domain.DashboardStats, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if f.stats == nil {
		return nil, false, nil
	}
	return f.stats, true, nil
}

func (f *cacheFake) Set(_ context.Context, userID int64, stats *domain.DashboardStats) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, userID)
	f.stats = stats
	return nil
}

func (f *cacheFake) Invalidate(_ context.Context, userID int64) error {
	f.invalidated = append(f.invalidated, userID)
	f.stats = nil
	return nil
}

type parserFake struct {
	text  string
	pages int
	err   error
}

func (f *parserFake) Parse(context.Context, *domain.Document) (string, int, error) {
	return f.text, f.pages, f.err
}

type extractorFake struct {
	meta domain.DocumentMetadata
	err  error
}

func (f *extractorFake) Extract(context.Context, string, string) (domain.DocumentMetadata, error) {
	return f.meta, f.err
}

type queryLogFake struct {
	entries []domain.QueryLogEntry
	popular []string
	err     error
}

func (f *queryLogFake) Insert(_ context.Context, entry domain.QueryLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *queryLogFake) PopularQueries(context.Context, string, int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.popular, nil
}
