package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

func TestQueryLogInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewQueryRepository(db)

	mock.ExpectExec("INSERT INTO queries").
		WithArgs(int64(1), "nda in uae", 3, int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := domain.QueryLogEntry{UserID: 1, QueryText: "nda in uae", ResultCount: 3, ExecutionTimeMS: 42}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPopularQueriesDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := NewQueryRepository(db)

	mock.ExpectQuery("SELECT query_text").
		WithArgs("nda", 5).
		WillReturnRows(sqlmock.NewRows([]string{"query_text"}).
			AddRow("nda expiring").
			AddRow("nda under uae law"))

	got, err := repo.PopularQueries(context.Background(), "nda", 0)
	if err != nil {
		t.Fatalf("PopularQueries() error = %v", err)
	}
	if len(got) != 2 || got[0] != "nda expiring" {
		t.Fatalf("unexpected queries %v", got)
	}
}
