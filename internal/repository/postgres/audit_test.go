package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/engage/internal/domain"
)

func TestAuditRepo_SaveAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	entries := []domain.AuditEntry{
		{Stage: "received", Timestamp: now, Details: map[string]string{"event_id": "evt-1"}},
		{Stage: "completed", Timestamp: now.Add(time.Second)},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO engage_decision_audit")
	prep.ExpectExec().
		WithArgs("dec-1", 0, "received", now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("dec-1", 1, "completed", now.Add(time.Second), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewAuditRepo(db).SaveAudit(context.Background(), "dec-1", entries); err != nil {
		t.Fatalf("SaveAudit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_SaveAuditEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	if err := NewAuditRepo(db).SaveAudit(context.Background(), "dec-1", nil); err != nil {
		t.Fatalf("SaveAudit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no statements expected: %v", err)
	}
}

func TestAuditRepo_GetAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"stage", "recorded_at", "details"}).
		AddRow("received", now, []byte(`{"event_id":"evt-1"}`)).
		AddRow("completed", now.Add(time.Second), []byte(`{}`))

	mock.ExpectQuery("SELECT stage, recorded_at, details(.+)ORDER BY seq").
		WithArgs("dec-1").
		WillReturnRows(rows)

	got, err := NewAuditRepo(db).GetAudit(context.Background(), "dec-1")
	if err != nil {
		t.Fatalf("GetAudit: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Stage != "received" || got[0].Details["event_id"] != "evt-1" {
		t.Errorf("first entry = %+v", got[0])
	}
	if got[1].Stage != "completed" {
		t.Errorf("second entry = %+v", got[1])
	}
}
