package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
)

func newTestPrefsRepo(t *testing.T) (*preferencesRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &preferencesRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestPreferencesGet_Success(t *testing.T) {
	repo, mock, db := newTestPrefsRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT value").
		WithArgs("auth_token").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("stored-token"))

	value, err := repo.Get(context.Background(), "auth_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "stored-token" {
		t.Errorf("expected stored-token, got %q", value)
	}
}

func TestPreferencesGet_NotFound(t *testing.T) {
	repo, mock, db := newTestPrefsRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT value").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrPreferenceNotFound) {
		t.Errorf("expected ErrPreferenceNotFound, got %v", err)
	}
}

func TestPreferencesSet_Upserts(t *testing.T) {
	repo, mock, db := newTestPrefsRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO preferences").
		WithArgs("device_name", "phone").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Set(context.Background(), "device_name", "phone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreferencesDelete(t *testing.T) {
	repo, mock, db := newTestPrefsRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM preferences").
		WithArgs("auth_token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "auth_token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
