// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/models"
)

func newTestCacheRepo(t *testing.T) (*entityCacheRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &entityCacheRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestCachePut_UpsertsAllColumns(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	listID := models.AssignedID("list-1")
	entity := models.Entity{
		ID:        models.AssignedID("item-1"),
		Kind:      models.KindItem,
		ParentID:  &listID,
		Name:      "Milk",
		Quantity:  2,
		Position:  1,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: "phone",
	}

	mock.ExpectExec("INSERT INTO entities").
		WithArgs("item-1", "ITEM", "list-1", "Milk", "", false, int64(2),
			int64(1), "", "", false, int64(3), now, now, "phone").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(ctx, entity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCacheGet_NotFound(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), models.AssignedID("missing"))
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestCacheGetAllByParent_ScansRows(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	ctx := context.Background()
	listID := models.AssignedID("list-1")
	entities := []models.Entity{
		{ID: models.AssignedID("item-1"), Kind: models.KindItem, ParentID: &listID, Name: "Milk", Version: 1},
		{ID: models.AssignedID("item-2"), Kind: models.KindItem, ParentID: &listID, Name: "Bread", Version: 2},
	}

	mock.ExpectQuery("parent_id = ").
		WithArgs("list-1").
		WillReturnRows(entityRows(t, entities...))

	results, err := repo.GetAllByParent(ctx, listID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(results))
	}
	if results[1].Name != "Bread" {
		t.Errorf("expected second row Bread, got %q", results[1].Name)
	}
}

func TestCacheRekey_TransactionalWrites(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	ctx := context.Background()
	oldID := models.ParseEntityID("temp-abc")
	newID := models.AssignedID("list-1")

	mock.ExpectBegin()
	mock.ExpectExec("SET id").
		WithArgs("temp-abc", "list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET parent_id").
		WithArgs("temp-abc", "list-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.Rekey(ctx, oldID, newID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCacheRekey_RollsBackOnFailure(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("SET id").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := repo.Rekey(ctx, models.ParseEntityID("temp-abc"), models.AssignedID("list-1"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCacheRemove(t *testing.T) {
	repo, mock, db := newTestCacheRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM entities").
		WithArgs("item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Remove(context.Background(), models.AssignedID("item-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
