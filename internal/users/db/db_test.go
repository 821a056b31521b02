package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-users/internal/models"
	"ms-users/internal/users/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if err := bunDB.ResetModel(context.Background(), (*models.User)(nil)); err != nil {
		t.Fatalf("Failed to reset users table: %v", err)
	}

	return &db.DB{Bun: bunDB}
}

func newTestUser(firstname, lastname string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		Firstname: firstname,
		Lastname:  lastname,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Expected user ID to be assigned")
	}

	retrieved, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve user: %v", err)
	}
	if retrieved.Firstname != "John" {
		t.Errorf("Expected firstname John, got %s", retrieved.Firstname)
	}
	if retrieved.Lastname != "Doe" {
		t.Errorf("Expected lastname Doe, got %s", retrieved.Lastname)
	}
	if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetUserByID(context.Background(), 9999)
	if err != sql.ErrNoRows {
		t.Fatalf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserExists(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	exists, err := store.UserExists(ctx, user.ID)
	if err != nil {
		t.Fatalf("Exists check failed: %v", err)
	}
	if !exists {
		t.Error("Expected user to exist")
	}

	exists, err = store.UserExists(ctx, user.ID+1)
	if err != nil {
		t.Fatalf("Exists check failed: %v", err)
	}
	if exists {
		t.Error("Expected user to not exist")
	}
}

func TestUpdateUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	updatedAt := time.Now().UTC().Add(time.Second)
	rows, err := store.UpdateUser(ctx, user.ID, "Jane", "Smith", updatedAt)
	if err != nil {
		t.Fatalf("Failed to update user: %v", err)
	}
	if rows != 1 {
		t.Fatalf("Expected 1 row affected, got %d", rows)
	}

	retrieved, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve user: %v", err)
	}
	if retrieved.Firstname != "Jane" || retrieved.Lastname != "Smith" {
		t.Errorf("Expected Jane Smith, got %s %s", retrieved.Firstname, retrieved.Lastname)
	}
	if !retrieved.UpdatedAt.After(retrieved.CreatedAt) {
		t.Error("Expected updated_at to move past created_at")
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	store := setupTestDB(t)

	rows, err := store.UpdateUser(context.Background(), 9999, "Jane", "Smith", time.Now().UTC())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rows != 0 {
		t.Errorf("Expected 0 rows affected, got %d", rows)
	}
}

func TestUpdateUserFields(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	rows, err := store.UpdateUserFields(ctx, user.ID, map[string]string{"firstname": "Jane"}, time.Now().UTC().Add(time.Second))
	if err != nil {
		t.Fatalf("Failed to update fields: %v", err)
	}
	if rows != 1 {
		t.Fatalf("Expected 1 row affected, got %d", rows)
	}

	retrieved, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve user: %v", err)
	}
	if retrieved.Firstname != "Jane" {
		t.Errorf("Expected firstname Jane, got %s", retrieved.Firstname)
	}
	if retrieved.Lastname != "Doe" {
		t.Errorf("Expected lastname to stay Doe, got %s", retrieved.Lastname)
	}
}

func TestUpdateUserFieldsIgnoresUnknownColumns(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	fields := map[string]string{"lastname": "Smith", "nickname": "JD"}
	rows, err := store.UpdateUserFields(ctx, user.ID, fields, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to update fields: %v", err)
	}
	if rows != 1 {
		t.Fatalf("Expected 1 row affected, got %d", rows)
	}

	retrieved, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve user: %v", err)
	}
	if retrieved.Lastname != "Smith" {
		t.Errorf("Expected lastname Smith, got %s", retrieved.Lastname)
	}
}

func TestDeleteUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := newTestUser("John", "Doe")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	rows, err := store.DeleteUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	if rows != 1 {
		t.Fatalf("Expected 1 row affected, got %d", rows)
	}

	// second delete is a no-op
	rows, err = store.DeleteUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Unexpected error on repeat delete: %v", err)
	}
	if rows != 0 {
		t.Errorf("Expected 0 rows affected on repeat delete, got %d", rows)
	}
}

func TestCountAndListUsers(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for _, name := range names {
		if err := store.CreateUser(ctx, newTestUser(name, "Tester")); err != nil {
			t.Fatalf("Failed to create user %s: %v", name, err)
		}
	}

	total, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if total != len(names) {
		t.Errorf("Expected %d users, got %d", len(names), total)
	}

	page, err := store.ListUsers(ctx, 2, 2)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 users on the page, got %d", len(page))
	}
	if page[0].Firstname != "Carol" || page[1].Firstname != "Dave" {
		t.Errorf("Expected Carol, Dave in id order, got %s, %s", page[0].Firstname, page[1].Firstname)
	}
}
