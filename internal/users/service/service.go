package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ms-users/internal/models"
)

// ErrUserNotFound indicates the target id has no row behind it.
var ErrUserNotFound = errors.New("user not found")

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Pagination is the metadata block of a list response.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type UserDBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UpdateUser(ctx context.Context, id int64, firstname, lastname string, updatedAt time.Time) (int64, error)
	UpdateUserFields(ctx context.Context, id int64, fields map[string]string, updatedAt time.Time) (int64, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
}

type UserService struct {
	DB UserDBLayer
}

func NewUserService(db UserDBLayer) *UserService {
	return &UserService{DB: db}
}

// CreateUser validates the body (both fields required), inserts a row
// with trimmed values and returns the stored record.
func (s *UserService) CreateUser(ctx context.Context, data map[string]interface{}) (*models.User, error) {
	if err := ValidateUserData(data, "firstname", "lastname"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Firstname: strings.TrimSpace(data["firstname"].(string)),
		Lastname:  strings.TrimSpace(data["lastname"].(string)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// ReplaceUser is the full (PUT) update: both fields required, both
// replaced. The existence check runs before body validation, so an
// unknown id is reported as not-found even with an invalid body.
func (s *UserService) ReplaceUser(ctx context.Context, id int64, data map[string]interface{}) (*models.User, error) {
	exists, err := s.DB.UserExists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check user %d: %w", id, err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if err := ValidateUserData(data, "firstname", "lastname"); err != nil {
		return nil, err
	}

	firstname := strings.TrimSpace(data["firstname"].(string))
	lastname := strings.TrimSpace(data["lastname"].(string))

	rows, err := s.DB.UpdateUser(ctx, id, firstname, lastname, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	if rows == 0 {
		// row vanished between the existence check and the update
		return nil, ErrUserNotFound
	}

	return s.GetUser(ctx, id)
}

// UpdateUser is the partial (PATCH) update. It filters the body down
// to the recognized fields, updates exactly those plus updated_at and
// returns the re-fetched record with the list of changed field names.
func (s *UserService) UpdateUser(ctx context.Context, id int64, data map[string]interface{}) (*models.User, []string, error) {
	exists, err := s.DB.UserExists(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("check user %d: %w", id, err)
	}
	if !exists {
		return nil, nil, ErrUserNotFound
	}

	if err := ValidateUserData(data); err != nil {
		return nil, nil, err
	}

	fields := make(map[string]string)
	var updated []string
	for _, field := range userFields {
		if value, ok := data[field]; ok {
			fields[field] = strings.TrimSpace(value.(string))
			updated = append(updated, field)
		}
	}
	if len(fields) == 0 {
		return nil, nil, ValidationError("No valid fields provided for update")
	}

	rows, err := s.DB.UpdateUserFields(ctx, id, fields, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("update user %d: %w", id, err)
	}
	if rows == 0 {
		return nil, nil, ErrUserNotFound
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return user, updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	rows, err := s.DB.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns one page ordered by ascending id plus pagination
// metadata. page defaults to 1, perPage to 10 and is capped at 100.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) ([]models.User, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	offset := (page - 1) * perPage

	total, err := s.DB.CountUsers(ctx)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("count users: %w", err)
	}

	users, err := s.DB.ListUsers(ctx, perPage, offset)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}

	pagination := Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   int(math.Ceil(float64(total) / float64(perPage))),
	}
	return users, pagination, nil
}
