package user_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-users/internal/logger"
	"ms-users/internal/models"
	"ms-users/internal/users/service"
	"ms-users/internal/utils"
)

type UserService interface {
	CreateUser(ctx context.Context, data map[string]interface{}) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ReplaceUser(ctx context.Context, id int64, data map[string]interface{}) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, data map[string]interface{}) (*models.User, []string, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, page, perPage int) ([]models.User, service.Pagination, error)
}

type Handler struct {
	UserService UserService
	Logger      *logger.Logger
}

func NewHandler(userService UserService, log *logger.Logger) *Handler {
	return &Handler{
		UserService: userService,
		Logger:      log,
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.CreateUser(r.Context(), data)
	if err != nil {
		h.writeServiceError(w, "CreateUser", err)
		return
	}
	h.Logger.Info("USER", fmt.Sprintf("CreateUser: created user id=%d", user.ID))

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"id":      user.ID,
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "GetUser", err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}

func (h *Handler) ReplaceUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.ReplaceUser(r.Context(), id, data)
	if err != nil {
		h.writeServiceError(w, "ReplaceUser", err)
		return
	}
	h.Logger.Info("USER", fmt.Sprintf("ReplaceUser: updated user id=%d", id))

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	user, updatedFields, err := h.UserService.UpdateUser(r.Context(), id, data)
	if err != nil {
		h.writeServiceError(w, "UpdateUser", err)
		return
	}
	h.Logger.Info("USER", fmt.Sprintf("UpdateUser: updated user id=%d fields=%v", id, updatedFields))

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message":        "User updated successfully",
		"updated_fields": updatedFields,
		"user":           user,
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, "DeleteUser", err)
		return
	}
	h.Logger.Info("USER", fmt.Sprintf("DeleteUser: deleted user id=%d", id))

	utils.JSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", service.DefaultPerPage)

	users, pagination, err := h.UserService.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.writeServiceError(w, "ListUsers", err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": pagination,
	})
}

// userID parses the id path parameter. The route constrains it to
// digits, so a parse failure only happens on out-of-range values.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "User not found")
		return 0, false
	}
	return id, true
}

// decodeBody reads the request body into a field map. A missing or
// malformed body is rejected the same way as an empty one.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		utils.Error(w, http.StatusBadRequest, "No data provided")
		return nil, false
	}
	return data, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr service.ValidationError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		utils.Error(w, http.StatusNotFound, "User not found")
	case errors.As(err, &verr):
		utils.Error(w, http.StatusBadRequest, verr.Error())
	default:
		// store failures are reported opaquely
		h.Logger.Error("USER", fmt.Sprintf("%s: %v", op, err))
		utils.Error(w, http.StatusInternalServerError, "Database error occurred")
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
