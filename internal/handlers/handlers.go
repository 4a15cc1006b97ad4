// Package handlers contains the HTTP handlers of the book collection API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/middlewares"
	"github.com/sbilibin2017/gw-book-collection/internal/services"
	"github.com/sbilibin2017/gw-book-collection/internal/storage"
)

// ErrorResponse is the body of every failed request
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: Internal server error
	Error string `json:"error"`
}

// MessageResponse carries a human readable confirmation
// swagger:model MessageResponse
type MessageResponse struct {
	// default: OK
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first validator failure into a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters long"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters long"
	case "eqfield":
		return "Passwords do not match"
	default:
		return fe.Field() + " is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrUserAlreadyExists, http.StatusBadRequest, "User with this email already exists"},
	{services.ErrCategoryAlreadyExists, http.StatusBadRequest, "Category with this name already exists"},
	{storage.ErrUnsupportedMediaType, http.StatusBadRequest, "Only .jpeg, .jpg and .png files are allowed"},
	{storage.ErrFileTooLarge, http.StatusBadRequest, "File too large, max 5MB"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrBookNotFound, http.StatusNotFound, "Book not found"},
	{services.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},
	{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{services.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many failed sign-in attempts, try again later"},
}

// writeServiceError maps a service error onto a status code and message.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrValidation) {
		msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.message)
			return
		}
	}
	logger.Log.Errorw("internal server error", "err", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// currentUserID returns the id of the authenticated caller.
func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := middlewares.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication failed: No token provided")
		return uuid.Nil, false
	}
	return claims.UserID, true
}
