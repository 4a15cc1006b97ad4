package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

//go:generate mockgen -source=me.go -destination=me_mock.go -package=handlers

// CurrentUserGetter loads the authenticated user.
type CurrentUserGetter interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
}

// UserResponse is the public view of a user
// swagger:model UserResponse
type UserResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMeHandler returns an HTTP handler for the current user's profile.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} handlers.UserResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/me [get]
// @Security BearerAuth
func NewMeHandler(svc CurrentUserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		user, err := svc.GetCurrentUser(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{
			UserID:    user.UserID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		})
	}
}
