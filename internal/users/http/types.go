package http

import (
	"github.com/friendpin/friendpin-backend/internal/users/service"
)

// Handler serves the user, friendship and visit endpoints
type Handler struct {
	users   *service.UserService
	friends *service.FriendService
	visits  *service.VisitService
}

// New creates a new Handler
func New(users *service.UserService, friends *service.FriendService, visits *service.VisitService) *Handler {
	return &Handler{
		users:   users,
		friends: friends,
		visits:  visits,
	}
}

type destinationRequest struct {
	DestinationUserID *string `json:"destination_user_id" binding:"required"`
}

type cancelRequest struct {
	FriendID *string `json:"friend_id" binding:"required"`
}
